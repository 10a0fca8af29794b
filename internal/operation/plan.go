package operation

import (
	"fmt"
	"strings"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/filter"
	"github.com/roach88/dynfilter/internal/schema"
)

// Stage is one resolved step of a Pipeline.
//
// This is a sealed interface - only types in this package implement it.
// Backends (memory, querysql) switch exhaustively over the stage types.
type Stage interface {
	stageNode() // Marker method - seals interface to this package
}

// FilterStage keeps the records the predicate accepts.
type FilterStage struct {
	Predicate expr.Expr
}

func (FilterStage) stageNode() {}

// SortKey is one ordering key. A nil Field orders by the element itself
// (the value of a single-field projection).
type SortKey struct {
	Field      *schema.Field
	Descending bool
}

// SortStage is a stable sort by Keys, most significant first.
type SortStage struct {
	Keys []SortKey
}

func (SortStage) stageNode() {}

// SkipStage drops the first Count elements.
type SkipStage struct {
	Count int
}

func (SkipStage) stageNode() {}

// TakeStage keeps at most Count elements.
type TakeStage struct {
	Count int
}

func (TakeStage) stageNode() {}

// DistinctStage drops elements equal to an earlier one, keeping the first.
type DistinctStage struct{}

func (DistinctStage) stageNode() {}

// ProjectStage replaces each record with the listed members.
type ProjectStage struct {
	Fields []*schema.Field
	Single bool
}

func (ProjectStage) stageNode() {}

// Pipeline is a validated, schema-resolved sequence of stages over one
// record type.
type Pipeline struct {
	Schema *schema.Schema
	Stages []Stage
}

// Projection returns the pipeline's projection, or nil when elements are
// whole records.
func (p *Pipeline) Projection() *ProjectStage {
	for _, st := range p.Stages {
		if ps, ok := st.(ProjectStage); ok {
			return &ps
		}
	}
	return nil
}

// String renders the pipeline one stage per line, for explain output.
func (p *Pipeline) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "from %s", p.Schema.Name)
	for _, st := range p.Stages {
		b.WriteString("\n")
		switch s := st.(type) {
		case FilterStage:
			fmt.Fprintf(&b, "where %s", expr.String(s.Predicate))
		case SortStage:
			keys := make([]string, len(s.Keys))
			for i, k := range s.Keys {
				name := "element"
				if k.Field != nil {
					name = k.Field.Name
				}
				if k.Descending {
					name += " desc"
				}
				keys[i] = name
			}
			fmt.Fprintf(&b, "order by %s", strings.Join(keys, ", "))
		case SkipStage:
			fmt.Fprintf(&b, "skip %d", s.Count)
		case TakeStage:
			fmt.Fprintf(&b, "take %d", s.Count)
		case DistinctStage:
			b.WriteString("distinct")
		case ProjectStage:
			names := make([]string, len(s.Fields))
			for i, f := range s.Fields {
				names[i] = f.Name
			}
			if s.Single {
				fmt.Fprintf(&b, "select %s", names[0])
			} else {
				fmt.Fprintf(&b, "select [%s]", strings.Join(names, ", "))
			}
		}
	}
	return b.String()
}

// Plan resolves ops against s.
//
// Rules:
//   - where builds its predicate with filter.BuildPredicate
//   - orderby starts a new sort; thenby must directly follow an orderby
//     or thenby and adds a key to it
//   - an ordering without a field needs a preceding single-field select
//   - after select only distinct, skip, take and element ordering apply
//   - skip and take counts are at least 1
func Plan(s *schema.Schema, ops []Operation) (*Pipeline, error) {
	if s == nil {
		return nil, fault.InvalidArgument("schema", "record schema is required")
	}

	p := &Pipeline{Schema: s}
	var projected *ProjectStage

	for i, op := range ops {
		at := fmt.Sprintf("operations.%d.arguments", i)

		if projected != nil {
			if err := checkAfterProjection(op, projected, i); err != nil {
				return nil, err
			}
		}

		switch o := op.(type) {
		case Where:
			pred, err := filter.BuildPredicate(s, o.Conditions, o.Groups)
			if err != nil {
				return nil, err
			}
			p.Stages = append(p.Stages, FilterStage{Predicate: pred})

		case OrderBy:
			key, err := sortKey(s, o.Field, o.Descending, projected, at)
			if err != nil {
				return nil, err
			}
			p.Stages = append(p.Stages, SortStage{Keys: []SortKey{key}})

		case ThenBy:
			last := len(p.Stages) - 1
			prev, ok := SortStage{}, false
			if last >= 0 {
				prev, ok = p.Stages[last].(SortStage)
			}
			if !ok {
				return nil, fault.InvalidArgument(fmt.Sprintf("operations.%d.name", i), fmt.Sprintf("%s must follow orderby or thenby", o.Name()))
			}
			key, err := sortKey(s, o.Field, o.Descending, projected, at)
			if err != nil {
				return nil, err
			}
			keys := make([]SortKey, 0, len(prev.Keys)+1)
			keys = append(keys, prev.Keys...)
			p.Stages[last] = SortStage{Keys: append(keys, key)}

		case Skip:
			if o.Count < 1 {
				return nil, fault.InvalidArgument(at, "skip count must be at least 1")
			}
			p.Stages = append(p.Stages, SkipStage{Count: o.Count})

		case Take:
			if o.Count < 1 {
				return nil, fault.InvalidArgument(at, "take count must be at least 1")
			}
			p.Stages = append(p.Stages, TakeStage{Count: o.Count})

		case Distinct:
			p.Stages = append(p.Stages, DistinctStage{})

		case Select:
			ps, err := projection(s, o, at)
			if err != nil {
				return nil, err
			}
			projected = &ps
			p.Stages = append(p.Stages, ps)

		default:
			return nil, fault.InvalidArgument(fmt.Sprintf("operations.%d.name", i), fmt.Sprintf("unsupported operation %T", op))
		}
	}
	return p, nil
}

// Prepare parses and plans a JSON operation list.
func Prepare(s *schema.Schema, data []byte) (*Pipeline, error) {
	ops, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Plan(s, ops)
}

func checkAfterProjection(op Operation, projected *ProjectStage, i int) error {
	switch o := op.(type) {
	case Distinct, Skip, Take:
		return nil
	case OrderBy:
		if o.Field == "" && projected.Single {
			return nil
		}
	case ThenBy:
		if o.Field == "" && projected.Single {
			return nil
		}
	}
	return fault.InvalidArgument(fmt.Sprintf("operations.%d.name", i), fmt.Sprintf("%s is not supported after select", op.Name()))
}

func sortKey(s *schema.Schema, name string, desc bool, projected *ProjectStage, at string) (SortKey, error) {
	if name == "" {
		if projected == nil || !projected.Single {
			return SortKey{}, fault.InvalidArgument(at, "ordering by the element requires a preceding single-field select")
		}
		return SortKey{Descending: desc}, nil
	}
	f, err := s.Field(name)
	if err != nil {
		return SortKey{}, err
	}
	return SortKey{Field: f, Descending: desc}, nil
}

func projection(s *schema.Schema, o Select, at string) (ProjectStage, error) {
	if len(o.Fields) == 0 {
		return ProjectStage{}, fault.InvalidArgument(at, "select requires at least one field")
	}
	if o.Single && len(o.Fields) != 1 {
		return ProjectStage{}, fault.InvalidArgument(at, "single-value select takes exactly one field")
	}
	seen := make(map[string]bool, len(o.Fields))
	fields := make([]*schema.Field, 0, len(o.Fields))
	for _, name := range o.Fields {
		if strings.TrimSpace(name) == "" {
			return ProjectStage{}, fault.InvalidArgument(at, "select field names must not be blank")
		}
		if seen[name] {
			return ProjectStage{}, fault.InvalidArgument(at, fmt.Sprintf("field %q selected twice", name))
		}
		seen[name] = true
		f, err := s.Field(name)
		if err != nil {
			return ProjectStage{}, err
		}
		fields = append(fields, f)
	}
	return ProjectStage{Fields: fields, Single: o.Single}, nil
}

// Row is a multi-field projection of one record: canonical member values
// keyed by field name.
type Row map[string]any
