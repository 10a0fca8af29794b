package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/operation"
	"github.com/roach88/dynfilter/internal/schema"
)

// SQLCompiler compiles operation pipelines to parameterized SQL.
//
// CRITICAL: ALL queries end with ORDER BY on the stable key so results
// are deterministic and match the memory backend element for element.
// CRITICAL: All literal values are parameterized (never interpolated).
// Skip and take counts are validated integers and are rendered inline.
type SQLCompiler struct {
	Dialect Dialect

	// Table overrides the schema's default table name.
	Table string
}

// NewSQLCompiler creates a compiler for d.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: d}
}

// level is one SELECT under construction. Stages are merged into the
// current level while SQL evaluation order still matches pipeline order;
// otherwise the level is closed into a subquery (see wrap).
type level struct {
	from      string
	where     []expr.Expr
	keys      []orderKey
	limit     int // -1: none
	offset    int
	grouped   bool
	projected bool
	cols      []*schema.Field
}

type orderKey struct {
	field *schema.Field
	desc  bool
}

// windowed reports whether the level restricts its rows by position.
func (l *level) windowed() bool {
	return l.limit >= 0 || l.offset > 0
}

// seq is the stable key expression of the level.
func (l *level) seq() string {
	if l.grouped {
		return "MIN(" + Quote(SeqColumn) + ")"
	}
	return Quote(SeqColumn)
}

type builder struct {
	dialect Dialect
	args    *args
	depth   int
}

// Compile converts a pipeline to SQL.
// Returns (sql, params, error) tuple. The selected columns are Columns(p),
// in order.
//
// Stage mapping:
//
//	where     WHERE (closes the level after skip/take/distinct/select)
//	order     ORDER BY new keys, previous keys, stable key
//	skip      OFFSET (closes the level after take)
//	take      LIMIT (the smaller of two takes wins)
//	distinct  GROUP BY all output columns, ordered by MIN(stable key)
//	select    output column list
//
// A closed level becomes a subquery that numbers its rows with
// ROW_NUMBER() in its own order, so the outer level orders by that
// number and never needs the inner keys.
func (c *SQLCompiler) Compile(p *operation.Pipeline) (string, []any, error) {
	if p == nil || p.Schema == nil {
		return "", nil, fmt.Errorf("cannot compile nil pipeline")
	}
	if c.Dialect == nil {
		return "", nil, fmt.Errorf("compiler has no dialect")
	}
	if _, clash := p.Schema.Column(SeqColumn); clash {
		return "", nil, fmt.Errorf("schema %s uses reserved column %q", p.Schema.Name, SeqColumn)
	}

	table := c.Table
	if table == "" {
		table = p.Schema.Table
	}

	b := &builder{dialect: c.Dialect, args: &args{dialect: c.Dialect}}
	lv := &level{from: Quote(table), limit: -1, cols: p.Schema.Fields()}

	var err error
	for _, st := range p.Stages {
		switch s := st.(type) {
		case operation.FilterStage:
			if lv.windowed() || lv.grouped || lv.projected {
				if lv, err = b.wrap(lv); err != nil {
					return "", nil, err
				}
			}
			lv.where = append(lv.where, s.Predicate)

		case operation.SortStage:
			if lv.windowed() || lv.grouped {
				if lv, err = b.wrap(lv); err != nil {
					return "", nil, err
				}
			}
			keys := make([]orderKey, 0, len(s.Keys)+len(lv.keys))
			for _, k := range s.Keys {
				f := k.Field
				if f == nil {
					f = lv.cols[0]
				}
				keys = append(keys, orderKey{field: f, desc: k.Descending})
			}
			lv.keys = append(keys, lv.keys...)

		case operation.SkipStage:
			if lv.limit >= 0 {
				if lv, err = b.wrap(lv); err != nil {
					return "", nil, err
				}
			}
			lv.offset += s.Count

		case operation.TakeStage:
			if lv.limit < 0 || s.Count < lv.limit {
				lv.limit = s.Count
			}

		case operation.DistinctStage:
			if lv.windowed() || len(lv.keys) > 0 || lv.grouped {
				if lv, err = b.wrap(lv); err != nil {
					return "", nil, err
				}
			}
			lv.grouped = true

		case operation.ProjectStage:
			if lv.grouped {
				if lv, err = b.wrap(lv); err != nil {
					return "", nil, err
				}
			}
			lv.cols = s.Fields
			lv.projected = true

		default:
			return "", nil, fmt.Errorf("unsupported stage type: %T", st)
		}
	}

	sql, err := b.render(lv, false)
	if err != nil {
		return "", nil, err
	}
	return sql, b.args.values, nil
}

// Columns returns the members selected by the compiled query of p.
func Columns(p *operation.Pipeline) []*schema.Field {
	if proj := p.Projection(); proj != nil {
		return proj.Fields
	}
	return p.Schema.Fields()
}

// wrap closes lv into a subquery and returns the level reading from it.
func (b *builder) wrap(lv *level) (*level, error) {
	sub, err := b.render(lv, true)
	if err != nil {
		return nil, err
	}
	b.depth++
	return &level{
		from:      fmt.Sprintf("(%s) AS q%d", sub, b.depth),
		limit:     -1,
		projected: lv.projected,
		cols:      lv.cols,
	}, nil
}

func (b *builder) render(lv *level, sub bool) (string, error) {
	cols := make([]string, len(lv.cols))
	for i, f := range lv.cols {
		cols[i] = column(f)
	}

	order := b.orderTerms(lv)

	selectList := strings.Join(cols, ", ")
	if sub {
		switch {
		case lv.grouped:
			selectList += ", " + lv.seq() + " AS " + Quote(SeqColumn)
		case len(lv.keys) > 0:
			selectList += ", ROW_NUMBER() OVER (ORDER BY " + strings.Join(order, ", ") + ") AS " + Quote(SeqColumn)
		default:
			selectList += ", " + Quote(SeqColumn)
		}
	}

	var sql strings.Builder
	fmt.Fprintf(&sql, "SELECT %s FROM %s", selectList, lv.from)

	if len(lv.where) > 0 {
		where, err := compilePredicate(expr.Conjoin(lv.where...), b.args)
		if err != nil {
			return "", fmt.Errorf("compile filter: %w", err)
		}
		sql.WriteString(" WHERE " + where)
	}

	if lv.grouped {
		sql.WriteString(" GROUP BY " + strings.Join(cols, ", "))
	}

	// MANDATORY: the outermost query is always ordered. Subqueries are
	// ordered only when a row window depends on it.
	if !sub || lv.windowed() {
		sql.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}
	sql.WriteString(b.dialect.LimitOffset(lv.limit, lv.offset))
	return sql.String(), nil
}

func (b *builder) orderTerms(lv *level) []string {
	terms := make([]string, 0, len(lv.keys)+1)
	for _, k := range lv.keys {
		terms = append(terms, b.dialect.OrderTerm(column(k.field), k.field.Type, k.desc))
	}
	return append(terms, lv.seq()+" ASC")
}
