package operation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/filter"
)

// wireOperation is the JSON envelope of one operation. Key matching is
// case-insensitive (encoding/json semantics).
type wireOperation struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type whereArguments struct {
	Conditions []filter.Condition `json:"conditions"`
	Groups     []filter.Group     `json:"groups"`
}

// Parse decodes a JSON array of operations and validates it against the
// operation schema.
//
// Operation names are case-insensitive. Arguments per name:
//
//	where              {"conditions": [...], "groups": [...]}
//	distinct           ignored
//	skip, take         positive integer
//	orderby, thenby    field name, or omitted to order by the element
//	(and *descending)
//	select             field name (single value) or array of field names
//
// All failures are *fault.Error values with CodeInvalidArgument (or the
// decoding error of a condition), so transports can report them as bad
// requests.
func Parse(data []byte) ([]Operation, error) {
	var wire []wireOperation
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &fault.Error{
			Code:    fault.CodeInvalidArgument,
			Message: "operations must be a JSON array of {name, arguments} objects",
			Field:   "operations",
			Err:     err,
		}
	}

	ops := make([]Operation, 0, len(wire))
	for i, w := range wire {
		op, err := decode(w)
		if errors.Is(err, errUnknownOperation) {
			return nil, fault.InvalidArgument(fmt.Sprintf("operations.%d.name", i), err.Error())
		}
		if err != nil {
			return nil, &fault.Error{
				Code:    fault.CodeInvalidArgument,
				Message: fmt.Sprintf("operation %d (%q) has invalid arguments", i, w.Name),
				Field:   fmt.Sprintf("operations.%d.arguments", i),
				Err:     err,
			}
		}
		ops = append(ops, op)
	}

	if err := Validate(ops); err != nil {
		return nil, err
	}
	return ops, nil
}

var errUnknownOperation = errors.New("unknown operation")

func decode(w wireOperation) (Operation, error) {
	args := bytes.TrimSpace(w.Arguments)
	missing := len(args) == 0 || bytes.Equal(args, []byte("null"))

	switch name := strings.ToLower(strings.TrimSpace(w.Name)); name {
	case NameWhere:
		if missing {
			return nil, fmt.Errorf("where requires conditions")
		}
		var wa whereArguments
		if err := json.Unmarshal(args, &wa); err != nil {
			return nil, err
		}
		return Where{Conditions: wa.Conditions, Groups: wa.Groups}, nil

	case NameDistinct:
		return Distinct{}, nil

	case NameSkip, NameTake:
		if missing {
			return nil, fmt.Errorf("%s requires a count", name)
		}
		var count int
		if err := json.Unmarshal(args, &count); err != nil {
			return nil, fmt.Errorf("%s count must be an integer: %w", name, err)
		}
		if name == NameSkip {
			return Skip{Count: count}, nil
		}
		return Take{Count: count}, nil

	case NameOrderBy, NameOrderByDescending, NameThenBy, NameThenByDescending:
		var field string
		if !missing {
			if err := json.Unmarshal(args, &field); err != nil {
				return nil, fmt.Errorf("%s field must be a string: %w", name, err)
			}
		}
		desc := strings.HasSuffix(name, "descending")
		if strings.HasPrefix(name, NameThenBy) {
			return ThenBy{Field: field, Descending: desc}, nil
		}
		return OrderBy{Field: field, Descending: desc}, nil

	case NameSelect:
		if missing {
			return nil, fmt.Errorf("select requires a field or an array of fields")
		}
		if args[0] == '[' {
			var fields []string
			if err := json.Unmarshal(args, &fields); err != nil {
				return nil, fmt.Errorf("select fields must be strings: %w", err)
			}
			return Select{Fields: fields}, nil
		}
		var field string
		if err := json.Unmarshal(args, &field); err != nil {
			return nil, fmt.Errorf("select field must be a string: %w", err)
		}
		return Select{Fields: []string{field}, Single: true}, nil

	default:
		return nil, fmt.Errorf("%w %q", errUnknownOperation, w.Name)
	}
}

// Document returns the canonical form of ops: lower-case names, enum
// names for operators, and only the arguments each operation uses. It is
// the value validated by the operation schema and the form written by
// Marshal.
func Document(ops []Operation) []any {
	doc := make([]any, 0, len(ops))
	for _, op := range ops {
		entry := map[string]any{"name": op.Name()}
		switch o := op.(type) {
		case Where:
			conds := make([]any, 0, len(o.Conditions))
			for _, c := range o.Conditions {
				conds = append(conds, conditionDocument(c))
			}
			args := map[string]any{"conditions": conds}
			if len(o.Groups) > 0 {
				groups := make([]any, 0, len(o.Groups))
				for _, g := range o.Groups {
					groups = append(groups, map[string]any{"start": g.Start, "end": g.End, "level": g.Level})
				}
				args["groups"] = groups
			}
			entry["arguments"] = args
		case Skip:
			entry["arguments"] = o.Count
		case Take:
			entry["arguments"] = o.Count
		case OrderBy:
			if o.Field != "" {
				entry["arguments"] = o.Field
			}
		case ThenBy:
			if o.Field != "" {
				entry["arguments"] = o.Field
			}
		case Select:
			if o.Single && len(o.Fields) == 1 {
				entry["arguments"] = o.Fields[0]
			} else {
				fields := make([]any, len(o.Fields))
				for i, f := range o.Fields {
					fields[i] = f
				}
				entry["arguments"] = fields
			}
		}
		doc = append(doc, entry)
	}
	return doc
}

func conditionDocument(c filter.Condition) map[string]any {
	values := make([]any, len(c.Values))
	for i, v := range c.Values {
		if v != nil {
			values[i] = *v
		}
	}
	m := map[string]any{
		"field":    c.Field,
		"operator": c.Operator.String(),
		"values":   values,
	}
	if c.Logic != filter.LogicNone {
		m["logic"] = c.Logic.String()
	}
	return m
}

// Marshal encodes ops in canonical JSON form.
func Marshal(ops []Operation) ([]byte, error) {
	return json.Marshal(Document(ops))
}
