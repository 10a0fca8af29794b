package operation

import "github.com/roach88/dynfilter/internal/schema"

// Present shapes pipeline elements for output: records and rows become
// maps keyed by member name, enum values become member names and chars
// become one-character strings. Other canonical values are kept.
func (p *Pipeline) Present(elems []any) []any {
	proj := p.Projection()
	out := make([]any, len(elems))
	for i, e := range elems {
		switch {
		case proj != nil && proj.Single:
			out[i] = display(proj.Fields[0], e)
		case proj != nil:
			row, _ := e.(Row)
			obj := make(map[string]any, len(proj.Fields))
			for _, f := range proj.Fields {
				obj[f.Name] = display(f, row[f.Name])
			}
			out[i] = obj
		default:
			fields := p.Schema.Fields()
			obj := make(map[string]any, len(fields))
			for _, f := range fields {
				obj[f.Name] = display(f, f.Value(e))
			}
			out[i] = obj
		}
	}
	return out
}

func display(f *schema.Field, v any) any {
	if c, ok := v.(rune); ok && f.Type.Kind == schema.KindChar {
		return string(c)
	}
	return f.Display(v)
}
