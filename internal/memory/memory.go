// Package memory executes operation pipelines over in-memory slices.
//
// It is the reference backend: querysql output is tested against it.
// Elements keep canonical member values (see schema.Field.Value) so that
// results compare equal across backends.
package memory

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/operation"
	"github.com/roach88/dynfilter/internal/schema"
)

// Filter returns the records pred accepts, in order.
func Filter[T any](pred expr.Expr, records []T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if expr.Eval(pred, r) {
			out = append(out, r)
		}
	}
	return out
}

// Run executes p over records and returns the resulting elements:
// records (T) when the pipeline has no projection, canonical values for a
// single-field select, and operation.Row values otherwise.
func Run[T any](p *operation.Pipeline, records []T) ([]any, error) {
	if err := checkType[T](p.Schema); err != nil {
		return nil, err
	}

	elems := make([]any, len(records))
	for i, r := range records {
		elems[i] = r
	}

	var projected *operation.ProjectStage
	for _, st := range p.Stages {
		switch s := st.(type) {
		case operation.FilterStage:
			elems = slices.DeleteFunc(elems, func(e any) bool { return !expr.Eval(s.Predicate, e) })
		case operation.SortStage:
			slices.SortStableFunc(elems, func(a, b any) int { return compareKeys(s.Keys, a, b) })
		case operation.SkipStage:
			elems = elems[min(s.Count, len(elems)):]
		case operation.TakeStage:
			elems = elems[:min(s.Count, len(elems))]
		case operation.DistinctStage:
			elems = distinct(p.Schema, projected, elems)
		case operation.ProjectStage:
			projected = &s
			elems = project(s, elems)
		default:
			return nil, fmt.Errorf("memory: unsupported stage %T", st)
		}
	}
	return elems, nil
}

func checkType[T any](s *schema.Schema) error {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt != s.GoType() {
		return fault.InvalidArgument("records", fmt.Sprintf("records of type %s do not match schema %s", rt, s.Name))
	}
	return nil
}

func compareKeys(keys []operation.SortKey, a, b any) int {
	for _, k := range keys {
		c := expr.Order(keyValue(k, a), keyValue(k, b))
		if k.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func keyValue(k operation.SortKey, elem any) any {
	if k.Field == nil {
		return elem
	}
	return k.Field.Value(elem)
}

func project(s operation.ProjectStage, elems []any) []any {
	out := make([]any, len(elems))
	for i, e := range elems {
		if s.Single {
			out[i] = s.Fields[0].Value(e)
			continue
		}
		row := make(operation.Row, len(s.Fields))
		for _, f := range s.Fields {
			row[f.Name] = f.Value(e)
		}
		out[i] = row
	}
	return out
}

// distinct keeps the first of each run of equal elements. Records compare
// member by member; projections compare their values.
func distinct(s *schema.Schema, projected *operation.ProjectStage, elems []any) []any {
	equal := func(a, b any) bool {
		for _, f := range s.Fields() {
			if !expr.EqualValues(f.Value(a), f.Value(b)) {
				return false
			}
		}
		return true
	}
	if projected != nil && projected.Single {
		equal = expr.EqualValues
	} else if projected != nil {
		equal = func(a, b any) bool {
			ra, rb := a.(operation.Row), b.(operation.Row)
			for _, f := range projected.Fields {
				if !expr.EqualValues(ra[f.Name], rb[f.Name]) {
					return false
				}
			}
			return true
		}
	}

	out := make([]any, 0, len(elems))
	for _, e := range elems {
		if !slices.ContainsFunc(out, func(kept any) bool { return equal(kept, e) }) {
			out = append(out, e)
		}
	}
	return out
}
