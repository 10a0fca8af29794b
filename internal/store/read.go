package store

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/dynfilter/internal/catalog"
	"github.com/roach88/dynfilter/internal/operation"
	"github.com/roach88/dynfilter/internal/querysql"
)

var tracer = otel.Tracer("dynfilter/store")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Find runs p against table and returns its elements in the same shapes
// as memory.Run: T records without a projection, canonical values for a
// single-field select, operation.Row values otherwise.
//
// Results are ordered deterministically: every compiled query ends with
// the stable key.
func Find[T any](ctx context.Context, s *Store, table string, p *operation.Pipeline) (elems []any, err error) {
	if err := checkRecordType[T](p.Schema); err != nil {
		return nil, err
	}

	compiler := querysql.NewSQLCompiler(s.dialect)
	compiler.Table = table
	query, params, err := compiler.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", table, err)
	}

	ctx, span := tracer.Start(ctx, "store.find")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("db.system", s.dialect.Name()),
		attribute.String("db.statement", query),
		attribute.Int("db.params", len(params)),
	)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", table, err)
	}
	defer rows.Close()

	fields := querysql.Columns(p)
	proj := p.Projection()
	scanners, dest := newScanners(fields)

	elems = []any{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("find in %s: %w", table, err)
		}

		switch {
		case proj != nil && proj.Single:
			elems = append(elems, scanners[0].value)
		case proj != nil:
			row := make(operation.Row, len(fields))
			for _, sc := range scanners {
				row[sc.field.Name] = sc.value
			}
			elems = append(elems, row)
		default:
			var rec T
			for _, sc := range scanners {
				if err := sc.field.Set(&rec, sc.value); err != nil {
					return nil, fmt.Errorf("find in %s: %w", table, err)
				}
			}
			elems = append(elems, rec)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(elems)))
	return elems, nil
}

// FindProducts runs p against the products table.
func (s *Store) FindProducts(ctx context.Context, p *operation.Pipeline) ([]any, error) {
	return Find[catalog.Product](ctx, s, catalog.ProductSchema.Table, p)
}
