package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/dynfilter/internal/catalog"
	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/querysql"
	"github.com/roach88/dynfilter/internal/schema"
)

// Insert appends records to table in one transaction. Records receive
// increasing stable keys in slice order.
func Insert[T any](ctx context.Context, s *Store, table string, records []T) (err error) {
	rs, err := schema.For[T]()
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}

	ctx, span := tracer.Start(ctx, "store.insert")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("db.system", s.dialect.Name()),
		attribute.String("db.table", table),
		attribute.Int("db.rows", len(records)),
	)

	fields := rs.Fields()
	cols := make([]string, len(fields))
	phs := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = querysql.Quote(f.Column)
		phs[i] = s.dialect.Placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", querysql.Quote(table), strings.Join(cols, ", "), strings.Join(phs, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	defer prepared.Close()

	args := make([]any, len(fields))
	for n, rec := range records {
		for i, f := range fields {
			args[i] = param(s.dialect, f.Value(rec))
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: record %d: %w", table, n, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// InsertProducts appends products to the products table.
func (s *Store) InsertProducts(ctx context.Context, products []catalog.Product) error {
	return Insert(ctx, s, catalog.ProductSchema.Table, products)
}

func param(d querysql.Dialect, v any) any {
	if v == nil {
		return nil
	}
	return d.Param(v)
}

func checkRecordType[T any](rs *schema.Schema) error {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt != rs.GoType() {
		return fault.InvalidArgument("records", fmt.Sprintf("records of type %s do not match schema %s", rt, rs.Name))
	}
	return nil
}
