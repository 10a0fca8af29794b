package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"reflect"
	"slices"

	"github.com/roach88/dynfilter/internal/catalog"
	"github.com/roach88/dynfilter/internal/fault"
	"github.com/roach88/dynfilter/internal/operation"
	"github.com/roach88/dynfilter/internal/store"
	"github.com/roach88/dynfilter/internal/testutil"
)

// Harness runs scenarios against the memory and SQLite backends.
type Harness struct {
	clock  *testutil.Clock
	logger *slog.Logger
}

// New creates a harness whose generated products are relative to
// testutil.Epoch. A nil logger discards output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{
		clock:  testutil.NewClock(testutil.Epoch, 0),
		logger: logger,
	}
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Build the catalog from products and generate
// 2. Encode operations as JSON and prepare them against the product schema
// 3. Run the pipeline in memory and against a fresh in-memory SQLite store
// 4. Compare the backends, then expectations, then assertions
//
// The returned error is reserved for broken scenarios (unbuildable
// catalog, unavailable store); failed checks are reported in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	products, err := h.catalog(scenario)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	ops, err := json.Marshal(scenario.Operations)
	if err != nil {
		return nil, fmt.Errorf("encode operations: %w", err)
	}

	result := NewResult()
	p, err := operation.Prepare(catalog.ProductSchema, ops)
	if err != nil {
		result.Rejection = err.Error()
		h.checkRejection(scenario.Expect, err, result)
		return result, nil
	}
	result.Pipeline = p.String()
	if scenario.Expect != nil && scenario.Expect.Error != nil {
		result.AddError(fmt.Sprintf("expected rejection %s, operations were accepted", scenario.Expect.Error.Code))
		return result, nil
	}

	h.logger.Debug("running scenario", "name", scenario.Name, "products", len(products), "pipeline", result.Pipeline)

	memElems, err := (&catalog.InMemory{Products: products}).FindProducts(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("memory backend: %w", err)
	}
	sqlElems, err := h.runSQLite(ctx, products, p)
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: %w", err)
	}

	memItems, err := normalize(p.Present(memElems))
	if err != nil {
		return nil, err
	}
	sqlItems, err := normalize(p.Present(sqlElems))
	if err != nil {
		return nil, err
	}
	result.Items = memItems
	result.elems = memElems

	if !reflect.DeepEqual(memItems, sqlItems) {
		result.AddError(fmt.Sprintf("backends disagree:\n  memory: %s\n  sqlite: %s", compact(memItems), compact(sqlItems)))
		return result, nil
	}

	h.checkExpect(scenario.Expect, result)
	for _, msg := range EvaluateAssertions(p, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) catalog(scenario *Scenario) ([]catalog.Product, error) {
	products, err := catalog.FromText(scenario.Products)
	if err != nil {
		return nil, err
	}
	if g := scenario.Generate; g != nil {
		h.clock.Reset()
		rng := rand.New(rand.NewSource(g.Seed))
		products = append(products, catalog.Generate(rng, g.Count, h.clock.Now())...)
	}
	return products, nil
}

func (h *Harness) runSQLite(ctx context.Context, products []catalog.Product, p *operation.Pipeline) ([]any, error) {
	st, err := store.Open(ctx, "sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if err := st.InsertProducts(ctx, products); err != nil {
		return nil, err
	}
	return st.FindProducts(ctx, p)
}

func (h *Harness) checkRejection(expect *Expect, err error, result *Result) {
	if expect == nil || expect.Error == nil {
		result.AddError(fmt.Sprintf("operations rejected: %v", err))
		return
	}

	if code := string(fault.CodeOf(err)); code != expect.Error.Code {
		result.AddError(fmt.Sprintf("expected rejection %s, got %s: %v", expect.Error.Code, code, err))
		return
	}
	if expect.Error.Field == "" {
		return
	}
	fields := fault.Fields(err)
	if _, ok := fields[expect.Error.Field]; !ok {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		slices.Sort(names)
		result.AddError(fmt.Sprintf("expected rejection of field %q, got fields %v", expect.Error.Field, names))
	}
}

func (h *Harness) checkExpect(expect *Expect, result *Result) {
	if expect == nil {
		return
	}
	if expect.Count != nil && *expect.Count != len(result.Items) {
		result.AddError(fmt.Sprintf("expected %d element(s), got %d", *expect.Count, len(result.Items)))
	}
	if expect.Items != nil {
		want, err := normalize(expect.Items)
		if err != nil {
			result.AddError(fmt.Sprintf("expect.items: %v", err))
			return
		}
		if !reflect.DeepEqual(want, result.Items) {
			result.AddError(fmt.Sprintf("items mismatch:\n  expected: %s\n  actual:   %s", compact(want), compact(result.Items)))
		}
	}
}

// normalize round-trips values through JSON so that presented elements and
// YAML expectations compare with the same types.
func normalize(items []any) ([]any, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("normalize items: %w", err)
	}
	out := []any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize items: %w", err)
	}
	return out, nil
}

func compact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}
