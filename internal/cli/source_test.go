package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynfilter/internal/catalog"
	"github.com/roach88/dynfilter/internal/config"
	"github.com/roach88/dynfilter/internal/operation"
	"github.com/roach88/dynfilter/internal/testutil"
)

func countProducts(t *testing.T, products interface {
	FindProducts(context.Context, *operation.Pipeline) ([]any, error)
}) int {
	t.Helper()
	p, err := operation.Plan(catalog.ProductSchema, nil)
	require.NoError(t, err)
	elems, err := products.FindProducts(context.Background(), p)
	require.NoError(t, err)
	return len(elems)
}

func TestOpenProducts_Memory(t *testing.T) {
	path := writeFile(t, "products.yaml", fixtures)
	clock := testutil.NewClock(testutil.Epoch, time.Second)

	products, closeFn, err := openProducts(context.Background(), config.StorageConfig{
		Driver:   "memory",
		Fixtures: path,
		Generate: 3,
		Seed:     9,
	}, clock)
	require.NoError(t, err)
	defer closeFn()

	assert.Equal(t, 7, countProducts(t, products))

	_, _, err = openProducts(context.Background(), config.StorageConfig{
		Driver:   "memory",
		Fixtures: filepath.Join(t.TempDir(), "missing.yaml"),
	}, clock)
	assert.Error(t, err)
}

func TestOpenWatchedProducts_Reloads(t *testing.T) {
	path := writeFile(t, "products.yaml", fixtures)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	products, closeFn, err := openWatchedProducts(context.Background(), logger, config.StorageConfig{
		Driver:   "memory",
		Fixtures: path,
		Watch:    true,
		Generate: 2,
		Seed:     3,
	}, testutil.NewClock(testutil.Epoch, 0))
	require.NoError(t, err)
	assert.Equal(t, 6, countProducts(t, products))

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("products:\n  - Name: Bounty\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	// Generated products survive the reload.
	assert.Eventually(t, func() bool { return countProducts(t, products) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, closeFn())
}

func TestServe_WatchAndCache(t *testing.T) {
	products := writeFile(t, "products.yaml", fixtures)
	cfg := writeFile(t, "dynfilter.yaml", `
logger:
  level: error
server:
  addr: 127.0.0.1:0
storage:
  driver: memory
  fixtures: `+products+`
  watch: true
cache:
  url: redis://127.0.0.1:1/0
`)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := NewServeCommand(&RootOptions{Format: "text"})
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := execute(t, cmd, "", "--config", cfg)
		done <- err
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
