package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/roach88/dynfilter/internal/api"
	"github.com/roach88/dynfilter/internal/catalog"
	"github.com/roach88/dynfilter/internal/config"
	"github.com/roach88/dynfilter/internal/store"
)

// Clock supplies the time generated products are relative to.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

func clockOr(c Clock) Clock {
	if c == nil {
		return wallClock{}
	}
	return c
}

// openProducts opens the product source described by sc. The memory
// driver loads sc.Fixtures and appends sc.Generate generated products;
// other drivers open the database at sc.DSN. The returned close function
// is never nil.
func openProducts(ctx context.Context, sc config.StorageConfig, clock Clock) (api.Products, func() error, error) {
	if sc.Driver != "memory" {
		st, err := store.Open(ctx, sc.Driver, sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}

	mem, _, err := openMemory(sc, clock)
	if err != nil {
		return nil, nil, err
	}
	return mem, func() error { return nil }, nil
}

// openMemory builds the memory source and the function that rebuilds its
// product list from the fixture file. Generated products are drawn once
// and kept across rebuilds.
func openMemory(sc config.StorageConfig, clock Clock) (*catalog.InMemory, func() ([]catalog.Product, error), error) {
	var generated []catalog.Product
	if sc.Generate > 0 {
		rng := rand.New(rand.NewSource(sc.Seed))
		generated = catalog.Generate(rng, sc.Generate, clockOr(clock).Now())
	}

	load := func() ([]catalog.Product, error) {
		var products []catalog.Product
		if sc.Fixtures != "" {
			loaded, err := loadFixtureFile(sc.Fixtures)
			if err != nil {
				return nil, err
			}
			products = loaded
		}
		return append(products, generated...), nil
	}

	products, err := load()
	if err != nil {
		return nil, nil, err
	}
	return &catalog.InMemory{Products: products}, load, nil
}

// openWatchedProducts is openProducts for the memory driver with its
// fixture file watched for changes. Closing stops the watcher.
func openWatchedProducts(ctx context.Context, logger *slog.Logger, sc config.StorageConfig, clock Clock) (api.Products, func() error, error) {
	mem, load, err := openMemory(sc, clock)
	if err != nil {
		return nil, nil, err
	}

	watcher, err := catalog.WatchFixtures(logger, sc.Fixtures, mem, load)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	closeFn := func() error {
		cancel()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	return mem, closeFn, nil
}

func loadFixtureFile(path string) ([]catalog.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return catalog.LoadFixtures(f)
}
