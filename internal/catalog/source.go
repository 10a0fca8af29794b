package catalog

import (
	"context"
	"sync"

	"github.com/roach88/dynfilter/internal/memory"
	"github.com/roach88/dynfilter/internal/operation"
)

// InMemory serves product pipelines from a slice, without a database.
// Products may be set directly before first use; afterwards use Replace.
type InMemory struct {
	mu       sync.RWMutex
	Products []Product
}

// FindProducts runs p over the products.
func (m *InMemory) FindProducts(ctx context.Context, p *operation.Pipeline) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	products := m.Products
	m.mu.RUnlock()
	return memory.Run(p, products)
}

// Replace swaps the served products. Pipelines already running keep
// the previous slice.
func (m *InMemory) Replace(products []Product) {
	m.mu.Lock()
	m.Products = products
	m.mu.Unlock()
}

// Len returns the number of served products.
func (m *InMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Products)
}

// Ping always succeeds.
func (m *InMemory) Ping(context.Context) error {
	return nil
}
