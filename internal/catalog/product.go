// Package catalog holds the demo record type served by the store and the
// HTTP API, plus fixture loading and generation for it.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/dynfilter/internal/schema"
)

// Category groups products. Conditions may name members
// (case-insensitive) or use their numbers.
type Category int

const (
	CategoryCandy   Category = 1
	CategorySnack   Category = 2
	CategoryDrink   Category = 3
	CategoryGrocery Category = 4
)

// Members implements schema.Enum.
func (Category) Members() map[string]int64 {
	return map[string]int64{
		"Candy":   int64(CategoryCandy),
		"Snack":   int64(CategorySnack),
		"Drink":   int64(CategoryDrink),
		"Grocery": int64(CategoryGrocery),
	}
}

// Product is a catalog entry.
type Product struct {
	Id          uuid.UUID
	Name        string
	Description *string
	Price       decimal.Decimal
	IsInStock   bool
	IsForSale   bool
	ExpireDate  time.Time
	Category    Category
}

// ProductSchema describes Product for filtering, storage and output.
var ProductSchema = schema.MustFor[Product]()
