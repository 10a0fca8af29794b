package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/dynfilter/internal/catalog"
)

// Products returns a small fixed catalog:
//
//	Snickers  1.50  in stock   candy  no description
//	Mars      1.20  sold out   candy  no description
//	Twix      1.50  in stock   candy  "twin bars"
//	Cola      0.99  in stock   drink  "fresh"
//	Mars      1.20  sold out   candy  no description (second entry)
//
// Each call returns fresh values.
func Products() []catalog.Product {
	twin, fresh := "twin bars", "fresh"
	expire := Epoch.Add(30 * 24 * time.Hour)
	return []catalog.Product{
		{Id: id(1), Name: "Snickers", Price: decimal.RequireFromString("1.50"), IsInStock: true, IsForSale: true, ExpireDate: expire, Category: catalog.CategoryCandy},
		{Id: id(2), Name: "Mars", Price: decimal.RequireFromString("1.20"), IsForSale: true, ExpireDate: expire, Category: catalog.CategoryCandy},
		{Id: id(3), Name: "Twix", Description: &twin, Price: decimal.RequireFromString("1.50"), IsInStock: true, IsForSale: true, ExpireDate: expire.Add(time.Hour), Category: catalog.CategoryCandy},
		{Id: id(4), Name: "Cola", Description: &fresh, Price: decimal.RequireFromString("0.99"), IsInStock: true, ExpireDate: expire, Category: catalog.CategoryDrink},
		{Id: id(5), Name: "Mars", Price: decimal.RequireFromString("1.20"), IsForSale: true, ExpireDate: expire, Category: catalog.CategoryCandy},
	}
}

func id(n byte) uuid.UUID {
	var u uuid.UUID
	u[15] = n
	return u
}
