package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// CategoryAll selects every product when filtering by category.
const CategoryAll = "All"

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
	Rating      *Rating
}

// Clone returns a copy of p that shares no memory with it.
func (p Product) Clone() Product {
	if p.Rating != nil {
		r := *p.Rating
		p.Rating = &r
	}
	return p
}

// Rating holds the aggregated customer rating of a product.
type Rating struct {
	Rate  decimal.Decimal
	Count int
}

// Catalog defines read operations for the product catalog.
type Catalog interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
}
