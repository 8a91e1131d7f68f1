// Package cart implements the shopping cart state engine: line item
// bookkeeping with quantity bounds, derived totals and best-effort
// persistence of the whole cart to a key-value store.
package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// MaxQuantity is the upper bound for the quantity of a single line item.
const MaxQuantity = 99

// StorageKey is the key the whole cart is persisted under.
const StorageKey = "cart:items"

var (
	// ErrInvalidQuantity is returned when a requested quantity is not
	// positive or exceeds MaxQuantity on a direct set.
	ErrInvalidQuantity = errors.Errorf("quantity must be between 1 and %d", MaxQuantity)
	// ErrQuantityLimitExceeded is returned when merging into an existing
	// line item would push its quantity past MaxQuantity.
	ErrQuantityLimitExceeded = errors.Errorf("total quantity cannot exceed %d", MaxQuantity)
	// ErrStorage marks persistence failures. The engine never returns it
	// from cart operations; it is reported by Flush and Close.
	ErrStorage = errors.New("cart storage")
	// ErrKeyNotFound is returned by a Store when the key has no value.
	ErrKeyNotFound = errors.New("key not found")
	// ErrClosed is returned by Flush when the engine was closed with
	// unsaved changes.
	ErrClosed = errors.New("cart engine closed")
)

// QuantityError describes a rejected quantity change. It unwraps to
// ErrInvalidQuantity or ErrQuantityLimitExceeded.
type QuantityError struct {
	ProductID int64
	Quantity  int
	Err       error
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("product %d: quantity %d: %v", e.ProductID, e.Quantity, e.Err)
}

func (e *QuantityError) Unwrap() error {
	return e.Err
}

// LineItem pairs a product with the quantity held in the cart.
type LineItem struct {
	Product  product.Product
	Quantity int
}

// Subtotal returns price multiplied by quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Store is the key-value persistence collaborator of the engine.
// Get returns ErrKeyNotFound when nothing is stored under key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Totals returns the total price and the total quantity of items.
func Totals(items []LineItem) (decimal.Decimal, int) {
	total := decimal.Zero
	var count int
	for _, li := range items {
		total = total.Add(li.Subtotal())
		count += li.Quantity
	}
	return total, count
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, li := range items {
		li.Product = li.Product.Clone()
		out[i] = li
	}
	return out
}
