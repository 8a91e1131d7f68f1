package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
)

// EncodeItems serializes line items as a JSON array of
// {"product": {...}, "quantity": n} objects.
func EncodeItems(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, li := range items {
		e.ObjStart()
		e.FieldStart("product")
		product.Encode(&e, li.Product)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeItems parses a blob produced by EncodeItems. Entries outside the
// quantity bounds or repeating a product id make the whole blob invalid.
func DecodeItems(data []byte) ([]LineItem, error) {
	items := []LineItem{}
	seen := make(map[int64]struct{})

	d := jx.DecodeBytes(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var (
			li         LineItem
			hasProduct bool
		)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "product":
				p, err := product.Decode(d)
				if err != nil {
					return errors.Wrap(err, "product")
				}
				li.Product = p
				hasProduct = true
				return nil
			case "quantity":
				q, err := d.Int()
				if err != nil {
					return errors.Wrap(err, "quantity")
				}
				li.Quantity = q
				return nil
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}

		if !hasProduct {
			return errors.Errorf("line item #%d has no product", len(items))
		}
		if li.Quantity < 1 || li.Quantity > MaxQuantity {
			return &QuantityError{ProductID: li.Product.ID, Quantity: li.Quantity, Err: ErrInvalidQuantity}
		}
		if _, ok := seen[li.Product.ID]; ok {
			return errors.Errorf("duplicate line item for product %d", li.Product.ID)
		}
		seen[li.Product.ID] = struct{}{}
		items = append(items, li)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	return items, nil
}
