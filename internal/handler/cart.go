package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/cart"
)

// GetCart returns the line items with their subtotals, the total price and
// the total item count.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.session.Cart()
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, c)
}

// AddCartItem adds a catalog product to the cart. The body is
// {"productId": 1, "quantity": 2}; quantity defaults to 1.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.session.Cart()
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		productID    int64
		hasProductID bool
		quantity     = 1
	)
	if err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Int64()
			hasProductID = true
		case "quantity":
			quantity, err = d.Int()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if !hasProductID {
		writeError(w, r, badRequest("productId is required"))
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("cart.quantity", quantity),
	)

	p, err := h.catalog.GetByID(r.Context(), productID)
	if err != nil {
		writeError(w, r, errors.Wrap(err, "get product"))
		return
	}
	if err := c.AddItem(*p, quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, c)
}

// UpdateCartItem sets the quantity of a line item from {"quantity": n}.
// A quantity of zero or less removes the item.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.session.Cart()
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		quantity    int
		hasQuantity bool
	)
	if err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		hasQuantity = true
		var err error
		quantity, err = d.Int()
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if !hasQuantity {
		writeError(w, r, badRequest("quantity is required"))
		return
	}

	if err := c.UpdateQuantity(id, quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, c)
}

// RemoveCartItem drops a line item. Unknown ids are not an error.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.session.Cart()
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.RemoveItem(id)
	h.writeCart(w, c)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.session.Cart()
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.Clear()
	h.writeCart(w, c)
}

func (h *Handler) writeCart(w http.ResponseWriter, c *cart.Engine) {
	items := c.Items()
	total, count := cart.Totals(items)

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, li := range items {
		e.ObjStart()
		e.FieldStart("product")
		h.encodeProduct(&e, li.Product)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.FieldStart("subtotal")
		e.Num(jx.Num(li.Subtotal().StringFixed(2)))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Num(jx.Num(total.StringFixed(2)))
	e.FieldStart("itemCount")
	e.Int(count)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}
