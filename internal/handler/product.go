package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListProducts returns the catalog, optionally filtered by the category
// query parameter.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	products, err := h.catalog.ListByCategory(r.Context(), category)
	if err != nil {
		writeError(w, r, errors.Wrap(err, "list products"))
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, p := range products {
		h.encodeProduct(&e, p)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int64("product.id", id))

	p, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, errors.Wrap(err, "get product"))
		return
	}

	var e jx.Encoder
	h.encodeProduct(&e, *p)
	writeJSON(w, http.StatusOK, &e)
}
