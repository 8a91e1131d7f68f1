package handler

import (
	"net/http"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/session"
)

// writeError converts domain errors to JSON error responses of the form
// {"code":N,"message":"..."}. Unknown errors are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	var fields map[string]string

	var (
		reqErr *requestError
		vErr   *auth.ValidationError
		qErr   *cart.QuantityError
	)
	switch {
	case errors.As(err, &reqErr):
		status, msg = http.StatusBadRequest, reqErr.Error()
	case errors.As(err, &qErr):
		status, msg = http.StatusUnprocessableEntity, qErr.Err.Error()
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrQuantityLimitExceeded):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, product.ErrNotFound):
		status, msg = http.StatusNotFound, "product not found"
	case errors.As(err, &vErr):
		status, msg, fields = http.StatusUnprocessableEntity, "please fix the errors in the form", vErr.Fields
	case errors.Is(err, auth.ErrPasswordMismatch):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, auth.ErrMissingCredentials):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, session.ErrSignedOut):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, auth.ErrPhoneExists):
		status, msg = http.StatusConflict, err.Error()
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	if len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		e.FieldStart("fields")
		e.ObjStart()
		for _, name := range names {
			e.FieldStart(name)
			e.Str(fields[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()
	writeJSON(w, status, &e)
}
