package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/session"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// Absolute image URLs are returned unchanged.
	ImageBaseURL string
}

// Handler serves the storefront JSON API, delegating to the catalog, the
// user directory and the current session's cart.
type Handler struct {
	catalog      product.Catalog
	users        *auth.Service
	session      *session.Session
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	catalog product.Catalog,
	users *auth.Service,
	sess *session.Session,
) *Handler {
	return &Handler{
		catalog:      catalog,
		users:        users,
		session:      sess,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts all API routes under /api on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.RemoveCartItem)

	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/profile", h.GetProfile)
	mux.HandleFunc("PATCH /api/profile", h.UpdateProfile)
}

// requestError is a malformed request, reported as 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

// decodeObject decodes a JSON object request body, calling fn per field.
func decodeObject(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := jx.Decode(body, 512)
	if err := d.Obj(fn); err != nil {
		return badRequest("invalid request body: %s", err)
	}
	return nil
}

// optString decodes a string or null field into a pointer.
func optString(d *jx.Decoder) (*string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Best effort: the status code is already written.
	_, _ = w.Write(e.Bytes())
}

func (h *Handler) imageURL(image string) string {
	if h.imageBaseURL == "" || strings.Contains(image, "://") {
		return image
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(image, "/")
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	p.Image = h.imageURL(p.Image)
	product.Encode(e, p)
}
