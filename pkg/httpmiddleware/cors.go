package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	// Origins allowed to make cross-origin requests. Empty or "*" allows any.
	Origins []string
	// MaxAge is how long browsers may cache a preflight response.
	MaxAge time.Duration
}

const (
	corsMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsHeaders = "Content-Type, " + RequestIDHeader
)

// CORS answers preflight requests and sets Access-Control-* headers on
// cross-origin requests from allowed origins.
func CORS(cfg CORSConfig) Middleware {
	anyOrigin := len(cfg.Origins) == 0
	allowed := make(map[string]struct{}, len(cfg.Origins))
	for _, o := range cfg.Origins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			if !anyOrigin {
				h.Add("Vary", "Origin")
			}
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			_, ok := allowed[strings.ToLower(origin)]
			switch {
			case anyOrigin:
				h.Set("Access-Control-Allow-Origin", "*")
			case ok:
				h.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
				next.ServeHTTP(w, r)
				return
			}

			// Preflight.
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			if anyOrigin || ok {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", maxAge)
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
