package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORS applies the configured cross-origin policy.
//
// Preflight requests (OPTIONS carrying Access-Control-Request-Method) are
// answered directly: 204 for an allowed origin, 403 otherwise. Other requests
// always reach next; only allowed origins receive the Allow-* headers.
func CORS(cfg *CORSConfig) Func {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || len(cfg.Origins) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			allowed := slices.Contains(cfg.Origins, origin) || slices.Contains(cfg.Origins, "*")

			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
