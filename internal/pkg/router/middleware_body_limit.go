package router

import (
	"net/http"

	"github.com/jobboard/verification/internal/pkg/config"
)

const defaultMaxBodyBytes = 64 * 1024

func middlewareBodyLimit(cfg config.Config) Middleware {
	limit := int64(defaultMaxBodyBytes)
	if cfg != nil {
		if v := cfg.GetInt("app.server.http.max_body_bytes"); v > 0 {
			limit = int64(v)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
