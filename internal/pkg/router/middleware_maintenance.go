package router

import (
	"net/http"

	"github.com/jobboard/verification/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the route patterns listed under
// app.maintenance.endpoints, e.g. to pause issuing while a provider is
// rotated without also blocking verify.
func middlewareMaintenance(cfg config.Config) Middleware {
	blocked := make(map[string]struct{})
	if cfg != nil {
		for _, route := range cfg.GetArray("app.maintenance.endpoints") {
			blocked[route] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(blocked) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := blocked[matchedRoutePath(r)]; ok {
				w.Header().Set("Retry-After", retryAfterSeconds)
				writeJSON(w, errorResponse{
					Message: "service is under maintenance",
					Error:   map[string]string{"reason": "MAINTENANCE"},
				}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
