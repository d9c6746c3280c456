package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jobboard/verification/internal/pkg/instrument"
	"github.com/jobboard/verification/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into the standard 500 envelope.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel compared by identity
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			ctx := r.Context()
			stack := debug.Stack()
			attrs := []any{"panic", rvr, "cID", instrument.GetCorrelationID(ctx), "route", matchedRoutePath(r)}
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				attrs = append(attrs, "stack", paths)
			} else {
				attrs = append(attrs, "stack", string(stack))
			}
			slog.ErrorContext(ctx, "recovered from handler panic", attrs...)

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
