package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	applog "sagradodoce/internal/log"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an id, reusing the caller's when present, and
// attaches it to the request's log context.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := applog.WithAttrs(r.Context(), "requestID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
