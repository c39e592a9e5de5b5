package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request identifier in both directions.
const HeaderRequestID = "X-Request-ID"

const contextKeyRequestID contextKey = "launchpad.request_id"

// RequestID reuses a well-formed inbound X-Request-ID or mints a new UUID,
// echoes it on the response and stores it in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	})
}

// RequestIDFrom returns the request identifier stored by RequestID.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}
