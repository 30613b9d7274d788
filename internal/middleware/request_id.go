package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const RequestIdKey contextKey = "request_id"

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestID берёт X-Request-ID клиента или выдаёт новый UUIDv7.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get(requestIDHeader)
		if !validRequestID(requestId) {
			requestId = newRequestID()
		}

		w.Header().Set(requestIDHeader, requestId)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), RequestIdKey, requestId)))
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

// чужой id попадает в логи и заголовки, поэтому только печатный ASCII без пробелов
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
