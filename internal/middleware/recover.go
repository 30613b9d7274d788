package middleware

import (
	"encoding/json"
	"kanbanBoard/internal/logger"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// Recoverer превращает панику обработчика в обезличенный 500.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.Log(zap.ErrorLevel, "HTTP: Паника в обработчике",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
		}()

		next.ServeHTTP(w, r)
	})
}
