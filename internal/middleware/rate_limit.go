package middleware

import (
	"encoding/json"
	"kanbanBoard/internal/logger"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

type window struct {
	count   int
	resetAt time.Time
}

// limiter считает запросы с одного IP в фиксированном окне.
type limiter struct {
	mtx       sync.Mutex
	limit     int
	period    time.Duration
	clients   map[string]*window
	nextSweep time.Time
	now       func() time.Time
}

func newLimiter(limit int, period time.Duration) *limiter {
	return &limiter{
		limit:   limit,
		period:  period,
		clients: make(map[string]*window),
		now:     time.Now,
	}
}

// allow возвращает остаток и момент сброса окна. ok=false - лимит исчерпан.
func (l *limiter) allow(ip string) (remaining int, resetAt time.Time, ok bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	now := l.now()
	l.sweep(now)

	w, exists := l.clients[ip]
	if !exists || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.clients[ip] = w
	}

	if w.count >= l.limit {
		return 0, w.resetAt, false
	}
	w.count++
	return l.limit - w.count, w.resetAt, true
}

// sweep раз в период выбрасывает истёкшие окна, иначе карта растёт с каждым новым IP
func (l *limiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for ip, w := range l.clients {
		if now.After(w.resetAt) {
			delete(l.clients, ip)
		}
	}
	l.nextSweep = now.Add(l.period)
}

// RateLimit ограничивает число запросов в минуту с одного IP, rpm <= 0 отключает лимит.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	if rpm <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(rpm, time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIp(r)
			remaining, resetAt, ok := l.allow(ip)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := int(time.Until(resetAt).Seconds()) + 1
				logger.Warn("HTTP: Превышен лимит запросов",
					zap.String("client_ip", ip),
					zap.String("request_id", GetRequestID(r.Context())))

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":   "RATE_LIMITED",
					"message": "Слишком много запросов. Попробуйте позже.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
