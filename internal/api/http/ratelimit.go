package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP to perMinute, with a burst of
// the same size. Idle clients are forgotten on later calls.
func RateLimiter(perMinute int) func(http.Handler) http.Handler {
	var (
		mu        sync.Mutex
		visitors  = map[string]*visitor{}
		lastPrune time.Time
	)
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	const idle = 3 * time.Minute

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			now := time.Now()

			mu.Lock()
			if now.Sub(lastPrune) > time.Minute {
				for ip, v := range visitors {
					if now.Sub(v.lastSeen) > idle {
						delete(visitors, ip)
					}
				}
				lastPrune = now
			}
			v, ok := visitors[key]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(limit, perMinute)}
				visitors[key] = v
			}
			v.lastSeen = now
			mu.Unlock()

			if !v.limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
