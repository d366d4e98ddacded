package handlers

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// incrExpireScript increments the window counter and starts its TTL on the
// first hit, atomically.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

const contextPeerAddrKey contextKey = "peer"

// CapturePeer records the connection's remote address before
// middleware.RealIP replaces it with a client-supplied header value. It must
// run ahead of RealIP.
func CapturePeer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), contextPeerAddrKey, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimitStore is the subset of the Redis client the limiter needs.
type RateLimitStore interface {
	redis.Scripter
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimit applies a fixed-window limit per connection peer and path. The
// peer is the address captured by CapturePeer, so forwarding headers cannot
// open a new window. A nil
// store disables limiting; Redis errors let the request through.
func RateLimit(rdb RateLimitStore, max int, window time.Duration, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	if rdb == nil || max <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := rateLimitKey(r)
			count, err := incrExpireScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int()
			if err != nil {
				logger.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			resetSec := 0
			if ttl, err := rdb.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
				resetSec = int((ttl + time.Second - 1) / time.Second)
			}

			remaining := max - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

			if count > max {
				if resetSec > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(resetSec))
				}
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	addr, ok := r.Context().Value(contextPeerAddrKey).(string)
	if !ok {
		addr = r.RemoteAddr
	}
	ip := strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip == "" {
		ip = "unknown"
	}
	return "rl:path:" + r.URL.Path + ":ip:" + ip
}
