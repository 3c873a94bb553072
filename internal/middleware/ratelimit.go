package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/lchampz/saas-bakery/internal/logger"
)

// Limits in ulule's "<n>-<period>" format
const (
	AuthRate = "5-15M"
	APIRate  = "100-15M"
)

// RateLimit throttles per client IP. With a Redis client the counters are shared
// between instances; otherwise they live in process memory.
func RateLimit(formatted, prefix, message string, client *redis.Client, log *logger.Logger) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.Fatal("❌ Invalid rate limit", "rate", formatted, "error", err)
	}

	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix})
	if client != nil {
		rs, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
		if err != nil {
			log.Warn("⚠️ Redis rate limit store unavailable, using memory", "error", err)
		} else {
			store = rs
		}
	}

	instance := limiter.New(store, rate)
	limiterMiddleware := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
		}),
	)

	return func(c *gin.Context) {
		limiterMiddleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if c.Writer.Status() == http.StatusTooManyRequests {
			c.Abort()
			return
		}
	}
}
