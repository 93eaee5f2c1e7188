package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MaxRateLimitedBody caps the JSON body read by RateLimit. The guarded
// endpoints only take an email and a few short fields.
const MaxRateLimitedBody = 4 << 10

const rateWindow = time.Minute

// RateLimit limits requests per email (from the JSON body) or client IP to
// maxPerMin per minute, keyed under scope. It fails open when Redis is
// unavailable.
func RateLimit(cache *redis.Client, scope string, maxPerMin int) gin.HandlerFunc {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *gin.Context) {
		if cache == nil {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if c.Request.Body != nil {
			raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxRateLimitedBody))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			var req struct {
				Email string `json:"email"`
			}
			if json.Unmarshal(raw, &req) == nil && strings.TrimSpace(req.Email) != "" {
				subject = strings.ToLower(strings.TrimSpace(req.Email))
			}
		}

		ctx := c.Request.Context()
		key := "rl:" + scope + ":" + subject

		// SET NX EX starts the window with its expiry in place, so INCR can
		// never leave a counter without a TTL.
		pipe := cache.TxPipeline()
		pipe.SetNX(ctx, key, 0, rateWindow)
		cnt := pipe.Incr(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logrus.WithError(err).WithField("scope", scope).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		if cnt.Val() > int64(maxPerMin) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, try again later"})
			return
		}
		c.Next()
	}
}
