package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
	"github.com/noah-isme/persona-chat-api/pkg/response"
)

// KeyFunc derives the bucket key for a request.
type KeyFunc func(c *gin.Context) string

// SkipFunc returns true for requests that bypass the limit.
type SkipFunc func(c *gin.Context) bool

// Rule names one fixed-window budget.
type Rule struct {
	Name    string
	Max     int
	Window  time.Duration
	Key     KeyFunc
	Skip    SkipFunc
	Message string
}

// INCR and PEXPIRE run atomically so the window starts at the first hit.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// KeyByIP buckets by client IP.
func KeyByIP(prefix string) KeyFunc {
	return func(c *gin.Context) string {
		return "rl:" + prefix + ":ip:" + clientIP(c)
	}
}

// KeyByIPAndPath buckets by client IP and matched route.
func KeyByIPAndPath(prefix string) KeyFunc {
	return func(c *gin.Context) string {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		return "rl:" + prefix + ":path:" + path + ":ip:" + clientIP(c)
	}
}

// SkipPaths bypasses the limiter for exact request paths.
func SkipPaths(paths ...string) SkipFunc {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(c *gin.Context) bool {
		_, ok := set[c.Request.URL.Path]
		return ok
	}
}

// Middleware enforces rule against Redis. A nil client or a Redis failure lets the request through.
func Middleware(rdb *redis.Client, rule Rule, logger *zap.Logger) gin.HandlerFunc {
	if rdb == nil || rule.Max <= 0 || rule.Window <= 0 || rule.Key == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limitErr := appErrors.ErrRateLimited
	if rule.Message != "" {
		limitErr = appErrors.Clone(appErrors.ErrRateLimited, rule.Message)
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (rule.Skip != nil && rule.Skip(c)) {
			c.Next()
			return
		}

		key := rule.Key(c)
		res, err := incrExpireScript.Run(c.Request.Context(), rdb, []string{key}, rule.Window.Milliseconds()).Slice()
		if err != nil || len(res) != 2 {
			logger.Warn("rate limiter unavailable", zap.String("rule", rule.Name), zap.Error(err))
			c.Next()
			return
		}

		count := toInt(res[0])
		resetSec := (toInt(res[1]) + 999) / 1000
		if resetSec < 0 {
			resetSec = 0
		}

		remaining := rule.Max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > rule.Max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			logger.Info("rate limit exceeded", zap.String("rule", rule.Name), zap.String("ip", clientIP(c)))
			response.Abort(c, limitErr)
			return
		}
		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}
