package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
	appLogger "github.com/MHafidafandi/sipeduli-console/internal/infra/logger"
)

const rateLimitedMessage = "Terlalu banyak percobaan. Coba lagi nanti."

// IdentifierFunc extracts the identifier a limit is counted against.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule is a sliding-window limit.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces sliding-window limits backed by a port.RateLimitStore.
type RateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// RateLimitedResponse is the body of a 429. It carries the same error field as every other
// console error so the dashboard can show it as a toast.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

type window struct {
	allowed    bool
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

// NewRateLimiter builds a limiter. A nil store disables limiting.
func NewRateLimiter(store port.RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{store: store, logger: logger, now: time.Now}
}

// WithClock replaces the time source.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier counts attempts per client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// RateLimit enforces rule. Store failures let the request through.
func (rl *RateLimiter) RateLimit(rule RateLimitRule) gin.HandlerFunc {
	if rule.Name == "" {
		rule.Name = "default"
	}
	active := rl.store != nil && rule.Identifier != nil && rule.Limit > 0 && rule.Window > 0

	return func(c *gin.Context) {
		if !active {
			c.Next()
			return
		}

		identifier, ok := rule.Identifier(c)
		if !ok {
			c.Next()
			return
		}

		key := rule.Name + ":" + identifier
		res, err := rl.evaluate(c, rule, key)
		if err != nil {
			rl.logger.Warn("rate limit check failed",
				zap.String("rule", rule.Name),
				zap.String("identifier", appLogger.MaskIP(identifier)),
				zap.Error(err),
			)
			c.Next()
			return
		}

		headers := c.Writer.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(res.remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.reset.Unix(), 10))

		if res.allowed {
			c.Next()
			return
		}

		seconds := int(math.Ceil(res.retryAfter.Seconds()))
		headers.Set("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, RateLimitedResponse{
			Error:      rateLimitedMessage,
			RetryAfter: seconds,
			TraceID:    GetTraceID(c),
		})
	}
}

func (rl *RateLimiter) evaluate(c *gin.Context, rule RateLimitRule, key string) (window, error) {
	ctx := c.Request.Context()
	now := rl.now()

	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return window{}, err
	}
	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return window{}, err
	}
	oldest, hasAttempts, err := rl.store.OldestAttempt(ctx, key, rule.Window, now)
	if err != nil {
		return window{}, err
	}

	res := window{reset: now.Add(rule.Window)}
	if hasAttempts {
		res.reset = oldest.Add(rule.Window)
	}
	res.retryAfter = res.reset.Sub(now)
	if res.retryAfter < 0 {
		res.retryAfter = 0
	}

	if count >= rule.Limit {
		return res, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return window{}, err
	}
	res.allowed = true
	res.remaining = rule.Limit - count - 1
	return res, nil
}
