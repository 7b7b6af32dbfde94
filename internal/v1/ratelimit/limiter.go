// Package ratelimit enforces request and connection rate limits backed by an
// in-memory sliding window store.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/nultr/nultr/backend/go/internal/v1/auth"
	"github.com/nultr/nultr/backend/go/internal/v1/config"
	"github.com/nultr/nultr/backend/go/internal/v1/logging"
	"github.com/nultr/nultr/backend/go/internal/v1/metrics"
)

// RateLimiter holds one limiter per traffic class. API traffic is limited per
// client IP for anonymous calls and per bearer credential for authenticated
// ones; websocket upgrades are limited per IP and per credential.
type RateLimiter struct {
	apiPublic *limiter.Limiter
	apiUser   *limiter.Limiter
	wsIP      *limiter.Limiter
	wsUser    *limiter.Limiter
}

// New parses the configured rates ("100-M" style) and builds the limiters on
// a shared memory store. Keys carry a per-class prefix so the same IP or
// credential holds an independent budget in each class.
func New(cfg *config.Config) (*RateLimiter, error) {
	apiPublicRate, err := limiter.NewRateFromFormatted(cfg.RateLimitAPIPublic)
	if err != nil {
		return nil, fmt.Errorf("invalid API public rate: %w", err)
	}
	apiUserRate, err := limiter.NewRateFromFormatted(cfg.RateLimitAPIUser)
	if err != nil {
		return nil, fmt.Errorf("invalid API user rate: %w", err)
	}
	wsIPRate, err := limiter.NewRateFromFormatted(cfg.RateLimitWsIP)
	if err != nil {
		return nil, fmt.Errorf("invalid WS IP rate: %w", err)
	}
	wsUserRate, err := limiter.NewRateFromFormatted(cfg.RateLimitWsUser)
	if err != nil {
		return nil, fmt.Errorf("invalid WS user rate: %w", err)
	}

	store := memory.NewStore()
	return &RateLimiter{
		apiPublic: limiter.New(store, apiPublicRate),
		apiUser:   limiter.New(store, apiUserRate),
		wsIP:      limiter.New(store, wsIPRate),
		wsUser:    limiter.New(store, wsUserRate),
	}, nil
}

// APIMiddleware limits the request API. Callers presenting a bearer
// credential get the per-user rate keyed by that credential; everyone else
// shares the public per-IP rate. A failing limiter store fails open.
func (rl *RateLimiter) APIMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		inst := rl.apiPublic
		key := "api-public:" + c.ClientIP()
		limitType := "ip"
		if token, err := auth.BearerToken(c.GetHeader("Authorization")); err == nil {
			inst = rl.apiUser
			key = "api-user:" + token
			limitType = "user"
		}

		ctx := c.Request.Context()
		lctx, err := inst.Get(ctx, key)
		if err != nil {
			logging.Error(ctx, "rate limiter store failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			metrics.RateLimitExceeded.WithLabelValues(c.FullPath(), limitType).Inc()
			c.Header("Retry-After", strconv.FormatInt(lctx.Reset-time.Now().Unix(), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": lctx.Reset,
			})
			return
		}

		metrics.RateLimitRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

// WSMiddleware limits websocket upgrade attempts, first per client IP, then
// per bearer credential when one is present.
func (rl *RateLimiter) WSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		ipCtx, err := rl.wsIP.Get(ctx, "ws-ip:"+c.ClientIP())
		if err != nil {
			logging.Error(ctx, "rate limiter store failed", zap.Error(err))
			c.Next()
			return
		}
		if ipCtx.Reached {
			metrics.RateLimitExceeded.WithLabelValues("websocket_connect", "ip").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many connections from this IP",
			})
			return
		}

		if token, err := auth.BearerToken(c.GetHeader("Authorization")); err == nil {
			userCtx, err := rl.wsUser.Get(ctx, "ws-user:"+token)
			if err != nil {
				logging.Error(ctx, "rate limiter store failed", zap.Error(err))
				c.Next()
				return
			}
			if userCtx.Reached {
				metrics.RateLimitExceeded.WithLabelValues("websocket_connect", "user").Inc()
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error": "Too many connections for this user",
				})
				return
			}
		}

		metrics.RateLimitRequests.WithLabelValues("websocket_connect").Inc()
		c.Next()
	}
}
