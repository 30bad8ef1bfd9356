package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fathima-sithara/snip/internal/auth"
	"github.com/fathima-sithara/snip/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	localUserID = "user_id"
	localClaims = "claims"
)

func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		metrics.HTTPDuration.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Observe(latency.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		}
		if err != nil {
			log.Error("http request error", append(fields, zap.Error(err))...)
			return err
		}
		log.Info("http request", fields...)
		return nil
	}
}

// Revocations is satisfied by *auth.Revoker.
type Revocations interface {
	Revoke(ctx context.Context, c *auth.Claims) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth accepts "Authorization: Bearer <token>" or, for WebSocket
// upgrades, a "token" query parameter.
func JWTAuth(tokens *auth.TokenManager, revoked Revocations, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := ""
		if h := c.Get(fiber.HeaderAuthorization); h != "" {
			scheme, tok, ok := strings.Cut(h, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization"})
			}
			raw = strings.TrimSpace(tok)
		} else {
			raw = c.Query("token")
		}
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization"})
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		if revoked != nil {
			gone, err := revoked.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				log.Error("revocation check failed", zap.Error(err))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "try again later"})
			}
			if gone {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token revoked"})
			}
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func claimsOf(c *fiber.Ctx) *auth.Claims {
	cl, _ := c.Locals(localClaims).(*auth.Claims)
	return cl
}

// RateLimiter is a fixed-window counter in Redis.
type RateLimiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
	Log    *zap.Logger
}

func NewRateLimiter(r *redis.Client, prefix string, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{Redis: r, Prefix: prefix, Limit: limit, Window: window, Log: log}
}

func (r *RateLimiter) MiddlewareByKey(keyFunc func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r == nil || r.Redis == nil || r.Limit <= 0 {
			return c.Next()
		}
		ctx := c.UserContext()
		redisKey := fmt.Sprintf("%s:ratelimit:%s", r.Prefix, keyFunc(c))
		count, err := r.Redis.Incr(ctx, redisKey).Result()
		if err != nil {
			r.Log.Error("rate limiter unavailable", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "rate limiter error"})
		}
		if count == 1 {
			r.Redis.Expire(ctx, redisKey, r.Window)
		}
		if count > int64(r.Limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
