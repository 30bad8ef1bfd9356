package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/redis/go-redis/v9"
)

// Revoker keeps signed-out token ids in Redis until they would have
// expired anyway.
type Revoker struct {
	rdb    *redis.Client
	prefix string
}

func NewRevoker(rdb *redis.Client, prefix string) *Revoker {
	return &Revoker{rdb: rdb, prefix: prefix}
}

func (r *Revoker) key(jti string) string { return fmt.Sprintf("%s:revoked:%s", r.prefix, jti) }

func (r *Revoker) Revoke(ctx context.Context, c *Claims) error {
	ttl := time.Minute
	if c.ExpiresAt != nil {
		ttl = time.Until(c.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, r.key(c.ID), c.UserID, ttl).Err(); err != nil {
		return errs.NewStoreError(errs.StoreNetwork, "tokens.revoke", err)
	}
	return nil
}

func (r *Revoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, errs.NewStoreError(errs.StoreNetwork, "tokens.check", err)
	}
	return n > 0, nil
}
