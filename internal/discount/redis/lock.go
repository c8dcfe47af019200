package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultLockTTL = 30 * time.Second

type Redis struct {
	Client *redis.Client
	Logger *log.Logger
	// LockTTL bounds how long a redemption lock outlives a crashed holder.
	LockTTL time.Duration
}

func NewRedis(client *redis.Client, lockTTL time.Duration) *Redis {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Redis{
		Client:  client,
		Logger:  log.Default(),
		LockTTL: lockTTL,
	}
}

// LockCode takes a short-lived lock on a discount code while its redemption
// is being recorded. Returns false when another order holds the lock.
func (r *Redis) LockCode(code, orderID string) (bool, error) {
	key := "redeem_lock:" + code
	ok, err := r.Client.SetNX(context.Background(), key, orderID, r.LockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to lock code %s: %w", code, err)
	}
	return ok, nil
}

// UnlockCode releases the lock, but only if this order still owns it. A
// lock that expired and was re-taken by another order is left alone.
func (r *Redis) UnlockCode(code, orderID string) error {
	ctx := context.Background()
	key := "redeem_lock:" + code

	holder, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read lock for code %s: %w", code, err)
	}
	if holder != orderID {
		r.Logger.Println("REDIS: redemption lock for " + code + " held by another order, not releasing")
		return nil
	}

	if err := r.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release lock for code %s: %w", code, err)
	}
	return nil
}
