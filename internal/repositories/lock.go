package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
)

// Only the holder of the token may release or extend a lease.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
)

var errLockHeld = errors.New("lock held by another owner")

// RedisLocker provides per-key mutual exclusion across every process sharing the Redis instance.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	wait   time.Duration
}

// NewRedisLocker creates a locker. Keys are stored as prefix+key; Acquire waits up to wait
// for a held key to be released.
func NewRedisLocker(client redis.UniversalClient, prefix string, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix, wait: wait}
}

// Acquire takes the lease on key for ttl and returns the owner token.
// While another owner holds the key it retries with exponential backoff until the
// wait budget runs out, then fails with a ConcurrencyError.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = l.wait

	attempts := 0
	operation := func() error {
		attempts++
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			logger.Log.Warnw("lock acquire failed", "key", fullKey, "attempt", attempts, "error", err)
			return err
		}
		if !ok {
			return errLockHeld
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		logger.Log.Infow("lock not acquired", "key", fullKey, "attempts", attempts, "error", err)
		if ctx.Err() != nil {
			return "", &errs.ConcurrencyError{Key: key, Reason: ctx.Err().Error()}
		}
		return "", &errs.ConcurrencyError{
			Key:    key,
			Reason: fmt.Sprintf("lock wait timed out after %s: %v", l.wait, err),
		}
	}

	logger.Log.Debugw("lock acquired", "key", fullKey, "ttl", ttl, "attempts", attempts)
	return token, nil
}

// Release frees the lease. A lease that already expired or was taken over is reported
// as a ConcurrencyError.
func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	fullKey := l.prefix + key
	n, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int64()
	logger.Log.Debugw("lock release", "key", fullKey, "result", n, "error", err)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	if n == 0 {
		return &errs.ConcurrencyError{Key: key, Reason: "lease lost before release"}
	}
	return nil
}

// Extend pushes the lease expiry to ttl from now.
func (l *RedisLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) error {
	fullKey := l.prefix + key
	n, err := extendScript.Run(ctx, l.client, []string{fullKey}, token, ttl.Milliseconds()).Int64()
	logger.Log.Debugw("lock extend", "key", fullKey, "ttl", ttl, "result", n, "error", err)
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", key, err)
	}
	if n == 0 {
		return &errs.ConcurrencyError{Key: key, Reason: "lease lost before extend"}
	}
	return nil
}
