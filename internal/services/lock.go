package services

//go:generate mockgen -source=lock.go -destination=lock_mock_test.go -package=services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
)

// DefaultLockTTL bounds how long a crashed holder can block an owner.
const DefaultLockTTL = 30 * time.Second

// Locker grants exclusive, expiring leases on string keys.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) // Returns the owner token
	Release(ctx context.Context, key, token string) error                       // Frees the lease if token still owns it
	Extend(ctx context.Context, key, token string, ttl time.Duration) error     // Resets the expiry if token still owns it
}

// UserLockKey serializes every money movement of one user.
func UserLockKey(userID uuid.UUID) string {
	return "USER:" + userID.String()
}

// WithdrawalsLockKey serializes withdrawal bookkeeping of one user that does not move money.
func WithdrawalsLockKey(userID uuid.UUID) string {
	return "WITHDRAWALS:USER:" + userID.String()
}

// WithLock runs fn while holding the lease on key. The lease is released whatever fn
// returns. A lease that expired while fn was running is logged; the result of fn is
// still returned because its transaction has already committed.
func WithLock[T any](
	ctx context.Context,
	locker Locker,
	key string,
	ttl time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	token, err := locker.Acquire(ctx, key, ttl)
	if err != nil {
		logger.Log.Warnw("failed to acquire lock", "key", key, "error", err)
		return zero, err
	}

	started := time.Now()
	result, fnErr := fn(ctx)

	// release even when the caller's context is already cancelled
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := locker.Release(releaseCtx, key, token); err != nil {
		if errors.Is(err, errs.ErrConcurrency) {
			logger.Log.Errorw("lock lease lost while holding it",
				"key", key,
				"held_for", time.Since(started),
				"ttl", ttl,
				"error", err,
			)
		} else {
			logger.Log.Warnw("failed to release lock", "key", key, "error", err)
		}
	}

	return result, fnErr
}
