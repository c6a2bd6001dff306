// Package transaction runs units of work inside one relational transaction that
// travels through the context, so every repository call made by the unit joins it.
package transaction

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
)

// Postgres error codes that guarantee the transaction was rolled back.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type contextKey struct{}

var txKey = contextKey{}

type state struct {
	tx          *sqlx.Tx
	afterCommit []func(ctx context.Context)
}

// WithTx stores a transaction in the context
func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, &state{tx: tx})
}

// FromContext retrieves the transaction from the context. Returns nil if not present.
func FromContext(ctx context.Context) *sqlx.Tx {
	if st, ok := ctx.Value(txKey).(*state); ok {
		return st.tx
	}
	return nil
}

// AfterCommit registers fn to run once the outermost transaction in ctx commits.
// Without a transaction in ctx, fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if st, ok := ctx.Value(txKey).(*state); ok {
		st.afterCommit = append(st.afterCommit, fn)
		return
	}
	fn(ctx)
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxRetries bounds how many times a transient failure is retried.
func WithMaxRetries(n uint64) Option {
	return func(m *Manager) { m.maxRetries = n }
}

// WithBackoff sets the first and the largest pause between retries.
func WithBackoff(initial, max time.Duration) Option {
	return func(m *Manager) {
		m.initialInterval = initial
		m.maxInterval = max
	}
}

// Manager begins, commits and retries transactions.
type Manager struct {
	db              *sqlx.DB
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewManager creates a Manager with 3 retries starting at 20ms.
func NewManager(db *sqlx.DB, opts ...Option) *Manager {
	m := &Manager{
		db:              db,
		maxRetries:      3,
		initialInterval: 20 * time.Millisecond,
		maxInterval:     500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do runs fn inside a transaction. When ctx already carries one, fn joins it and
// the caller that opened it owns commit, rollback and retries.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if FromContext(ctx) != nil {
		return fn(ctx)
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		logger.Log.Warnw("transient storage failure, retrying transaction",
			"attempt", attempt,
			"error", err,
		)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.initialInterval
	policy.MaxInterval = m.maxInterval
	policy.MaxElapsedTime = 0

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, m.maxRetries), ctx))
}

// AfterCommit registers fn on the transaction carried by ctx. See the package-level AfterCommit.
func (m *Manager) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	AfterCommit(ctx, fn)
}

func (m *Manager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	st := &state{tx: tx}
	txCtx := context.WithValue(ctx, txKey, st)

	defer func() {
		if rec := recover(); rec != nil {
			_ = tx.Rollback()
			panic(rec)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Log.Errorw("failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if isRolledBack(err) {
			return fmt.Errorf("commit transaction: %w", err)
		}
		// The outcome of a commit that died on the wire is unknown; never replay it.
		return &commitError{err: err}
	}

	for _, hook := range st.afterCommit {
		hook(ctx)
	}
	return nil
}

type commitError struct {
	err error
}

func (e *commitError) Error() string { return "commit transaction: outcome unknown: " + e.err.Error() }
func (e *commitError) Unwrap() error { return e.err }

// IsTransient reports whether err is a storage failure after which the whole
// transaction can safely be replayed.
func IsTransient(err error) bool {
	if err == nil || errs.IsDomain(err) {
		return false
	}
	var ce *commitError
	if errors.As(err, &ce) {
		return false
	}
	if isRolledBack(err) {
		return true
	}
	return errors.Is(err, driver.ErrBadConn) || pgconn.SafeToRetry(err)
}

func isRolledBack(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}
	return false
}
