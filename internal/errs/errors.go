// Package errs holds the error taxonomy shared by the stores, the transfer engine
// and the workflows built on top of it.
package errs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors. Every typed error below unwraps to one of them,
// so callers can branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrConcurrency       = errors.New("concurrency conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError is returned when a transfer is committed before it is fully specified.
type ValidationError struct {
	Problems []string
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientFundsError names the account whose balance would go negative.
type InsufficientFundsError struct {
	AccountID uuid.UUID
	Name      string
	Balance   decimal.Decimal
	Delta     decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: account %s (%s) balance %s cannot absorb %s",
		ErrInsufficientFunds, e.AccountID, e.Name, e.Balance.String(), e.Delta.String())
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// NotFoundError reports an unknown account, entry or withdrawal reference.
type NotFoundError struct {
	Entity string
	Ref    string
}

func NewNotFoundError(entity, ref string) *NotFoundError {
	return &NotFoundError{Entity: entity, Ref: ref}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Ref, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CurrencyMismatchError is returned when a leg's account is held in another currency.
type CurrencyMismatchError struct {
	AccountID uuid.UUID
	Expected  string
	Actual    string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("%s: account %s holds %s, transfer is in %s",
		ErrCurrencyMismatch, e.AccountID, e.Actual, e.Expected)
}

func (e *CurrencyMismatchError) Unwrap() error { return ErrCurrencyMismatch }

// ConcurrencyError covers lock acquisition timeouts and leases lost to TTL expiry.
type ConcurrencyError struct {
	Key    string
	Reason string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s on %q: %s", ErrConcurrency, e.Key, e.Reason)
}

func (e *ConcurrencyError) Unwrap() error { return ErrConcurrency }

// IsDomain reports whether err is a business failure that must never be retried.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrConcurrency) ||
		errors.Is(err, ErrInvalidTransition)
}
