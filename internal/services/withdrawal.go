package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

// WithdrawalStore persists withdrawal requests.
type WithdrawalStore interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.WithdrawalStatus, walletEntryID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error)
}

// WithdrawalService moves a withdrawal through Pending, Processing and Complete or
// Cancelled. Every transition runs under the user's lock, and its transfer and
// status write commit in one transaction.
type WithdrawalService struct {
	ledger      *Ledger
	accounts    AccountStore
	withdrawals WithdrawalStore
	tx          TxManager
	locker      Locker
	lockTTL     time.Duration
}

func NewWithdrawalService(
	ledger *Ledger,
	accounts AccountStore,
	withdrawals WithdrawalStore,
	tx TxManager,
	locker Locker,
	lockTTL time.Duration,
) *WithdrawalService {
	return &WithdrawalService{
		ledger:      ledger,
		accounts:    accounts,
		withdrawals: withdrawals,
		tx:          tx,
		locker:      locker,
		lockTTL:     lockTTL,
	}
}

// Request moves amount from the user's Withdrawable account to Escrow and records a
// Pending request to be paid out through provider.
func (s *WithdrawalService) Request(
	ctx context.Context,
	userID uuid.UUID,
	amount decimal.Decimal,
	currency, provider, externalRef string,
) (*models.WithdrawalRequest, error) {
	var problems []string
	if !amount.IsPositive() {
		problems = append(problems, "amount must be positive")
	}
	currency, err := normalizeCurrency(currency)
	var invalid *errs.ValidationError
	if errors.As(err, &invalid) {
		problems = append(problems, invalid.Problems...)
	}
	if !models.IsProviderWallet(provider) {
		problems = append(problems, fmt.Sprintf("unknown payment provider %q", provider))
	}
	if len(problems) > 0 {
		return nil, errs.NewValidationError(problems...)
	}

	return WithLock(ctx, s.locker, UserLockKey(userID), s.lockTTL, func(ctx context.Context) (*models.WithdrawalRequest, error) {
		var request *models.WithdrawalRequest
		err := s.tx.Do(ctx, func(ctx context.Context) error {
			source, err := s.accounts.GetByOwnerAndName(ctx, models.OwnerUser, userID, models.AccountWithdrawable, currency)
			if err != nil {
				return err
			}
			if !source.CanAbsorb(amount.Neg()) {
				return &errs.InsufficientFundsError{
					AccountID: source.ID,
					Name:      source.Name,
					Balance:   source.Balance,
					Delta:     amount.Neg(),
				}
			}

			entry, err := s.ledger.Transfer(amount, currency).
				Purpose(models.PurposeWithdrawal).
				RequestedBy(models.RequesterUser, userID.String()).
				ExternalRef(externalRef).
				FromUser(userID, models.AccountWithdrawable).
				ToUser(userID, models.AccountEscrow).
				Commit(ctx)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			request = &models.WithdrawalRequest{
				ID:            uuid.New(),
				UserID:        userID,
				Amount:        amount,
				CurrencyCode:  source.CurrencyCode,
				Provider:      provider,
				Status:        models.WithdrawalPending,
				WalletEntryID: entry.ID,
				ExternalRef:   externalRef,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			return s.withdrawals.Create(ctx, request)
		})
		if err != nil {
			logger.Log.Errorw("withdrawal request failed", "user_id", userID, "amount", amount, "currency", currency, "error", err)
			return nil, err
		}

		logger.Log.Infow("withdrawal requested", "withdrawal_id", request.ID, "user_id", userID, "amount", amount, "currency", currency)
		return request, nil
	})
}

// Advance moves a Pending request to Processing. No money moves.
func (s *WithdrawalService) Advance(ctx context.Context, id uuid.UUID, by Requester) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, id, "advance", by, WithdrawalsLockKey, func(ctx context.Context, w *models.WithdrawalRequest) (models.WithdrawalStatus, uuid.UUID, error) {
		if w.Status != models.WithdrawalPending {
			return "", uuid.Nil, invalidTransition(w, models.WithdrawalProcessing)
		}
		return models.WithdrawalProcessing, w.WalletEntryID, nil
	})
}

// Complete pays the escrowed amount out to the provider wallet.
func (s *WithdrawalService) Complete(ctx context.Context, id uuid.UUID, by Requester) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, id, "complete", by, UserLockKey, func(ctx context.Context, w *models.WithdrawalRequest) (models.WithdrawalStatus, uuid.UUID, error) {
		if w.Status != models.WithdrawalProcessing && w.Status != models.WithdrawalPending {
			return "", uuid.Nil, invalidTransition(w, models.WithdrawalComplete)
		}
		entry, err := s.ledger.Transfer(w.Amount, w.CurrencyCode).
			Purpose(models.PurposeWithdrawal).
			RequestedBy(by.Type, by.ID).
			ExternalRef(w.ExternalRef).
			LinkedTo(w.WalletEntryID).
			FromUser(w.UserID, models.AccountEscrow).
			ToPlatform(w.Provider).
			Commit(ctx)
		if err != nil {
			return "", uuid.Nil, err
		}
		return models.WithdrawalComplete, entry.ID, nil
	})
}

// Cancel returns the escrowed amount to the user's Withdrawable account.
func (s *WithdrawalService) Cancel(ctx context.Context, id uuid.UUID, by Requester) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, id, "cancel", by, UserLockKey, func(ctx context.Context, w *models.WithdrawalRequest) (models.WithdrawalStatus, uuid.UUID, error) {
		if w.Status != models.WithdrawalPending && w.Status != models.WithdrawalProcessing {
			return "", uuid.Nil, invalidTransition(w, models.WithdrawalCancelled)
		}
		entry, err := s.ledger.Transfer(w.Amount, w.CurrencyCode).
			Purpose(models.PurposeRefund).
			RequestedBy(by.Type, by.ID).
			ExternalRef(w.ExternalRef).
			LinkedTo(w.WalletEntryID).
			FromUser(w.UserID, models.AccountEscrow).
			ToUser(w.UserID, models.AccountWithdrawable).
			Commit(ctx)
		if err != nil {
			return "", uuid.Nil, err
		}
		return models.WithdrawalCancelled, entry.ID, nil
	})
}

// Revert takes a Complete request back to Processing by reversing the payout.
func (s *WithdrawalService) Revert(ctx context.Context, id uuid.UUID, by Requester) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, id, "revert", by, UserLockKey, func(ctx context.Context, w *models.WithdrawalRequest) (models.WithdrawalStatus, uuid.UUID, error) {
		if w.Status != models.WithdrawalComplete {
			return "", uuid.Nil, invalidTransition(w, models.WithdrawalProcessing)
		}
		transfer, err := s.ledger.Reverse(ctx, w.WalletEntryID, by, "withdrawal reverted to processing")
		if err != nil {
			return "", uuid.Nil, err
		}
		return models.WithdrawalProcessing, transfer.Primary().ID, nil
	})
}

// Processing moves a request to Processing from wherever that is possible:
// Advance from Pending, Revert from Complete.
func (s *WithdrawalService) Processing(ctx context.Context, id uuid.UUID, by Requester) (*models.WithdrawalRequest, error) {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status == models.WithdrawalComplete {
		return s.Revert(ctx, id, by)
	}
	return s.Advance(ctx, id, by)
}

// Get returns one request.
func (s *WithdrawalService) Get(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return s.withdrawals.GetByID(ctx, id)
}

// ListForUser returns the user's requests, newest first.
func (s *WithdrawalService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	return s.withdrawals.ListByUser(ctx, userID)
}

type transitionFunc func(ctx context.Context, w *models.WithdrawalRequest) (models.WithdrawalStatus, uuid.UUID, error)

// transition locks the owner, re-reads the request under a row lock and commits the
// transfer made by apply together with the new status. Transitions that move no money
// lock only the owner's withdrawal bookkeeping; the row lock orders them against the rest.
func (s *WithdrawalService) transition(
	ctx context.Context,
	id uuid.UUID,
	name string,
	by Requester,
	lockKey func(uuid.UUID) string,
	apply transitionFunc,
) (*models.WithdrawalRequest, error) {
	current, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return WithLock(ctx, s.locker, lockKey(current.UserID), s.lockTTL, func(ctx context.Context) (*models.WithdrawalRequest, error) {
		var updated *models.WithdrawalRequest
		err := s.tx.Do(ctx, func(ctx context.Context) error {
			w, err := s.withdrawals.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			status, entryID, err := apply(ctx, w)
			if err != nil {
				return err
			}
			if err := s.withdrawals.UpdateStatus(ctx, id, status, entryID); err != nil {
				return err
			}
			w.Status = status
			w.WalletEntryID = entryID
			w.UpdatedAt = time.Now().UTC()
			updated = w
			return nil
		})
		if err != nil {
			logger.Log.Errorw("withdrawal transition failed", "withdrawal_id", id, "transition", name, "error", err)
			return nil, err
		}

		logger.Log.Infow("withdrawal transitioned",
			"withdrawal_id", id,
			"transition", name,
			"status", updated.Status,
			"requester_type", by.Type,
			"requester_id", by.ID,
		)
		return updated, nil
	})
}

func invalidTransition(w *models.WithdrawalRequest, to models.WithdrawalStatus) error {
	return fmt.Errorf("withdrawal %s from %s to %s: %w", w.ID, w.Status, to, errs.ErrInvalidTransition)
}
