package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

// PaymentService books deposits, purchases, subscriptions and refunds for a user.
type PaymentService struct {
	ledger   *Ledger
	accounts AccountStore
	locker   Locker
	lockTTL  time.Duration
}

func NewPaymentService(ledger *Ledger, accounts AccountStore, locker Locker, lockTTL time.Duration) *PaymentService {
	return &PaymentService{ledger: ledger, accounts: accounts, locker: locker, lockTTL: lockTTL}
}

// Deposit credits money received by provider to the user's Withdrawable account.
func (s *PaymentService) Deposit(
	ctx context.Context,
	userID uuid.UUID,
	amount decimal.Decimal,
	currency, provider, externalRef string,
) (*models.WalletEntry, error) {
	if !models.IsProviderWallet(provider) {
		return nil, errs.NewValidationError(fmt.Sprintf("unknown payment provider %q", provider))
	}
	return s.commit(ctx, userID, "deposit", func(ctx context.Context) (*models.WalletEntry, error) {
		return s.ledger.Transfer(amount, currency).
			Purpose(models.PurposeDeposit).
			RequestedBy(models.RequesterUser, userID.String()).
			ExternalRef(externalRef).
			FromPlatform(provider).
			ToUser(userID, models.AccountWithdrawable).
			Commit(ctx)
	})
}

// Purchase pays the platform from the user's Withdrawable account.
func (s *PaymentService) Purchase(
	ctx context.Context,
	userID uuid.UUID,
	amount decimal.Decimal,
	currency, externalRef string,
) (*models.WalletEntry, error) {
	return s.commit(ctx, userID, "purchase", func(ctx context.Context) (*models.WalletEntry, error) {
		return s.ledger.Transfer(amount, currency).
			Purpose(models.PurposePurchase).
			RequestedBy(models.RequesterUser, userID.String()).
			ExternalRef(externalRef).
			FromUser(userID, models.AccountWithdrawable).
			ToPlatform(models.WalletCorporate).
			Commit(ctx)
	})
}

// Subscribe sets money aside in the user's Subscription account.
func (s *PaymentService) Subscribe(
	ctx context.Context,
	userID uuid.UUID,
	amount decimal.Decimal,
	currency, externalRef string,
) (*models.WalletEntry, error) {
	return s.commit(ctx, userID, "subscription", func(ctx context.Context) (*models.WalletEntry, error) {
		return s.ledger.Transfer(amount, currency).
			Purpose(models.PurposeSubscription).
			RequestedBy(models.RequesterUser, userID.String()).
			ExternalRef(externalRef).
			FromUser(userID, models.AccountWithdrawable).
			ToUser(userID, models.AccountSubscription).
			Commit(ctx)
	})
}

// Refund reverses a purchase of the user. entryID is the entry returned by Purchase.
func (s *PaymentService) Refund(ctx context.Context, userID uuid.UUID, entryID uuid.UUID, by Requester) (*models.WalletEntry, error) {
	return s.commit(ctx, userID, "refund", func(ctx context.Context) (*models.WalletEntry, error) {
		entry, err := s.ledger.processor.entries.GetByID(ctx, entryID)
		if err != nil {
			return nil, err
		}
		if entry.Purpose != models.PurposePurchase {
			return nil, errs.NewValidationError(fmt.Sprintf("entry %s is a %s, not a purchase", entryID, entry.Purpose))
		}
		account, err := s.accounts.GetByID(ctx, entry.AccountID)
		if err != nil {
			return nil, err
		}
		if account.OwnerType != models.OwnerUser || account.OwnerID != userID {
			return nil, errs.NewNotFoundError("purchase", entryID.String())
		}

		transfer, err := s.ledger.reverse(ctx, entryID, models.PurposeRefund, by, "purchase refunded")
		if err != nil {
			return nil, err
		}
		return transfer.Primary(), nil
	})
}

func (s *PaymentService) commit(
	ctx context.Context,
	userID uuid.UUID,
	operation string,
	fn func(ctx context.Context) (*models.WalletEntry, error),
) (*models.WalletEntry, error) {
	entry, err := WithLock(ctx, s.locker, UserLockKey(userID), s.lockTTL, fn)
	if err != nil {
		logger.Log.Errorw("payment failed", "operation", operation, "user_id", userID, "error", err)
		return nil, err
	}
	logger.Log.Infow("payment booked", "operation", operation, "user_id", userID, "transfer_id", entry.TransferID, "amount", entry.Amount.Abs())
	return entry, nil
}
