package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

// StatementStore reads an account's entries, newest first.
type StatementStore interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.WalletEntry, error)
}

// AccountService opens accounts and reports balances. Balances only ever change
// through the Ledger.
type AccountService struct {
	accounts AccountStore
	entries  StatementStore
	tx       TxManager
}

func NewAccountService(accounts AccountStore, entries StatementStore, tx TxManager) *AccountService {
	return &AccountService{accounts: accounts, entries: entries, tx: tx}
}

// OpenUserAccounts creates the user's default accounts in currency. Existing ones are kept.
func (s *AccountService) OpenUserAccounts(ctx context.Context, userID uuid.UUID, currency string) ([]models.WalletAccount, error) {
	if userID == uuid.Nil {
		return nil, errs.NewValidationError("user id is required")
	}
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	opened := make([]models.WalletAccount, 0, len(models.DefaultUserAccounts))
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		opened = opened[:0]
		for _, name := range models.DefaultUserAccounts {
			account, err := s.accounts.Create(ctx, &models.WalletAccount{
				OwnerType:    models.OwnerUser,
				OwnerID:      userID,
				Name:         name,
				CurrencyCode: currency,
			})
			if err != nil {
				return err
			}
			opened = append(opened, *account)
		}
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to open user accounts", "user_id", userID, "currency", currency, "error", err)
		return nil, err
	}
	return opened, nil
}

// EnsurePlatformWallets creates every platform wallet in each currency. Provider
// wallets may go negative; Corporate and Prize may not.
func (s *AccountService) EnsurePlatformWallets(ctx context.Context, currencies []string) error {
	names := append([]string{models.WalletCorporate, models.WalletPrize}, models.ProviderWallets...)

	return s.tx.Do(ctx, func(ctx context.Context) error {
		for _, c := range currencies {
			currency, err := normalizeCurrency(c)
			if err != nil {
				return err
			}
			for _, name := range names {
				_, err := s.accounts.Create(ctx, &models.WalletAccount{
					OwnerType:     models.OwnerPlatform,
					OwnerID:       models.PlatformOwnerID,
					Name:          name,
					CurrencyCode:  currency,
					AllowNegative: models.IsProviderWallet(name),
				})
				if err != nil {
					return err
				}
			}
			logger.Log.Infow("platform wallets ready", "currency", currency, "wallets", len(names))
		}
		return nil
	})
}

// Balances lists the user's accounts in every currency.
func (s *AccountService) Balances(ctx context.Context, userID uuid.UUID) ([]models.AccountBalance, error) {
	accounts, err := s.accounts.GetForOwner(ctx, models.OwnerUser, userID)
	if err != nil {
		logger.Log.Errorw("failed to get user balances", "user_id", userID, "error", err)
		return nil, err
	}

	balances := make([]models.AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		balances = append(balances, models.AccountBalance{
			Name:     a.Name,
			Currency: a.CurrencyCode,
			Balance:  a.Balance,
		})
	}
	return balances, nil
}

// Statement returns the latest entries of one of the user's accounts.
// Accounts of other owners are reported as not found.
func (s *AccountService) Statement(ctx context.Context, userID, accountID uuid.UUID, limit int) ([]models.WalletEntry, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.OwnerType != models.OwnerUser || account.OwnerID != userID {
		logger.Log.Warnw("statement of a foreign account requested", "user_id", userID, "account_id", accountID)
		return nil, errs.NewNotFoundError("wallet account", accountID.String())
	}

	entries, err := s.entries.ListByAccount(ctx, accountID, limit)
	if err != nil {
		logger.Log.Errorw("failed to list account entries", "account_id", accountID, "error", err)
		return nil, err
	}
	return entries, nil
}

// SetAllowNegative is an administrative override of the overdraft flag.
func (s *AccountService) SetAllowNegative(ctx context.Context, accountID uuid.UUID, allow bool) error {
	if err := s.accounts.SetAllowNegative(ctx, accountID, allow); err != nil {
		logger.Log.Errorw("failed to set allow_negative", "account_id", accountID, "allow", allow, "error", err)
		return err
	}
	logger.Log.Infow("allow_negative changed", "account_id", accountID, "allow", allow)
	return nil
}

func normalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) != 3 {
		return "", errs.NewValidationError(fmt.Sprintf("currency code must have 3 letters, got %q", c))
	}
	return c, nil
}
