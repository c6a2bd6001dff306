package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

const accountColumns = `id, owner_type, owner_id, name, currency_code, balance, allow_negative, created_at, updated_at`

// WalletAccountRepository persists wallet accounts and their balances.
// It takes no locks; callers read and validate balances inside the owner's lock.
type WalletAccountRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewWalletAccountRepository(db *sqlx.DB, txGetter TxGetter) *WalletAccountRepository {
	return &WalletAccountRepository{db: db, txGetter: txGetter}
}

// GetByID returns the account with the given id.
func (r *WalletAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WalletAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE id = $1`

	var account models.WalletAccount
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &account, query, id)
	logQuery(query, []any{id}, account.Balance, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFoundError("wallet account", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet account %s: %w", id, err)
	}
	return &account, nil
}

// GetByOwnerAndName returns the owner's account with the given name and currency.
func (r *WalletAccountRepository) GetByOwnerAndName(
	ctx context.Context,
	ownerType models.OwnerType,
	ownerID uuid.UUID,
	name, currency string,
) (*models.WalletAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM wallet_accounts
		WHERE owner_type = $1 AND owner_id = $2 AND name = $3 AND currency_code = $4
	`
	args := []any{ownerType, ownerID, name, currency}

	var account models.WalletAccount
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &account, query, args...)
	logQuery(query, args, account.ID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFoundError("wallet account",
			fmt.Sprintf("%s:%s/%s/%s", ownerType, ownerID, name, currency))
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet account %s/%s: %w", ownerID, name, err)
	}
	return &account, nil
}

// GetForOwner lists the owner's accounts in every currency, optionally limited to names.
func (r *WalletAccountRepository) GetForOwner(
	ctx context.Context,
	ownerType models.OwnerType,
	ownerID uuid.UUID,
	names ...string,
) ([]models.WalletAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE owner_type = ? AND owner_id = ?`
	args := []any{ownerType, ownerID}
	if len(names) > 0 {
		query += ` AND name IN (?)`
		args = append(args, names)
	}
	query += ` ORDER BY currency_code, name`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build owner accounts query: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var accounts []models.WalletAccount
	err = sqlx.SelectContext(ctx, pick(ctx, r.db, r.txGetter), &accounts, query, args...)
	logQuery(query, args, len(accounts), err)
	if err != nil {
		return nil, fmt.Errorf("list accounts of %s: %w", ownerID, err)
	}
	return accounts, nil
}

// Create inserts the account, or returns the existing one with the same owner, name and currency.
func (r *WalletAccountRepository) Create(ctx context.Context, account *models.WalletAccount) (*models.WalletAccount, error) {
	query := `
		INSERT INTO wallet_accounts (id, owner_type, owner_id, name, currency_code, balance, allow_negative, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, NOW(), NOW())
		ON CONFLICT (owner_type, owner_id, name, currency_code)
		DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + accountColumns

	id := account.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	currency := strings.ToUpper(account.CurrencyCode)
	args := []any{id, account.OwnerType, account.OwnerID, account.Name, currency, account.AllowNegative}

	var created models.WalletAccount
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &created, query, args...)
	logQuery(query, args, created.ID, err)
	if err != nil {
		return nil, fmt.Errorf("create wallet account %s/%s: %w", account.Name, currency, err)
	}
	return &created, nil
}

// SetAllowNegative flips the administrative overdraft flag.
func (r *WalletAccountRepository) SetAllowNegative(ctx context.Context, id uuid.UUID, allow bool) error {
	query := `UPDATE wallet_accounts SET allow_negative = $1, updated_at = NOW() WHERE id = $2`
	args := []any{allow, id}

	res, err := pick(ctx, r.db, r.txGetter).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, args, rowsAffected, err)

	if err != nil {
		return fmt.Errorf("set allow_negative on %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return errs.NewNotFoundError("wallet account", id.String())
	}
	return nil
}

// ApplyDelta adds delta to the balance in a single conditional statement and returns
// the new balance. The update is refused with errs.ErrInsufficientFunds when it would
// leave a non-overdraft account negative.
func (r *WalletAccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE wallet_accounts
		SET balance = balance + $1::numeric, updated_at = NOW()
		WHERE id = $2 AND (allow_negative OR balance + $1::numeric >= 0)
		RETURNING balance
	`
	args := []any{delta, id}

	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &balance, query, args...)
	logQuery(query, args, balance, err)

	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, errs.ErrInsufficientFunds
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("apply delta %s to %s: %w", delta, id, err)
	}
	return balance, nil
}
