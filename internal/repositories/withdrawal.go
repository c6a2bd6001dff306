package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

const withdrawalColumns = `id, user_id, amount, currency_code, provider, status, wallet_entry_id, external_ref, created_at, updated_at`

// WithdrawalRepository stores withdrawal requests next to the ledger, so a status
// change can commit in the same transaction as its transfer.
type WithdrawalRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewWithdrawalRepository(db *sqlx.DB, txGetter TxGetter) *WithdrawalRepository {
	return &WithdrawalRepository{db: db, txGetter: txGetter}
}

// Create inserts a new request.
func (r *WithdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (` + withdrawalColumns + `)
		VALUES (:id, :user_id, :amount, :currency_code, :provider, :status, :wallet_entry_id, :external_ref, :created_at, :updated_at)
	`
	_, err := sqlx.NamedExecContext(ctx, pick(ctx, r.db, r.txGetter), query, w)
	logQuery(query, []any{w.ID, w.UserID, w.Amount, w.Status}, w.WalletEntryID, err)
	if err != nil {
		return fmt.Errorf("create withdrawal %s: %w", w.ID, err)
	}
	return nil
}

// GetByID returns a request without locking it.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetByIDForUpdate returns a request and row-locks it until the ambient transaction ends.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *WithdrawalRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &w, query, id)
	logQuery(query, []any{id}, w.Status, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFoundError("withdrawal", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get withdrawal %s: %w", id, err)
	}
	return &w, nil
}

// UpdateStatus records a transition together with the entry that carried it.
func (r *WithdrawalRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status models.WithdrawalStatus,
	walletEntryID uuid.UUID,
) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, wallet_entry_id = $2, updated_at = NOW()
		WHERE id = $3
	`
	args := []any{status, walletEntryID, id}

	res, err := pick(ctx, r.db, r.txGetter).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, args, rowsAffected, err)

	if err != nil {
		return fmt.Errorf("update withdrawal %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return errs.NewNotFoundError("withdrawal", id.String())
	}
	return nil
}

// ListByUser returns the user's requests, newest first.
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE user_id = $1 ORDER BY created_at DESC`

	var list []models.WithdrawalRequest
	err := sqlx.SelectContext(ctx, pick(ctx, r.db, r.txGetter), &list, query, userID)
	logQuery(query, []any{userID}, len(list), err)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals of %s: %w", userID, err)
	}
	return list, nil
}
