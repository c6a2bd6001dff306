package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

const entryColumns = `id, transfer_id, account_id, amount, purpose, external_ref, linked_entry_id, memo, requester_type, requester_id, create_time`

// WalletEntryRepository is the append-only ledger store. Rows are never updated or deleted.
type WalletEntryRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewWalletEntryRepository(db *sqlx.DB, txGetter TxGetter) *WalletEntryRepository {
	return &WalletEntryRepository{db: db, txGetter: txGetter}
}

// Append inserts every entry of one transfer. Inside an ambient transaction the rows
// join it; otherwise Append opens its own so that a failed row discards the whole batch.
func (r *WalletEntryRepository) Append(ctx context.Context, entries []models.WalletEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return insertEntries(ctx, tx, entries)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin entries batch: %w", err)
	}
	if err := insertEntries(ctx, tx, entries); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Log.Errorw("failed to roll back entries batch", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entries batch: %w", err)
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sqlx.Tx, entries []models.WalletEntry) error {
	query := `
		INSERT INTO wallet_entries (` + entryColumns + `)
		VALUES (:id, :transfer_id, :account_id, :amount, :purpose, :external_ref, :linked_entry_id, :memo, :requester_type, :requester_id, :create_time)
	`
	for i := range entries {
		_, err := sqlx.NamedExecContext(ctx, tx, query, &entries[i])
		logQuery(query, []any{entries[i].ID, entries[i].AccountID, entries[i].Amount}, entries[i].TransferID, err)
		if err != nil {
			return fmt.Errorf("insert wallet entry %s: %w", entries[i].ID, err)
		}
	}
	return nil
}

// GetByID returns one entry.
func (r *WalletEntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WalletEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM wallet_entries WHERE id = $1`

	var entry models.WalletEntry
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &entry, query, id)
	logQuery(query, []any{id}, entry.TransferID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFoundError("wallet entry", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet entry %s: %w", id, err)
	}
	return &entry, nil
}

// GetByTransfer returns the legs of a transfer, debits first.
func (r *WalletEntryRepository) GetByTransfer(ctx context.Context, transferID uuid.UUID) ([]models.WalletEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM wallet_entries WHERE transfer_id = $1 ORDER BY amount, id`
	return r.selectEntries(ctx, query, transferID)
}

// GetByLinked returns the entries that reference entryID.
func (r *WalletEntryRepository) GetByLinked(ctx context.Context, entryID uuid.UUID) ([]models.WalletEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM wallet_entries WHERE linked_entry_id = $1 ORDER BY create_time, amount, id`
	return r.selectEntries(ctx, query, entryID)
}

// ListByAccount returns the latest entries of an account, newest first.
func (r *WalletEntryRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.WalletEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + entryColumns + ` FROM wallet_entries WHERE account_id = $1 ORDER BY create_time DESC, id LIMIT $2`
	return r.selectEntries(ctx, query, accountID, limit)
}

func (r *WalletEntryRepository) selectEntries(ctx context.Context, query string, args ...any) ([]models.WalletEntry, error) {
	var entries []models.WalletEntry
	err := sqlx.SelectContext(ctx, pick(ctx, r.db, r.txGetter), &entries, query, args...)
	logQuery(query, args, len(entries), err)
	if err != nil {
		return nil, fmt.Errorf("select wallet entries: %w", err)
	}
	return entries, nil
}
