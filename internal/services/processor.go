package services

//go:generate mockgen -source=processor.go -destination=processor_mock_test.go -package=services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

// AccountStore reads accounts and applies balance deltas.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.WalletAccount, error)
	GetByOwnerAndName(ctx context.Context, ownerType models.OwnerType, ownerID uuid.UUID, name, currency string) (*models.WalletAccount, error)
	GetForOwner(ctx context.Context, ownerType models.OwnerType, ownerID uuid.UUID, names ...string) ([]models.WalletAccount, error)
	Create(ctx context.Context, account *models.WalletAccount) (*models.WalletAccount, error)
	SetAllowNegative(ctx context.Context, id uuid.UUID, allow bool) error
	ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) // Fails with errs.ErrInsufficientFunds
}

// EntryStore is the append-only ledger.
type EntryStore interface {
	Append(ctx context.Context, entries []models.WalletEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WalletEntry, error)
	GetByTransfer(ctx context.Context, transferID uuid.UUID) ([]models.WalletEntry, error)
	GetByLinked(ctx context.Context, entryID uuid.UUID) ([]models.WalletEntry, error)
}

// TxManager runs a unit of work in one relational transaction.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	AfterCommit(ctx context.Context, fn func(ctx context.Context)) // Runs fn once the outermost transaction commits
}

// TransferPublisher announces committed transfers. Publishing is best effort.
type TransferPublisher interface {
	Publish(ctx context.Context, transfer *models.Transfer)
}

// TransferProcessor validates a transfer and applies it atomically.
type TransferProcessor struct {
	accounts  AccountStore
	entries   EntryStore
	tx        TxManager
	publisher TransferPublisher
	now       func() time.Time
}

// NewTransferProcessor creates a processor. publisher may be nil.
func NewTransferProcessor(
	accounts AccountStore,
	entries EntryStore,
	tx TxManager,
	publisher TransferPublisher,
) *TransferProcessor {
	return &TransferProcessor{
		accounts:  accounts,
		entries:   entries,
		tx:        tx,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type resolvedLeg struct {
	account *models.WalletAccount
	amount  decimal.Decimal
}

// Process resolves, validates and applies spec inside one transaction and returns the
// committed transfer. Nothing is written when any step fails.
func (p *TransferProcessor) Process(ctx context.Context, spec *TransferSpec) (*models.Transfer, error) {
	var transfer *models.Transfer

	err := p.tx.Do(ctx, func(ctx context.Context) error {
		legs, err := p.resolve(ctx, spec)
		if err != nil {
			return err
		}
		if err := p.validate(ctx, spec, legs); err != nil {
			return err
		}
		if err := p.applyDeltas(ctx, legs); err != nil {
			return err
		}

		t, err := p.appendEntries(ctx, spec, legs)
		if err != nil {
			return err
		}
		transfer = t

		if p.publisher != nil {
			p.tx.AfterCommit(ctx, func(ctx context.Context) {
				p.publisher.Publish(ctx, t)
			})
		}
		return nil
	})
	if err != nil {
		logger.Log.Infow("transfer rejected",
			"purpose", spec.Purpose,
			"amount", spec.Amount,
			"currency", spec.CurrencyCode,
			"requester_type", spec.RequesterType,
			"requester_id", spec.RequesterID,
			"error", err,
		)
		return nil, err
	}

	logger.Log.Infow("transfer committed",
		"transfer_id", transfer.ID,
		"purpose", spec.Purpose,
		"amount", spec.Amount,
		"currency", spec.CurrencyCode,
		"legs", len(transfer.Entries),
	)
	return transfer, nil
}

// resolve loads the account of every leg. Accounts are never created here.
func (p *TransferProcessor) resolve(ctx context.Context, spec *TransferSpec) ([]resolvedLeg, error) {
	cache := make(map[AccountRef]*models.WalletAccount, len(spec.Legs))
	legs := make([]resolvedLeg, 0, len(spec.Legs))

	for _, leg := range spec.Legs {
		account, ok := cache[leg.Ref]
		if !ok {
			var err error
			if leg.Ref.kind == refAccount {
				account, err = p.accounts.GetByID(ctx, leg.Ref.accountID)
			} else {
				ownerType, ownerID := leg.Ref.owner()
				account, err = p.accounts.GetByOwnerAndName(ctx, ownerType, ownerID, leg.Ref.name, spec.CurrencyCode)
			}
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", leg.Ref, err)
			}
			cache[leg.Ref] = account
		}
		legs = append(legs, resolvedLeg{account: account, amount: leg.Amount})
	}
	return legs, nil
}

func (p *TransferProcessor) validate(ctx context.Context, spec *TransferSpec, legs []resolvedLeg) error {
	if len(legs) < 2 {
		return errs.NewValidationError("a transfer needs at least two legs")
	}

	sum := decimal.Zero
	for _, leg := range legs {
		if leg.account.CurrencyCode != spec.CurrencyCode {
			return &errs.CurrencyMismatchError{
				AccountID: leg.account.ID,
				Expected:  spec.CurrencyCode,
				Actual:    leg.account.CurrencyCode,
			}
		}
		sum = sum.Add(leg.amount)
	}
	if !sum.IsZero() {
		return errs.NewValidationError(fmt.Sprintf("legs sum to %s instead of zero", sum))
	}

	if spec.LinkedEntryID != nil {
		if _, err := p.entries.GetByID(ctx, *spec.LinkedEntryID); err != nil {
			return fmt.Errorf("linked entry: %w", err)
		}
	}

	for _, d := range netDeltas(legs) {
		if d.delta.IsNegative() && !d.account.CanAbsorb(d.delta) {
			return &errs.InsufficientFundsError{
				AccountID: d.account.ID,
				Name:      d.account.Name,
				Balance:   d.account.Balance,
				Delta:     d.delta,
			}
		}
	}
	return nil
}

type accountDelta struct {
	account *models.WalletAccount
	delta   decimal.Decimal
}

// netDeltas folds legs per account, sorted by account id so concurrent transfers
// always update rows in the same order.
func netDeltas(legs []resolvedLeg) []accountDelta {
	byID := make(map[uuid.UUID]*accountDelta, len(legs))
	for _, leg := range legs {
		d, ok := byID[leg.account.ID]
		if !ok {
			d = &accountDelta{account: leg.account, delta: decimal.Zero}
			byID[leg.account.ID] = d
		}
		d.delta = d.delta.Add(leg.amount)
	}

	out := make([]accountDelta, 0, len(byID))
	for _, d := range byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].account.ID[:], out[j].account.ID[:]) < 0
	})
	return out
}

func (p *TransferProcessor) applyDeltas(ctx context.Context, legs []resolvedLeg) error {
	for _, d := range netDeltas(legs) {
		if d.delta.IsZero() {
			continue
		}
		if _, err := p.accounts.ApplyDelta(ctx, d.account.ID, d.delta); err != nil {
			if errors.Is(err, errs.ErrInsufficientFunds) {
				// the balance moved after it was read
				current := d.account.Balance
				if fresh, getErr := p.accounts.GetByID(ctx, d.account.ID); getErr == nil {
					current = fresh.Balance
				}
				return &errs.InsufficientFundsError{
					AccountID: d.account.ID,
					Name:      d.account.Name,
					Balance:   current,
					Delta:     d.delta,
				}
			}
			return fmt.Errorf("apply %s to account %s: %w", d.delta, d.account.ID, err)
		}
	}
	return nil
}

func (p *TransferProcessor) appendEntries(ctx context.Context, spec *TransferSpec, legs []resolvedLeg) (*models.Transfer, error) {
	transferID := uuid.New()
	now := p.now()

	entries := make([]models.WalletEntry, 0, len(legs))
	for _, leg := range legs {
		entries = append(entries, models.WalletEntry{
			ID:            uuid.New(),
			TransferID:    transferID,
			AccountID:     leg.account.ID,
			Amount:        leg.amount,
			Purpose:       spec.Purpose,
			ExternalRef:   spec.ExternalRef,
			LinkedEntryID: spec.LinkedEntryID,
			Memo:          spec.Memo,
			RequesterType: spec.RequesterType,
			RequesterID:   spec.RequesterID,
			CreateTime:    now,
		})
	}

	if err := p.entries.Append(ctx, entries); err != nil {
		return nil, fmt.Errorf("append entries of transfer %s: %w", transferID, err)
	}

	return &models.Transfer{
		ID:           transferID,
		CurrencyCode: spec.CurrencyCode,
		Entries:      entries,
	}, nil
}
