package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

// Requester is the identity a transfer is attributed to.
type Requester struct {
	Type models.RequesterType
	ID   string
}

// UserRequester attributes a transfer to the user themselves.
func UserRequester(userID uuid.UUID) Requester {
	return Requester{Type: models.RequesterUser, ID: userID.String()}
}

// EmployeeRequester attributes a transfer to a support employee acting on a user's behalf.
func EmployeeRequester(employeeID uuid.UUID) Requester {
	return Requester{Type: models.RequesterEmployee, ID: employeeID.String()}
}

// SystemRequester attributes a transfer to a background process.
func SystemRequester(process string) Requester {
	return Requester{Type: models.RequesterSystem, ID: process}
}

// Ledger is the entry point of the transfer engine. It takes no locks: callers
// wrap build, pre-checks and commit in the affected owner's lock.
type Ledger struct {
	processor *TransferProcessor
}

func NewLedger(processor *TransferProcessor) *Ledger {
	return &Ledger{processor: processor}
}

// Transfer starts a new transfer of amount in currency.
func (l *Ledger) Transfer(amount decimal.Decimal, currency string) *TransferBuilder {
	return newTransferBuilder(l.processor, amount, currency)
}

// Reverse commits a transfer whose legs negate the transfer containing entryID,
// linked to entryID.
func (l *Ledger) Reverse(ctx context.Context, entryID uuid.UUID, by Requester, memo string) (*models.Transfer, error) {
	return l.reverse(ctx, entryID, models.PurposeReversal, by, memo)
}

func (l *Ledger) reverse(
	ctx context.Context,
	entryID uuid.UUID,
	purpose models.Purpose,
	by Requester,
	memo string,
) (*models.Transfer, error) {
	var transfer *models.Transfer

	err := l.processor.tx.Do(ctx, func(ctx context.Context) error {
		entry, err := l.processor.entries.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		legs, err := l.processor.entries.GetByTransfer(ctx, entry.TransferID)
		if err != nil {
			return err
		}
		if err := l.ensureNotReversed(ctx, legs); err != nil {
			return err
		}

		account, err := l.processor.accounts.GetByID(ctx, entry.AccountID)
		if err != nil {
			return err
		}

		amount := decimal.Zero
		for _, leg := range legs {
			if leg.IsDebit() {
				amount = amount.Add(leg.Amount.Neg())
			}
		}

		b := l.Transfer(amount, account.CurrencyCode).
			Purpose(purpose).
			RequestedBy(by.Type, by.ID).
			Memo(memo).
			ExternalRef(entry.ExternalRef).
			LinkedTo(entryID)
		for _, leg := range legs {
			if leg.IsDebit() {
				b.Credit(AccountByID(leg.AccountID), leg.Amount.Neg())
			} else {
				b.Debit(AccountByID(leg.AccountID), leg.Amount)
			}
		}

		transfer, err = b.CommitTransfer(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reverse entry %s: %w", entryID, err)
	}
	return transfer, nil
}

// ensureNotReversed rejects a second reversal of the same transfer.
func (l *Ledger) ensureNotReversed(ctx context.Context, legs []models.WalletEntry) error {
	for _, leg := range legs {
		linked, err := l.processor.entries.GetByLinked(ctx, leg.ID)
		if err != nil {
			return err
		}
		for _, e := range linked {
			if e.Purpose == models.PurposeReversal || e.Purpose == models.PurposeRefund {
				return errs.NewValidationError(fmt.Sprintf("transfer %s already reversed by %s", leg.TransferID, e.TransferID))
			}
		}
	}
	return nil
}
