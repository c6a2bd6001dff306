package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

// TransferLegSpec is one unresolved leg. Amount is signed: debits are negative.
type TransferLegSpec struct {
	Ref    AccountRef
	Amount decimal.Decimal
}

// TransferSpec is a fully assembled transfer waiting to be processed.
type TransferSpec struct {
	Amount        decimal.Decimal
	CurrencyCode  string
	Purpose       models.Purpose
	RequesterType models.RequesterType
	RequesterID   string
	Memo          string
	ExternalRef   string
	LinkedEntryID *uuid.UUID
	Legs          []TransferLegSpec
}

type transferCommitter interface {
	Process(ctx context.Context, spec *TransferSpec) (*models.Transfer, error)
}

type builderState uint8

const (
	stateEmpty builderState = iota
	stateHasAmount
	stateHasLegs
	stateCommitted
)

// TransferBuilder assembles a transfer without touching storage. Misuse is recorded
// as it happens and reported in one ValidationError by Commit.
type TransferBuilder struct {
	committer transferCommitter
	state     builderState
	spec      TransferSpec
	problems  []string
}

func newTransferBuilder(committer transferCommitter, amount decimal.Decimal, currency string) *TransferBuilder {
	b := &TransferBuilder{
		committer: committer,
		spec: TransferSpec{
			Amount:       amount,
			CurrencyCode: strings.ToUpper(strings.TrimSpace(currency)),
		},
	}
	if !amount.IsPositive() {
		b.fail("amount must be positive, got %s", amount)
	} else if !fitsScale(amount) {
		b.fail("amount %s has more than %d decimal places", amount, models.AmountScale)
	}
	if len(b.spec.CurrencyCode) != 3 {
		b.fail("currency code must have 3 letters, got %q", currency)
	}
	if len(b.problems) == 0 {
		b.state = stateHasAmount
	}
	return b
}

// fitsScale reports whether amount is stored without rounding.
func fitsScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(models.AmountScale))
}

func (b *TransferBuilder) fail(format string, args ...any) {
	b.problems = append(b.problems, fmt.Sprintf(format, args...))
}

func (b *TransferBuilder) mutable() bool {
	if b.state == stateCommitted {
		b.fail("transfer already committed")
		return false
	}
	return true
}

// Purpose sets why the money moves.
func (b *TransferBuilder) Purpose(p models.Purpose) *TransferBuilder {
	if b.mutable() {
		b.spec.Purpose = p
	}
	return b
}

// RequestedBy attributes the transfer to an identity for audit.
func (b *TransferBuilder) RequestedBy(t models.RequesterType, id string) *TransferBuilder {
	if b.mutable() {
		b.spec.RequesterType = t
		b.spec.RequesterID = id
	}
	return b
}

func (b *TransferBuilder) Memo(text string) *TransferBuilder {
	if b.mutable() {
		b.spec.Memo = text
	}
	return b
}

func (b *TransferBuilder) ExternalRef(ref string) *TransferBuilder {
	if b.mutable() {
		b.spec.ExternalRef = ref
	}
	return b
}

// LinkedTo marks the transfer as reversing or continuing entryID.
func (b *TransferBuilder) LinkedTo(entryID uuid.UUID) *TransferBuilder {
	if b.mutable() {
		id := entryID
		b.spec.LinkedEntryID = &id
	}
	return b
}

// FromUser debits the whole amount from the user's named account.
func (b *TransferBuilder) FromUser(userID uuid.UUID, name string) *TransferBuilder {
	return b.Debit(UserAccount(userID, name), b.spec.Amount)
}

// FromPlatform debits the whole amount from a platform wallet.
func (b *TransferBuilder) FromPlatform(name string) *TransferBuilder {
	return b.Debit(PlatformWallet(name), b.spec.Amount)
}

// FromAccount debits the whole amount from a concrete account.
func (b *TransferBuilder) FromAccount(id uuid.UUID) *TransferBuilder {
	return b.Debit(AccountByID(id), b.spec.Amount)
}

// ToUser credits the whole amount to the user's named account.
func (b *TransferBuilder) ToUser(userID uuid.UUID, name string) *TransferBuilder {
	return b.Credit(UserAccount(userID, name), b.spec.Amount)
}

// ToPlatform credits the whole amount to a platform wallet.
func (b *TransferBuilder) ToPlatform(name string) *TransferBuilder {
	return b.Credit(PlatformWallet(name), b.spec.Amount)
}

// ToAccount credits the whole amount to a concrete account.
func (b *TransferBuilder) ToAccount(id uuid.UUID) *TransferBuilder {
	return b.Credit(AccountByID(id), b.spec.Amount)
}

// Debit adds a leg taking amount out of ref. Use it with Credit for multi-leg transfers.
func (b *TransferBuilder) Debit(ref AccountRef, amount decimal.Decimal) *TransferBuilder {
	return b.addLeg(ref, amount, true)
}

// Credit adds a leg putting amount into ref.
func (b *TransferBuilder) Credit(ref AccountRef, amount decimal.Decimal) *TransferBuilder {
	return b.addLeg(ref, amount, false)
}

func (b *TransferBuilder) addLeg(ref AccountRef, amount decimal.Decimal, debit bool) *TransferBuilder {
	if !b.mutable() {
		return b
	}
	if p := ref.problem(); p != "" {
		b.fail("%s", p)
		return b
	}
	if b.state == stateEmpty {
		// the transfer amount is already reported as invalid
		return b
	}
	if !amount.IsPositive() {
		b.fail("leg %s: amount must be positive, got %s", ref, amount)
		return b
	}
	if !fitsScale(amount) {
		b.fail("leg %s: amount %s has more than %d decimal places", ref, amount, models.AmountScale)
		return b
	}
	if debit {
		amount = amount.Neg()
	}
	b.spec.Legs = append(b.spec.Legs, TransferLegSpec{Ref: ref, Amount: amount})
	if b.state == stateHasAmount {
		b.state = stateHasLegs
	}
	return b
}

// validate returns every reason the transfer cannot be committed yet.
func (b *TransferBuilder) validate() []string {
	problems := append([]string(nil), b.problems...)
	if b.state == stateCommitted {
		return problems
	}

	if !b.spec.Purpose.IsValid() {
		problems = append(problems, fmt.Sprintf("purpose %q is not valid", b.spec.Purpose))
	}
	if !b.spec.RequesterType.IsValid() || b.spec.RequesterID == "" {
		problems = append(problems, "requester identity is required")
	}

	debits, credits := decimal.Zero, decimal.Zero
	var nDebits, nCredits int
	for _, leg := range b.spec.Legs {
		if leg.Amount.IsNegative() {
			debits = debits.Add(leg.Amount.Neg())
			nDebits++
		} else {
			credits = credits.Add(leg.Amount)
			nCredits++
		}
	}
	if b.state != stateEmpty {
		if nDebits == 0 {
			problems = append(problems, "at least one from leg is required")
		}
		if nCredits == 0 {
			problems = append(problems, "at least one to leg is required")
		}
		if nDebits > 0 && !debits.Equal(b.spec.Amount) {
			problems = append(problems, fmt.Sprintf("from legs total %s, transfer amount is %s", debits, b.spec.Amount))
		}
		if nCredits > 0 && !credits.Equal(b.spec.Amount) {
			problems = append(problems, fmt.Sprintf("to legs total %s, transfer amount is %s", credits, b.spec.Amount))
		}
	}
	return problems
}

// CommitTransfer validates the builder and hands it to the processor. A builder that
// committed successfully refuses every further call; a failed commit may be retried.
func (b *TransferBuilder) CommitTransfer(ctx context.Context) (*models.Transfer, error) {
	if b.state == stateCommitted {
		return nil, errs.NewValidationError("transfer already committed")
	}
	if problems := b.validate(); len(problems) > 0 {
		return nil, errs.NewValidationError(problems...)
	}

	spec := b.spec
	spec.Legs = append([]TransferLegSpec(nil), b.spec.Legs...)

	transfer, err := b.committer.Process(ctx, &spec)
	if err != nil {
		return nil, err
	}
	b.state = stateCommitted
	return transfer, nil
}

// Commit is CommitTransfer returning the primary entry: the first debit leg.
// Callers keep its id for later linking.
func (b *TransferBuilder) Commit(ctx context.Context) (*models.WalletEntry, error) {
	transfer, err := b.CommitTransfer(ctx)
	if err != nil {
		return nil, err
	}
	return transfer.Primary(), nil
}
