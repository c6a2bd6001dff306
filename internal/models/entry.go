package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purpose classifies why money moved.
type Purpose string

const (
	PurposeWithdrawal   Purpose = "WITHDRAWAL"
	PurposeDeposit      Purpose = "DEPOSIT"
	PurposePurchase     Purpose = "PURCHASE"
	PurposeRefund       Purpose = "REFUND"
	PurposeSubscription Purpose = "SUBSCRIPTION"
	PurposePayOut       Purpose = "PAYOUT"
	PurposeReversal     Purpose = "REVERSAL"
)

func (p Purpose) IsValid() bool {
	switch p {
	case PurposeWithdrawal, PurposeDeposit, PurposePurchase, PurposeRefund,
		PurposeSubscription, PurposePayOut, PurposeReversal:
		return true
	}
	return false
}

// RequesterType is the kind of identity a transfer is attributed to.
type RequesterType string

const (
	RequesterUser     RequesterType = "USER"
	RequesterEmployee RequesterType = "EMPLOYEE"
	RequesterSystem   RequesterType = "SYSTEM"
)

func (r RequesterType) IsValid() bool {
	switch r {
	case RequesterUser, RequesterEmployee, RequesterSystem:
		return true
	}
	return false
}

// WalletEntry is one immutable ledger row. Debits are negative, credits positive.
type WalletEntry struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TransferID    uuid.UUID       `json:"transfer_id" db:"transfer_id"`
	AccountID     uuid.UUID       `json:"account_id" db:"account_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Purpose       Purpose         `json:"purpose" db:"purpose"`
	ExternalRef   string          `json:"external_ref,omitempty" db:"external_ref"`
	LinkedEntryID *uuid.UUID      `json:"linked_entry_id,omitempty" db:"linked_entry_id"`
	Memo          string          `json:"memo,omitempty" db:"memo"`
	RequesterType RequesterType   `json:"requester_type" db:"requester_type"`
	RequesterID   string          `json:"requester_id" db:"requester_id"`
	CreateTime    time.Time       `json:"create_time" db:"create_time"`
}

// IsDebit reports whether the entry takes money out of its account.
func (e *WalletEntry) IsDebit() bool {
	return e.Amount.IsNegative()
}
