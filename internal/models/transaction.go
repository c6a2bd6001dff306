package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer is the set of entries committed together under one transfer id.
type Transfer struct {
	ID           uuid.UUID     `json:"id"`
	CurrencyCode string        `json:"currency_code"`
	Entries      []WalletEntry `json:"entries"`
}

// Primary returns the entry callers remember for later linking: the first debit leg.
func (t *Transfer) Primary() *WalletEntry {
	for i := range t.Entries {
		if t.Entries[i].IsDebit() {
			return &t.Entries[i]
		}
	}
	if len(t.Entries) == 0 {
		return nil
	}
	return &t.Entries[0]
}

// Sum returns the signed total of all legs; zero for every committed transfer.
func (t *Transfer) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range t.Entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// TransferLeg is one (account, signed amount) pair of a published transfer.
type TransferLeg struct {
	EntryID   string `json:"entry_id"`
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

// TransferEvent is the message published for every committed transfer.
type TransferEvent struct {
	TransferID    string        `json:"transfer_id"`               // Transfer identifier, used as the message key
	Timestamp     int64         `json:"timestamp"`                 // Unix seconds of the commit
	CurrencyCode  string        `json:"currency_code"`             // Currency shared by all legs
	Purpose       Purpose       `json:"purpose"`                   // Purpose of the transfer
	RequesterType RequesterType `json:"requester_type"`            // Who asked for it
	RequesterID   string        `json:"requester_id"`              // Requester identity
	LinkedEntryID string        `json:"linked_entry_id,omitempty"` // Entry reversed or continued, if any
	Legs          []TransferLeg `json:"legs"`
}

// NewTransferEvent builds the event payload for a committed transfer.
func NewTransferEvent(t *Transfer) TransferEvent {
	ev := TransferEvent{
		TransferID:   t.ID.String(),
		CurrencyCode: t.CurrencyCode,
		Legs:         make([]TransferLeg, 0, len(t.Entries)),
	}
	if len(t.Entries) > 0 {
		first := t.Entries[0]
		ev.Timestamp = first.CreateTime.Unix()
		ev.Purpose = first.Purpose
		ev.RequesterType = first.RequesterType
		ev.RequesterID = first.RequesterID
		if first.LinkedEntryID != nil {
			ev.LinkedEntryID = first.LinkedEntryID.String()
		}
	} else {
		ev.Timestamp = time.Now().Unix()
	}
	for _, e := range t.Entries {
		ev.Legs = append(ev.Legs, TransferLeg{
			EntryID:   e.ID.String(),
			AccountID: e.AccountID.String(),
			Amount:    e.Amount.String(),
		})
	}
	return ev
}
