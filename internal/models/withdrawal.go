package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "PENDING"
	WithdrawalProcessing WithdrawalStatus = "PROCESSING"
	WithdrawalComplete   WithdrawalStatus = "COMPLETE"
	WithdrawalCancelled  WithdrawalStatus = "CANCELLED"
)

// WithdrawalRequest represents a withdrawal_requests row in the database
type WithdrawalRequest struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"user_id" db:"user_id"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	CurrencyCode  string           `json:"currency_code" db:"currency_code"`
	Provider      string           `json:"provider" db:"provider"` // Platform wallet paying the money out
	Status        WithdrawalStatus `json:"status" db:"status"`
	WalletEntryID uuid.UUID        `json:"wallet_entry_id" db:"wallet_entry_id"` // Entry of the latest transition, used for linking
	ExternalRef   string           `json:"external_ref,omitempty" db:"external_ref"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// WithdrawRequest represents the JSON body for requesting a withdrawal
// swagger:model WithdrawRequest
type WithdrawRequest struct {
	// Amount to withdraw
	// required: true
	// example: 40.00
	Amount decimal.Decimal `json:"amount"`

	// Currency
	// required: true
	// example: USD
	Currency string `json:"currency"`

	// Platform wallet of the payment provider
	// required: true
	// example: PayPal
	Provider string `json:"provider"`

	// Provider side reference
	// example: PP-7781
	ExternalRef string `json:"external_ref,omitempty"`
}

// WithdrawResponse wraps a withdrawal request returned to clients
// swagger:model WithdrawResponse
type WithdrawResponse struct {
	Withdrawal *WithdrawalRequest `json:"withdrawal"`
}

// ErrorResponse represents an error response
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// example: insufficient funds
	Error string `json:"error"`
}
