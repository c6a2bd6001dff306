package models

import "github.com/shopspring/decimal"

// DepositRequest represents the JSON body for crediting a provider-confirmed deposit
// swagger:model DepositRequest
type DepositRequest struct {
	// Amount to deposit
	// required: true
	// example: 100.00
	Amount decimal.Decimal `json:"amount"`

	// Currency
	// required: true
	// example: USD
	Currency string `json:"currency"`

	// Platform wallet of the payment provider that received the money
	// required: true
	// example: Skrill
	Provider string `json:"provider"`

	// Provider side payment id
	// example: pi_3Nk2
	ExternalRef string `json:"external_ref,omitempty"`
}

// DepositResponse returns the credit entry written to the caller's Withdrawable account
// swagger:model DepositResponse
type DepositResponse struct {
	Entry *WalletEntry `json:"entry"`
}
