package models

import "github.com/shopspring/decimal"

// AccountBalance is one account in the balance listing
// swagger:model AccountBalance
type AccountBalance struct {
	// Account name
	// example: Withdrawable
	Name string `json:"name"`

	// Currency code
	// example: USD
	Currency string `json:"currency"`

	// Current balance
	// example: 60.00
	Balance decimal.Decimal `json:"balance"`
}

// BalanceResponse lists the caller's accounts
// swagger:model BalanceResponse
type BalanceResponse struct {
	Accounts []AccountBalance `json:"accounts"`
}

// OpenAccountsRequest asks for the caller's default accounts in one currency
// swagger:model OpenAccountsRequest
type OpenAccountsRequest struct {
	// Currency code
	// required: true
	// example: USD
	Currency string `json:"currency"`
}

// OpenAccountsResponse lists the caller's accounts in the requested currency
// swagger:model OpenAccountsResponse
type OpenAccountsResponse struct {
	Accounts []WalletAccount `json:"accounts"`
}

// StatementResponse lists the latest entries of one account, newest first
// swagger:model StatementResponse
type StatementResponse struct {
	Entries []WalletEntry `json:"entries"`
}
