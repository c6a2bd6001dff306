package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrizeRequest asks for a leaderboard prize to be paid to a user
// swagger:model PrizeRequest
type PrizeRequest struct {
	// Winner
	// required: true
	UserID uuid.UUID `json:"user_id"`

	// Prize amount
	// required: true
	// example: 25.00
	Amount decimal.Decimal `json:"amount"`

	// Currency
	// required: true
	// example: USD
	Currency string `json:"currency"`

	// Leaderboard the prize was won on
	// required: true
	// example: weekly-2025-39
	LeaderboardRef string `json:"leaderboard_ref"`
}

// PrizeResponse returns the credit entry of the payout
// swagger:model PrizeResponse
type PrizeResponse struct {
	Entry *WalletEntry `json:"entry"`
}
