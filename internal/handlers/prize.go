package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

//go:generate mockgen -source=prize.go -destination=prize_mock_test.go -package=handlers

// PrizePayer pays leaderboard prizes.
type PrizePayer interface {
	PayOut(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency, leaderboardRef string) (*models.WalletEntry, error)
}

// NewPrizeHandler pays a leaderboard prize from the platform Prize wallet
// @Summary Pay a prize
// @Description Employee only. Moves the amount from the Prize wallet to the winner's Withdrawable account
// @Tags prizes
// @Accept json
// @Produce json
// @Param request body models.PrizeRequest true "Prize"
// @Success 201 {object} models.PrizeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /prizes [post]
// @Security BearerAuth
func NewPrizeHandler(payer PrizePayer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PrizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == uuid.Nil || req.LeaderboardRef == "" {
			writeError(w, http.StatusBadRequest, "user_id and leaderboard_ref are required")
			return
		}

		entry, err := payer.PayOut(r.Context(), req.UserID, req.Amount, req.Currency, req.LeaderboardRef)
		if err != nil {
			logger.Log.Errorw("prize payout rejected", "user_id", req.UserID, "leaderboard", req.LeaderboardRef, "error", err)
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, models.PrizeResponse{Entry: entry})
	}
}

// RegisterPrizeHandler registers the prize payout route
func RegisterPrizeHandler(r chi.Router, h http.HandlerFunc) {
	r.Post("/prizes", h)
}
