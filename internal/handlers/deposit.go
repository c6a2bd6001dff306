package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/middlewares"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

//go:generate mockgen -source=deposit.go -destination=deposit_mock_test.go -package=handlers

// Depositor credits provider payments to user wallets.
type Depositor interface {
	Deposit(
		ctx context.Context,
		userID uuid.UUID,
		amount decimal.Decimal,
		currency, provider, externalRef string,
	) (*models.WalletEntry, error)
}

// NewDepositHandler handles crediting a deposit to the caller's wallet
// @Summary Deposit funds
// @Description Moves the amount from the provider platform wallet to the caller's Withdrawable account
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body models.DepositRequest true "Deposit Request"
// @Success 201 {object} models.DepositResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /deposits [post]
// @Security BearerAuth
func NewDepositHandler(depositor Depositor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := middlewares.ClaimsFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.DepositRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !req.Amount.IsPositive() || req.Currency == "" || req.Provider == "" {
			writeError(w, http.StatusBadRequest, "amount, currency and provider are required")
			return
		}

		entry, err := depositor.Deposit(ctx, claims.UserID, req.Amount, req.Currency, req.Provider, req.ExternalRef)
		if err != nil {
			logger.Log.Errorw("deposit rejected", "user_id", claims.UserID, "provider", req.Provider, "error", err)
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, models.DepositResponse{Entry: entry})
	}
}

// RegisterDepositHandler registers the deposit route
func RegisterDepositHandler(r chi.Router, h http.HandlerFunc) {
	r.Post("/deposits", h)
}
