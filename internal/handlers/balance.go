package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/middlewares"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

//go:generate mockgen -source=balance.go -destination=balance_mock_test.go -package=handlers

// BalanceReader defines the interface that the service must implement.
type BalanceReader interface {
	Balances(ctx context.Context, userID uuid.UUID) ([]models.AccountBalance, error)
}

// NewGetBalanceHandler returns an HTTP handler for fetching the caller's account balances.
// @Summary Get user balance
// @Description Returns every wallet account of the caller with its current balance
// @Tags wallet
// @Produce json
// @Success 200 {object} models.BalanceResponse "User balance"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /balance [get]
// @Security BearerAuth
func NewGetBalanceHandler(reader BalanceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := middlewares.ClaimsFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		accounts, err := reader.Balances(ctx, claims.UserID)
		if err != nil {
			logger.Log.Errorw("failed to get balance", "user_id", claims.UserID, "error", err)
			writeServiceError(w, err)
			return
		}
		if accounts == nil {
			accounts = []models.AccountBalance{}
		}

		writeJSON(w, http.StatusOK, models.BalanceResponse{Accounts: accounts})
	}
}

// RegisterGetBalanceHandler registers the balance route
func RegisterGetBalanceHandler(r chi.Router, h http.HandlerFunc) {
	r.Get("/balance", h)
}
