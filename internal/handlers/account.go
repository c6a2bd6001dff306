package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/middlewares"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

//go:generate mockgen -source=account.go -destination=account_mock_test.go -package=handlers

// AccountOpener opens the default user accounts.
type AccountOpener interface {
	OpenUserAccounts(ctx context.Context, userID uuid.UUID, currency string) ([]models.WalletAccount, error)
}

// StatementReader lists the entries of one of the user's accounts.
type StatementReader interface {
	Statement(ctx context.Context, userID, accountID uuid.UUID, limit int) ([]models.WalletEntry, error)
}

// NewOpenAccountsHandler opens the caller's default accounts in a currency. Repeating the call is harmless.
// @Summary Open wallet accounts
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body models.OpenAccountsRequest true "Currency"
// @Success 200 {object} models.OpenAccountsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /accounts [post]
// @Security BearerAuth
func NewOpenAccountsHandler(opener AccountOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := middlewares.ClaimsFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.OpenAccountsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		accounts, err := opener.OpenUserAccounts(ctx, claims.UserID, req.Currency)
		if err != nil {
			logger.Log.Errorw("failed to open accounts", "user_id", claims.UserID, "currency", req.Currency, "error", err)
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.OpenAccountsResponse{Accounts: accounts})
	}
}

// RegisterOpenAccountsHandler registers the account opening route
func RegisterOpenAccountsHandler(r chi.Router, h http.HandlerFunc) {
	r.Post("/accounts", h)
}

const maxStatementLimit = 500

// NewGetStatementHandler returns the latest entries of one of the caller's accounts.
// @Summary Account statement
// @Tags wallet
// @Produce json
// @Param id path string true "Account ID"
// @Param limit query int false "Number of entries, 50 by default"
// @Success 200 {object} models.StatementResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{id}/entries [get]
// @Security BearerAuth
func NewGetStatementHandler(reader StatementReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := middlewares.ClaimsFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		accountID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid account id")
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 || limit > maxStatementLimit {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
				return
			}
		}

		entries, err := reader.Statement(ctx, claims.UserID, accountID, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if entries == nil {
			entries = []models.WalletEntry{}
		}

		writeJSON(w, http.StatusOK, models.StatementResponse{Entries: entries})
	}
}

// RegisterGetStatementHandler registers the account statement route
func RegisterGetStatementHandler(r chi.Router, h http.HandlerFunc) {
	r.Get("/accounts/{id}/entries", h)
}
