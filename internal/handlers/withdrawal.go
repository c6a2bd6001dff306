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
	"github.com/sbilibin2017/gw-wallet-ledger/internal/services"
)

//go:generate mockgen -source=withdrawal.go -destination=withdrawal_mock_test.go -package=handlers

// WithdrawalRequester creates withdrawal requests.
type WithdrawalRequester interface {
	Request(
		ctx context.Context,
		userID uuid.UUID,
		amount decimal.Decimal,
		currency, provider, externalRef string,
	) (*models.WithdrawalRequest, error)
}

// WithdrawalReader loads a single withdrawal request.
type WithdrawalReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
}

// WithdrawalTransitioner moves withdrawal requests through their lifecycle.
type WithdrawalTransitioner interface {
	Advance(ctx context.Context, id uuid.UUID, by services.Requester) (*models.WithdrawalRequest, error)
	Complete(ctx context.Context, id uuid.UUID, by services.Requester) (*models.WithdrawalRequest, error)
	Cancel(ctx context.Context, id uuid.UUID, by services.Requester) (*models.WithdrawalRequest, error)
	Revert(ctx context.Context, id uuid.UUID, by services.Requester) (*models.WithdrawalRequest, error)
}

// NewWithdrawalRequestHandler handles moving funds of the caller into escrow for a payout
// @Summary Request a withdrawal
// @Description Moves the amount from the Withdrawable account to Escrow and creates a pending request
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param request body models.WithdrawRequest true "Withdraw Request"
// @Success 201 {object} models.WithdrawResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /withdrawals [post]
// @Security BearerAuth
func NewWithdrawalRequestHandler(requester WithdrawalRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := middlewares.ClaimsFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.WithdrawRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !req.Amount.IsPositive() || req.Currency == "" || req.Provider == "" {
			writeError(w, http.StatusBadRequest, "amount, currency and provider are required")
			return
		}

		withdrawal, err := requester.Request(ctx, claims.UserID, req.Amount, req.Currency, req.Provider, req.ExternalRef)
		if err != nil {
			logger.Log.Errorw("withdrawal request rejected", "user_id", claims.UserID, "error", err)
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, models.WithdrawResponse{Withdrawal: withdrawal})
	}
}

// NewGetWithdrawalHandler returns one withdrawal request. Users only see their own requests.
// @Summary Get a withdrawal
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 200 {object} models.WithdrawResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /withdrawals/{id} [get]
// @Security BearerAuth
func NewGetWithdrawalHandler(reader WithdrawalReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := middlewares.ClaimsFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid withdrawal id")
			return
		}

		withdrawal, err := reader.Get(ctx, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if withdrawal.UserID != claims.UserID && !claims.IsEmployee() {
			writeError(w, http.StatusNotFound, "withdrawal not found")
			return
		}

		writeJSON(w, http.StatusOK, models.WithdrawResponse{Withdrawal: withdrawal})
	}
}

// NewWithdrawalTransitionHandler applies an employee-initiated status transition
// @Summary Change withdrawal status
// @Description action is one of advance, complete, cancel, revert
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Param action path string true "Transition" Enums(advance, complete, cancel, revert)
// @Success 200 {object} models.WithdrawResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /withdrawals/{id}/{action} [post]
// @Security BearerAuth
func NewWithdrawalTransitionHandler(transitioner WithdrawalTransitioner) http.HandlerFunc {
	actions := map[string]func(context.Context, uuid.UUID, services.Requester) (*models.WithdrawalRequest, error){
		"advance":  transitioner.Advance,
		"complete": transitioner.Complete,
		"cancel":   transitioner.Cancel,
		"revert":   transitioner.Revert,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := middlewares.ClaimsFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid withdrawal id")
			return
		}

		action := chi.URLParam(r, "action")
		apply, ok := actions[action]
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown action "+action)
			return
		}

		by := services.EmployeeRequester(claims.UserID)
		withdrawal, err := apply(ctx, id, by)
		if err != nil {
			logger.Log.Errorw("withdrawal transition rejected", "withdrawal_id", id, "action", action, "employee_id", claims.UserID, "error", err)
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.WithdrawResponse{Withdrawal: withdrawal})
	}
}

// RegisterWithdrawalRequestHandler registers the route for requesting a withdrawal
func RegisterWithdrawalRequestHandler(r chi.Router, h http.HandlerFunc) {
	r.Post("/withdrawals", h)
}

// RegisterGetWithdrawalHandler registers the route for reading a withdrawal
func RegisterGetWithdrawalHandler(r chi.Router, h http.HandlerFunc) {
	r.Get("/withdrawals/{id}", h)
}

// RegisterWithdrawalTransitionHandler registers the employee transition route
func RegisterWithdrawalTransitionHandler(r chi.Router, h http.HandlerFunc) {
	r.Post("/withdrawals/{id}/{action}", h)
}
