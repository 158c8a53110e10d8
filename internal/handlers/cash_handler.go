package handlers

import (
	"context"
	"net/http"
	"time"

	mW "github.com/retailops/backoffice/internal/middleware"
	"github.com/retailops/backoffice/internal/models"
	"github.com/retailops/backoffice/internal/services"
	"github.com/shopspring/decimal"
)

// CashService is the cash ledger surface exposed over HTTP.
type CashService interface {
	GetBalance(ctx context.Context, storeID int64) (*models.CashLedgerAccount, error)
	UpdateBalance(ctx context.Context, u services.CashUpdate) (*models.CashTransaction, error)
	ReversePaymentTransactions(ctx context.Context, storeID int64, txType string, sourceID int64, actorID *int64, date time.Time) (*models.CashTransaction, error)
	ResetBalance(ctx context.Context, storeID, actorID int64) error
	GetTransactionHistory(ctx context.Context, storeID int64, dr models.DateRange, limit int) ([]models.CashTransaction, error)
}

type CashHandler struct {
	service   CashService
	validator *services.ValidationHelper
}

func NewCashHandler(service CashService) *CashHandler {
	return &CashHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type CashAdjustmentRequest struct {
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	TransactionDate string          `json:"transaction_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description     string          `json:"description" validate:"required,max=500"`
}

type CashReversalRequest struct {
	TransactionType string `json:"transaction_type" validate:"required,max=50"`
	SourceID        int64  `json:"source_id" validate:"required,gt=0"`
	TransactionDate string `json:"transaction_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// GetBalance returns the store's cash on hand
// @Summary Cash on hand
// @Tags Cash
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.CashLedgerAccount
// @Router /cash [get]
func (h *CashHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	acct, err := h.service.GetBalance(r.Context(), mW.StoreID(r.Context()))
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, acct)
}

// GetTransactions lists cash movements newest first
// @Summary Cash transaction history
// @Tags Cash
// @Produce json
// @Security BearerAuth
// @Param from query string false "Earliest transaction date (YYYY-MM-DD)"
// @Param to query string false "Latest transaction date (YYYY-MM-DD)"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} models.CashTransaction
// @Router /cash/transactions [get]
func (h *CashHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	dr, err := dateRangeQuery(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	txs, err := h.service.GetTransactionHistory(r.Context(), mW.StoreID(r.Context()), dr, limit)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, txs)
}

// Adjust records a manual cash count correction
// @Summary Adjust cash on hand
// @Tags Cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CashAdjustmentRequest true "Signed adjustment"
// @Success 201 {object} models.CashTransaction
// @Failure 400 {object} services.ErrorResponse
// @Router /cash/adjustments [post]
func (h *CashHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req CashAdjustmentRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	u := services.CashUpdate{
		StoreID:         mW.StoreID(r.Context()),
		Amount:          req.Amount,
		TransactionType: models.CashTxAdjustment,
		Description:     req.Description,
		EnteredBy:       userPtr(r),
	}
	if date, _ := parseDate(req.TransactionDate); date != nil {
		u.Date = *date
	}

	t, err := h.service.UpdateBalance(r.Context(), u)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusCreated, t)
}

// ReverseSource nets out every cash movement of a source record
// @Summary Reverse cash movements of a source
// @Tags Cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CashReversalRequest true "Source to reverse"
// @Success 201 {object} models.CashTransaction
// @Success 204 "Nothing to reverse"
// @Router /cash/reversals [post]
func (h *CashHandler) ReverseSource(w http.ResponseWriter, r *http.Request) {
	var req CashReversalRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var date time.Time
	if d, _ := parseDate(req.TransactionDate); d != nil {
		date = *d
	}

	t, err := h.service.ReversePaymentTransactions(r.Context(), mW.StoreID(r.Context()), req.TransactionType, req.SourceID, userPtr(r), date)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	if t == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	services.SendJSON(w, http.StatusCreated, t)
}

// Reset purges the cash log and zeroes the balance
// @Summary Reset cash ledger
// @Description Administrative; destroys the store's cash history
// @Tags Cash
// @Security BearerAuth
// @Success 204
// @Failure 403 {object} services.ErrorResponse
// @Router /cash/reset [post]
func (h *CashHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetBalance(r.Context(), mW.StoreID(r.Context()), mW.UserID(r.Context())); err != nil {
		services.SendLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userPtr(r *http.Request) *int64 {
	id := mW.UserID(r.Context())
	if id <= 0 {
		return nil
	}
	return &id
}
