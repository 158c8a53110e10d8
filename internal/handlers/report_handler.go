package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	mW "github.com/retailops/backoffice/internal/middleware"
	"github.com/retailops/backoffice/internal/models"
	"github.com/retailops/backoffice/internal/services"
)

// ReportService is the read-only view reporting routes get of the ledger.
type ReportService interface {
	GetAccountLedger(ctx context.Context, storeID, accountID int64, dr models.DateRange) ([]models.LedgerLine, error)
	GetAccountBalance(ctx context.Context, storeID, accountID int64, asOf *time.Time) (*models.AccountBalance, error)
	GetTrialBalance(ctx context.Context, storeID int64, asOf *time.Time) (*models.TrialBalance, error)
}

type ReportHandler struct {
	service ReportService
}

func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// AccountLedger lists posted lines of one account with a running balance
// @Summary Account ledger
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param accountId path int true "Account ID"
// @Param from query string false "Earliest entry date (YYYY-MM-DD)"
// @Param to query string false "Latest entry date (YYYY-MM-DD)"
// @Success 200 {array} models.LedgerLine
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{accountId}/ledger [get]
func (h *ReportHandler) AccountLedger(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountParam(w, r)
	if !ok {
		return
	}
	dr, err := dateRangeQuery(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	lines, err := h.service.GetAccountLedger(r.Context(), mW.StoreID(r.Context()), accountID, dr)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, lines)
}

// AccountBalance returns raw debit minus credit for one account
// @Summary Account balance
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param accountId path int true "Account ID"
// @Param as_of query string false "Balance date (YYYY-MM-DD)"
// @Success 200 {object} models.AccountBalance
// @Router /accounts/{accountId}/balance [get]
func (h *ReportHandler) AccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountParam(w, r)
	if !ok {
		return
	}
	asOf, err := parseDate(r.URL.Query().Get("as_of"))
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	balance, err := h.service.GetAccountBalance(r.Context(), mW.StoreID(r.Context()), accountID, asOf)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, balance)
}

// TrialBalance reports every account with posted activity
// @Summary Trial balance
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param as_of query string false "Balance date (YYYY-MM-DD)"
// @Success 200 {object} models.TrialBalance
// @Router /reports/trial-balance [get]
func (h *ReportHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDate(r.URL.Query().Get("as_of"))
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	tb, err := h.service.GetTrialBalance(r.Context(), mW.StoreID(r.Context()), asOf)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, tb)
}

func accountParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountId"), 10, 64)
	if err != nil || id <= 0 {
		services.SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}
