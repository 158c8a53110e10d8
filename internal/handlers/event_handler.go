package handlers

import (
	"context"
	"net/http"

	mW "github.com/retailops/backoffice/internal/middleware"
	"github.com/retailops/backoffice/internal/models"
	"github.com/retailops/backoffice/internal/services"
)

// EventSink receives persisted business records from producer modules.
type EventSink interface {
	ExpenseRecorded(ctx context.Context, e *models.Expense) services.EventResult
	PurchaseInvoiceRecorded(ctx context.Context, inv *models.PurchaseInvoice) services.EventResult
	InvoicePaymentRecorded(ctx context.Context, p *models.InvoicePayment) services.EventResult
	ReimbursementSettled(ctx context.Context, r *models.ReimbursementSettlement) services.EventResult
	DailyRevenueRecorded(ctx context.Context, rev *models.DailyRevenue) services.EventResult
}

// EventHandler lets producer modules hand their saved records to the
// ledger. Posting is advisory, so these routes answer 202 whether or not a
// journal entry came out of the event.
type EventHandler struct {
	sink      EventSink
	validator *services.ValidationHelper
}

func NewEventHandler(sink EventSink) *EventHandler {
	return &EventHandler{
		sink:      sink,
		validator: services.NewValidationHelper(),
	}
}

// decodeEvent reads an event record and stamps it with the caller's store
// and user.
func (h *EventHandler) decodeEvent(w http.ResponseWriter, r *http.Request, dst any, storeID, enteredBy *int64) bool {
	if !decodeBody(w, r, dst, false) {
		return false
	}
	*storeID = mW.StoreID(r.Context())
	if *enteredBy == 0 {
		*enteredBy = mW.UserID(r.Context())
	}
	if err := h.validator.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

// Expense posts an expense record
// @Summary Expense recorded
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Expense true "Saved expense"
// @Success 202 {object} services.EventResult
// @Router /events/expenses [post]
func (h *EventHandler) Expense(w http.ResponseWriter, r *http.Request) {
	var e models.Expense
	if !h.decodeEvent(w, r, &e, &e.StoreID, &e.EnteredBy) {
		return
	}
	services.SendJSON(w, http.StatusAccepted, h.sink.ExpenseRecorded(r.Context(), &e))
}

// PurchaseInvoice posts a vendor invoice
// @Summary Purchase invoice recorded
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PurchaseInvoice true "Saved invoice"
// @Success 202 {object} services.EventResult
// @Router /events/purchase-invoices [post]
func (h *EventHandler) PurchaseInvoice(w http.ResponseWriter, r *http.Request) {
	var inv models.PurchaseInvoice
	if !h.decodeEvent(w, r, &inv, &inv.StoreID, &inv.EnteredBy) {
		return
	}
	services.SendJSON(w, http.StatusAccepted, h.sink.PurchaseInvoiceRecorded(r.Context(), &inv))
}

// InvoicePayment posts a payment against an invoice
// @Summary Invoice payment recorded
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.InvoicePayment true "Saved payment"
// @Success 202 {object} services.EventResult
// @Router /events/invoice-payments [post]
func (h *EventHandler) InvoicePayment(w http.ResponseWriter, r *http.Request) {
	var p models.InvoicePayment
	if !h.decodeEvent(w, r, &p, &p.StoreID, &p.EnteredBy) {
		return
	}
	services.SendJSON(w, http.StatusAccepted, h.sink.InvoicePaymentRecorded(r.Context(), &p))
}

// Reimbursement posts a reimbursement settlement
// @Summary Reimbursement settled
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ReimbursementSettlement true "Saved settlement"
// @Success 202 {object} services.EventResult
// @Router /events/reimbursements [post]
func (h *EventHandler) Reimbursement(w http.ResponseWriter, r *http.Request) {
	var s models.ReimbursementSettlement
	if !h.decodeEvent(w, r, &s, &s.StoreID, &s.EnteredBy) {
		return
	}
	services.SendJSON(w, http.StatusAccepted, h.sink.ReimbursementSettled(r.Context(), &s))
}

// DailyRevenue posts a register close-out
// @Summary Daily revenue recorded
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DailyRevenue true "Saved close-out"
// @Success 202 {object} services.EventResult
// @Router /events/daily-revenue [post]
func (h *EventHandler) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	var rev models.DailyRevenue
	if !h.decodeEvent(w, r, &rev, &rev.StoreID, &rev.EnteredBy) {
		return
	}
	services.SendJSON(w, http.StatusAccepted, h.sink.DailyRevenueRecorded(r.Context(), &rev))
}
