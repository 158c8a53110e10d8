package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mW "github.com/retailops/backoffice/internal/middleware"
	"github.com/retailops/backoffice/internal/models"
	"github.com/retailops/backoffice/internal/services"
)

// JournalService is the ledger surface the journal routes drive.
type JournalService interface {
	Create(ctx context.Context, in services.CreateEntryInput) (*models.JournalEntry, error)
	Post(ctx context.Context, entryID uuid.UUID, postedBy int64) (*models.JournalEntry, error)
	Update(ctx context.Context, entryID uuid.UUID, patch services.EntryPatch) (*models.JournalEntry, error)
	Delete(ctx context.Context, entryID uuid.UUID) error
	Reverse(ctx context.Context, entryID uuid.UUID, reversedBy int64, reversalDate *time.Time) (*models.JournalEntry, error)
	GetEntry(ctx context.Context, entryID uuid.UUID) (*models.JournalEntry, error)
	ListEntries(ctx context.Context, f services.EntryFilter) ([]models.JournalEntry, error)
}

type JournalHandler struct {
	service   JournalService
	validator *services.ValidationHelper
}

func NewJournalHandler(service JournalService) *JournalHandler {
	return &JournalHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type CreateEntryRequest struct {
	EntryDate   string               `json:"entry_date" validate:"required,datetime=2006-01-02"`
	Description string               `json:"description" validate:"required,max=500"`
	Reference   *models.Reference    `json:"reference,omitempty"`
	Status      models.EntryStatus   `json:"status,omitempty" validate:"omitempty,oneof=draft posted"`
	Lines       []services.LineInput `json:"lines" validate:"required,min=2,dive"`
	Notes       string               `json:"notes,omitempty" validate:"max=2000"`
}

type UpdateEntryRequest struct {
	EntryDate   *string              `json:"entry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description *string              `json:"description,omitempty" validate:"omitempty,max=500"`
	Reference   *models.Reference    `json:"reference,omitempty"`
	Notes       *string              `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines       []services.LineInput `json:"lines,omitempty" validate:"omitempty,dive"`
}

type ReverseEntryRequest struct {
	ReversalDate string `json:"reversal_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CreateEntry records a manual journal entry
// @Summary Create journal entry
// @Description Create a manual journal entry as draft, or posted when status is "posted"
// @Tags Journal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEntryRequest true "Journal entry"
// @Success 201 {object} models.JournalEntry
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /journal-entries [post]
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	entryDate, _ := parseDate(req.EntryDate)

	entry, err := h.service.Create(r.Context(), services.CreateEntryInput{
		StoreID:     mW.StoreID(r.Context()),
		EntryDate:   *entryDate,
		EntryType:   models.EntryTypeManual,
		Description: req.Description,
		Reference:   req.Reference,
		Status:      req.Status,
		Lines:       req.Lines,
		EnteredBy:   mW.UserID(r.Context()),
		Notes:       req.Notes,
	})
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusCreated, entry)
}

// ListEntries lists the store's journal entries
// @Summary List journal entries
// @Tags Journal
// @Produce json
// @Security BearerAuth
// @Param status query string false "draft, posted or reversed"
// @Param type query string false "manual, auto or reversal"
// @Param from query string false "Earliest entry date (YYYY-MM-DD)"
// @Param to query string false "Latest entry date (YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.JournalEntry
// @Failure 400 {object} services.ErrorResponse
// @Router /journal-entries [get]
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
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
	offset, err := intQuery(r, "offset")
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	status := models.EntryStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.EntryStatusDraft, models.EntryStatusPosted, models.EntryStatusReversed:
	default:
		services.SendErrorResponse(w, "Unknown status filter", http.StatusBadRequest, nil)
		return
	}

	entries, err := h.service.ListEntries(r.Context(), services.EntryFilter{
		StoreID:   mW.StoreID(r.Context()),
		Status:    status,
		EntryType: models.EntryType(r.URL.Query().Get("type")),
		Range:     dr,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, entries)
}

// GetEntry returns one journal entry with its lines
// @Summary Get journal entry
// @Tags Journal
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} models.JournalEntry
// @Failure 404 {object} services.ErrorResponse
// @Router /journal-entries/{id} [get]
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}
	services.SendJSON(w, http.StatusOK, entry)
}

// UpdateEntry patches a draft entry
// @Summary Update draft journal entry
// @Description Patch header fields; a lines array replaces every line
// @Tags Journal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param request body UpdateEntryRequest true "Fields to change"
// @Success 200 {object} models.JournalEntry
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /journal-entries/{id} [put]
func (h *JournalHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	patch := services.EntryPatch{
		Description: req.Description,
		Reference:   req.Reference,
		Notes:       req.Notes,
		Lines:       req.Lines,
	}
	if req.EntryDate != nil {
		patch.EntryDate, _ = parseDate(*req.EntryDate)
	}

	updated, err := h.service.Update(r.Context(), entry.ID, patch)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, updated)
}

// DeleteEntry removes a draft entry
// @Summary Delete draft journal entry
// @Tags Journal
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /journal-entries/{id} [delete]
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), entry.ID); err != nil {
		services.SendLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostEntry posts a draft entry
// @Summary Post journal entry
// @Tags Journal
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} models.JournalEntry
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /journal-entries/{id}/post [post]
func (h *JournalHandler) PostEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}
	posted, err := h.service.Post(r.Context(), entry.ID, mW.UserID(r.Context()))
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, posted)
}

// ReverseEntry cancels a posted entry with a mirrored reversal entry
// @Summary Reverse journal entry
// @Tags Journal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param request body ReverseEntryRequest false "Reversal date, defaults to today"
// @Success 201 {object} models.JournalEntry
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /journal-entries/{id}/reverse [post]
func (h *JournalHandler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.ownedEntry(w, r)
	if !ok {
		return
	}

	var req ReverseEntryRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	reversalDate, _ := parseDate(req.ReversalDate)

	reversal, err := h.service.Reverse(r.Context(), entry.ID, mW.UserID(r.Context()), reversalDate)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusCreated, reversal)
}

// ownedEntry loads the entry named in the path and hides entries of other
// stores behind a 404.
func (h *JournalHandler) ownedEntry(w http.ResponseWriter, r *http.Request) (*models.JournalEntry, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		services.SendErrorResponse(w, "Invalid entry id", http.StatusBadRequest, nil)
		return nil, false
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		services.SendLedgerError(w, err)
		return nil, false
	}
	if entry.StoreID != mW.StoreID(r.Context()) {
		services.SendErrorResponse(w, "Journal entry not found", http.StatusNotFound, nil)
		return nil, false
	}
	return entry, true
}
