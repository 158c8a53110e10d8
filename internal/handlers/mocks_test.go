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
	"github.com/stretchr/testify/mock"
)

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) Create(ctx context.Context, in services.CreateEntryInput) (*models.JournalEntry, error) {
	args := m.Called(ctx, in)
	return entryOrNil(args.Get(0)), args.Error(1)
}

func (m *MockJournalService) Post(ctx context.Context, entryID uuid.UUID, postedBy int64) (*models.JournalEntry, error) {
	args := m.Called(ctx, entryID, postedBy)
	return entryOrNil(args.Get(0)), args.Error(1)
}

func (m *MockJournalService) Update(ctx context.Context, entryID uuid.UUID, patch services.EntryPatch) (*models.JournalEntry, error) {
	args := m.Called(ctx, entryID, patch)
	return entryOrNil(args.Get(0)), args.Error(1)
}

func (m *MockJournalService) Delete(ctx context.Context, entryID uuid.UUID) error {
	return m.Called(ctx, entryID).Error(0)
}

func (m *MockJournalService) Reverse(ctx context.Context, entryID uuid.UUID, reversedBy int64, reversalDate *time.Time) (*models.JournalEntry, error) {
	args := m.Called(ctx, entryID, reversedBy, reversalDate)
	return entryOrNil(args.Get(0)), args.Error(1)
}

func (m *MockJournalService) GetEntry(ctx context.Context, entryID uuid.UUID) (*models.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	return entryOrNil(args.Get(0)), args.Error(1)
}

func (m *MockJournalService) ListEntries(ctx context.Context, f services.EntryFilter) ([]models.JournalEntry, error) {
	args := m.Called(ctx, f)
	entries, _ := args.Get(0).([]models.JournalEntry)
	return entries, args.Error(1)
}

func entryOrNil(v any) *models.JournalEntry {
	e, _ := v.(*models.JournalEntry)
	return e
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GetAccountLedger(ctx context.Context, storeID, accountID int64, dr models.DateRange) ([]models.LedgerLine, error) {
	args := m.Called(ctx, storeID, accountID, dr)
	lines, _ := args.Get(0).([]models.LedgerLine)
	return lines, args.Error(1)
}

func (m *MockReportService) GetAccountBalance(ctx context.Context, storeID, accountID int64, asOf *time.Time) (*models.AccountBalance, error) {
	args := m.Called(ctx, storeID, accountID, asOf)
	bal, _ := args.Get(0).(*models.AccountBalance)
	return bal, args.Error(1)
}

func (m *MockReportService) GetTrialBalance(ctx context.Context, storeID int64, asOf *time.Time) (*models.TrialBalance, error) {
	args := m.Called(ctx, storeID, asOf)
	tb, _ := args.Get(0).(*models.TrialBalance)
	return tb, args.Error(1)
}

type MockCashService struct {
	mock.Mock
}

func (m *MockCashService) GetBalance(ctx context.Context, storeID int64) (*models.CashLedgerAccount, error) {
	args := m.Called(ctx, storeID)
	acct, _ := args.Get(0).(*models.CashLedgerAccount)
	return acct, args.Error(1)
}

func (m *MockCashService) UpdateBalance(ctx context.Context, u services.CashUpdate) (*models.CashTransaction, error) {
	args := m.Called(ctx, u)
	t, _ := args.Get(0).(*models.CashTransaction)
	return t, args.Error(1)
}

func (m *MockCashService) ReversePaymentTransactions(ctx context.Context, storeID int64, txType string, sourceID int64, actorID *int64, date time.Time) (*models.CashTransaction, error) {
	args := m.Called(ctx, storeID, txType, sourceID, actorID, date)
	t, _ := args.Get(0).(*models.CashTransaction)
	return t, args.Error(1)
}

func (m *MockCashService) ResetBalance(ctx context.Context, storeID, actorID int64) error {
	return m.Called(ctx, storeID, actorID).Error(0)
}

func (m *MockCashService) GetTransactionHistory(ctx context.Context, storeID int64, dr models.DateRange, limit int) ([]models.CashTransaction, error) {
	args := m.Called(ctx, storeID, dr, limit)
	txs, _ := args.Get(0).([]models.CashTransaction)
	return txs, args.Error(1)
}

type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) ExpenseRecorded(ctx context.Context, e *models.Expense) services.EventResult {
	return m.Called(ctx, e).Get(0).(services.EventResult)
}

func (m *MockEventSink) PurchaseInvoiceRecorded(ctx context.Context, inv *models.PurchaseInvoice) services.EventResult {
	return m.Called(ctx, inv).Get(0).(services.EventResult)
}

func (m *MockEventSink) InvoicePaymentRecorded(ctx context.Context, p *models.InvoicePayment) services.EventResult {
	return m.Called(ctx, p).Get(0).(services.EventResult)
}

func (m *MockEventSink) ReimbursementSettled(ctx context.Context, r *models.ReimbursementSettlement) services.EventResult {
	return m.Called(ctx, r).Get(0).(services.EventResult)
}

func (m *MockEventSink) DailyRevenueRecorded(ctx context.Context, rev *models.DailyRevenue) services.EventResult {
	return m.Called(ctx, rev).Get(0).(services.EventResult)
}

// asUser mounts routes behind a stub of the auth middleware.
func asUser(userID, storeID int64, role string, mount func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(mW.WithIdentity(req.Context(), userID, storeID, role)))
		})
	})
	mount(r)
	return r
}
