package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/audit"
	"github.com/retailops/backoffice/internal/config"
	"github.com/retailops/backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// CashUpdate describes one signed movement of a store's cash on hand.
type CashUpdate struct {
	StoreID         int64           `json:"-"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	TransactionType string          `json:"transaction_type" validate:"omitempty,max=50"`
	SourceID        *int64          `json:"source_id,omitempty" validate:"omitempty,gt=0"`
	Date            time.Time       `json:"transaction_date"`
	Description     string          `json:"description,omitempty" validate:"max=500"`
	EnteredBy       *int64          `json:"-"`
}

// CashLedgerService keeps the running cash counter of each store and its
// append-only log. Every mutation for a store runs under that store's lock,
// so the log's before/after chain never forks.
type CashLedgerService struct {
	store  CashStore
	config *config.LedgerConfig
	audit  *audit.Logger
	locks  *storeLocks
	now    func() time.Time
}

func NewCashLedgerService(store CashStore, cfg *config.LedgerConfig) *CashLedgerService {
	if cfg == nil {
		cfg = config.DefaultLedgerConfig()
	}
	return &CashLedgerService{
		store:  store,
		config: cfg,
		audit:  audit.NewLogger(),
		locks:  newStoreLocks(),
		now:    time.Now,
	}
}

// storeLocks hands out one mutex per store id. Entries are never pruned;
// the map grows with the number of stores, not with traffic.
type storeLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newStoreLocks() *storeLocks {
	return &storeLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *storeLocks) lock(storeID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[storeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[storeID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *CashLedgerService) GetBalance(ctx context.Context, storeID int64) (*models.CashLedgerAccount, error) {
	return s.store.GetAccount(ctx, storeID)
}

// UpdateBalance applies a signed amount and returns the logged transaction.
func (s *CashLedgerService) UpdateBalance(ctx context.Context, u CashUpdate) (*models.CashTransaction, error) {
	if u.Amount.IsZero() {
		return nil, fmt.Errorf("%w: cash movement must be non-zero", ErrInvalidAmount)
	}
	if !wholeCents(u.Amount) {
		return nil, fmt.Errorf("%w: %s has fractional cents", ErrInvalidAmount, u.Amount)
	}
	unlock := s.locks.lock(u.StoreID)
	defer unlock()
	return s.apply(ctx, u)
}

// AddCash records an inflow; the sign of u.Amount is ignored.
func (s *CashLedgerService) AddCash(ctx context.Context, u CashUpdate) (*models.CashTransaction, error) {
	u.Amount = u.Amount.Abs()
	return s.UpdateBalance(ctx, u)
}

// SubtractCash records an outflow; the sign of u.Amount is ignored.
func (s *CashLedgerService) SubtractCash(ctx context.Context, u CashUpdate) (*models.CashTransaction, error) {
	u.Amount = u.Amount.Abs().Neg()
	return s.UpdateBalance(ctx, u)
}

// RecordOnce applies u unless a transaction of the same type for the same
// source already exists. It reports whether a transaction was written.
func (s *CashLedgerService) RecordOnce(ctx context.Context, u CashUpdate) (*models.CashTransaction, bool, error) {
	if u.SourceID == nil {
		return nil, false, fmt.Errorf("%w: source id is required", ErrInvalidAmount)
	}
	if u.Amount.IsZero() {
		return nil, false, fmt.Errorf("%w: cash movement must be non-zero", ErrInvalidAmount)
	}
	if !wholeCents(u.Amount) {
		return nil, false, fmt.Errorf("%w: %s has fractional cents", ErrInvalidAmount, u.Amount)
	}
	unlock := s.locks.lock(u.StoreID)
	defer unlock()

	exists, err := s.store.ExistsBySource(ctx, u.StoreID, u.TransactionType, *u.SourceID)
	if err != nil {
		return nil, false, err
	}
	if exists {
		log.Printf("[CASH_LEDGER] %s for source %d already recorded for store %d", u.TransactionType, *u.SourceID, u.StoreID)
		return nil, false, nil
	}

	t, err := s.apply(ctx, u)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// ReversePaymentTransactions nets every txType transaction logged against
// sourceID, together with earlier reversals of them, and appends one
// compensating transaction that brings the net to zero. Source ids are only
// unique within a type. It returns nil when there is nothing left to reverse.
func (s *CashLedgerService) ReversePaymentTransactions(ctx context.Context, storeID int64, txType string, sourceID int64, actorID *int64, date time.Time) (*models.CashTransaction, error) {
	txType = strings.TrimSuffix(txType, models.CashTxReversalSuffix)
	if txType == "" {
		return nil, fmt.Errorf("%w: transaction type is required", ErrInvalidAmount)
	}
	unlock := s.locks.lock(storeID)
	defer unlock()

	prior, err := s.store.ListBySource(ctx, storeID, txType, sourceID)
	if err != nil {
		return nil, err
	}

	net := decimal.Zero
	for _, t := range prior {
		net = net.Add(t.Amount)
	}
	if net.IsZero() {
		log.Printf("[CASH_LEDGER] Nothing to reverse for %s %d in store %d", txType, sourceID, storeID)
		return nil, nil
	}

	src := sourceID
	return s.apply(ctx, CashUpdate{
		StoreID:         storeID,
		Amount:          net.Neg(),
		TransactionType: txType + models.CashTxReversalSuffix,
		SourceID:        &src,
		Date:            date,
		Description:     fmt.Sprintf("Reversal of %d cash transaction(s) for %s %d", len(prior), txType, sourceID),
		EnteredBy:       actorID,
	})
}

// ResetBalance purges the store's cash log and zeroes its balance.
func (s *CashLedgerService) ResetBalance(ctx context.Context, storeID, actorID int64) error {
	unlock := s.locks.lock(storeID)
	defer unlock()

	purged, err := s.store.Reset(ctx, storeID)
	if err != nil {
		s.audit.LogError("CASH_RESET", storeID, "", err)
		return fmt.Errorf("reset cash ledger: %w", err)
	}

	cashUpdatesTotal.WithLabelValues("reset").Inc()
	s.audit.LogCash(storeID, "", "RESET", "0", "", "0", actorID)
	log.Printf("[CASH_LEDGER] Reset cash balance for store %d, purged %d transactions", storeID, purged)
	return nil
}

// GetTransactionHistory returns the newest transactions first.
func (s *CashLedgerService) GetTransactionHistory(ctx context.Context, storeID int64, dr models.DateRange, limit int) ([]models.CashTransaction, error) {
	if limit <= 0 {
		limit = s.config.CashHistoryLimit
	}
	if limit > s.config.MaxCashHistory {
		limit = s.config.MaxCashHistory
	}
	txs, err := s.store.ListTransactions(ctx, storeID, dr, limit)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.CashTransaction{}
	}
	return txs, nil
}

// apply must be called with the store lock held.
func (s *CashLedgerService) apply(ctx context.Context, u CashUpdate) (*models.CashTransaction, error) {
	now := s.now()
	date := u.Date
	if date.IsZero() {
		date = now
	}
	txType := u.TransactionType
	if txType == "" {
		txType = models.CashTxAdjustment
	}

	t := &models.CashTransaction{
		ID:              uuid.New(),
		StoreID:         u.StoreID,
		TransactionDate: dateOnly(date),
		TransactionType: txType,
		SourceID:        u.SourceID,
		Amount:          u.Amount,
		Description:     u.Description,
		EnteredBy:       u.EnteredBy,
		CreatedAt:       now,
	}
	if err := s.store.ApplyDelta(ctx, t); err != nil {
		s.audit.LogError("CASH_"+strings.ToUpper(txType), u.StoreID, t.ID.String(), err)
		return nil, fmt.Errorf("apply cash %s: %w", txType, err)
	}

	var actor int64
	if u.EnteredBy != nil {
		actor = *u.EnteredBy
	}
	cashUpdatesTotal.WithLabelValues(txType).Inc()
	s.audit.LogCash(u.StoreID, t.ID.String(), strings.ToUpper(txType), t.Amount.StringFixed(2),
		t.BalanceBefore.StringFixed(2), t.BalanceAfter.StringFixed(2), actor)
	log.Printf("[CASH_LEDGER] Store %d %s %s: %s -> %s", u.StoreID, txType, t.Amount.StringFixed(2),
		t.BalanceBefore.StringFixed(2), t.BalanceAfter.StringFixed(2))
	return t, nil
}
