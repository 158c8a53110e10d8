package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/retailops/backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCashStore is deliberately unsynchronized: the service's store lock is
// the only thing keeping concurrent writers apart.
type memCashStore struct {
	balances map[int64]decimal.Decimal
	log      []models.CashTransaction
	failNext error
}

func newMemCashStore() *memCashStore {
	return &memCashStore{balances: make(map[int64]decimal.Decimal)}
}

func (m *memCashStore) GetAccount(_ context.Context, storeID int64) (*models.CashLedgerAccount, error) {
	return &models.CashLedgerAccount{StoreID: storeID, CurrentBalance: m.balances[storeID]}, nil
}

func (m *memCashStore) ApplyDelta(_ context.Context, t *models.CashTransaction) error {
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	before := m.balances[t.StoreID]
	// Yield between read and write so an unserialized caller would lose updates.
	time.Sleep(time.Microsecond)
	t.BalanceBefore = before
	t.BalanceAfter = before.Add(t.Amount)
	m.balances[t.StoreID] = t.BalanceAfter
	m.log = append(m.log, *t)
	return nil
}

func (m *memCashStore) ExistsBySource(_ context.Context, storeID int64, txType string, sourceID int64) (bool, error) {
	for _, t := range m.log {
		if t.StoreID == storeID && t.TransactionType == txType && t.SourceID != nil && *t.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCashStore) ListBySource(_ context.Context, storeID int64, txType string, sourceID int64) ([]models.CashTransaction, error) {
	var out []models.CashTransaction
	for _, t := range m.log {
		sameType := t.TransactionType == txType || t.TransactionType == txType+models.CashTxReversalSuffix
		if t.StoreID == storeID && sameType && t.SourceID != nil && *t.SourceID == sourceID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memCashStore) ListTransactions(_ context.Context, storeID int64, _ models.DateRange, limit int) ([]models.CashTransaction, error) {
	var out []models.CashTransaction
	for i := len(m.log) - 1; i >= 0 && len(out) < limit; i-- {
		if m.log[i].StoreID == storeID {
			out = append(out, m.log[i])
		}
	}
	return out, nil
}

func (m *memCashStore) Reset(_ context.Context, storeID int64) (int64, error) {
	kept := m.log[:0]
	var purged int64
	for _, t := range m.log {
		if t.StoreID == storeID {
			purged++
			continue
		}
		kept = append(kept, t)
	}
	m.log = kept
	m.balances[storeID] = decimal.Zero
	return purged, nil
}

func newTestCashLedger() (*CashLedgerService, *memCashStore) {
	store := newMemCashStore()
	svc := NewCashLedgerService(store, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func int64Ptr(v int64) *int64 { return &v }

func TestCashLedgerService_UpdateBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("chains before and after", func(t *testing.T) {
		svc, store := newTestCashLedger()

		first, err := svc.AddCash(ctx, CashUpdate{StoreID: 7, Amount: dec("-150"), TransactionType: models.CashTxRevenue})
		require.NoError(t, err)
		second, err := svc.SubtractCash(ctx, CashUpdate{StoreID: 7, Amount: dec("40"), TransactionType: models.CashTxExpense})
		require.NoError(t, err)

		assert.True(t, first.Amount.Equal(dec("150")))
		assert.True(t, first.BalanceBefore.IsZero())
		assert.True(t, second.Amount.Equal(dec("-40")))
		assert.True(t, second.BalanceBefore.Equal(first.BalanceAfter))
		assert.True(t, store.balances[7].Equal(dec("110")))
		assert.Equal(t, dateOnly(fixedNow), second.TransactionDate)
	})

	t.Run("zero amount is rejected", func(t *testing.T) {
		svc, store := newTestCashLedger()

		_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: decimal.Zero})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Empty(t, store.log)
	})

	t.Run("fractional cents are rejected", func(t *testing.T) {
		svc, store := newTestCashLedger()

		_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("-0.005")})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, _, err = svc.RecordOnce(ctx, CashUpdate{StoreID: 7, Amount: dec("10.125"), SourceID: int64Ptr(4)})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Empty(t, store.log)
	})

	t.Run("type defaults to adjustment", func(t *testing.T) {
		svc, _ := newTestCashLedger()

		tx, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("5")})
		require.NoError(t, err)
		assert.Equal(t, models.CashTxAdjustment, tx.TransactionType)
	})

	t.Run("store failure leaves balance alone", func(t *testing.T) {
		svc, store := newTestCashLedger()
		store.failNext = errors.New("deadlock detected")

		_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("5")})
		assert.ErrorContains(t, err, "deadlock detected")
		assert.True(t, store.balances[7].IsZero())
		assert.Empty(t, store.log)
	})

	t.Run("concurrent updates keep the chain intact", func(t *testing.T) {
		svc, store := newTestCashLedger()
		_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("1000")})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				amount := dec("2.50")
				if i%2 == 0 {
					amount = dec("-1.25")
				}
				_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: amount})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		// 25 inflows of 2.50 and 25 outflows of 1.25.
		assert.True(t, store.balances[7].Equal(dec("1031.25")), "got %s", store.balances[7])
		require.Len(t, store.log, 51)
		for i := 1; i < len(store.log); i++ {
			assert.True(t, store.log[i].BalanceBefore.Equal(store.log[i-1].BalanceAfter), "chain broken at %d", i)
		}
	})
}

func TestCashLedgerService_RecordOnce(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestCashLedger()
	u := CashUpdate{StoreID: 7, Amount: dec("-60"), TransactionType: models.CashTxExpense, SourceID: int64Ptr(11)}

	tx, written, err := svc.RecordOnce(ctx, u)
	require.NoError(t, err)
	assert.True(t, written)
	assert.NotNil(t, tx)

	tx, written, err = svc.RecordOnce(ctx, u)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Nil(t, tx)

	assert.Len(t, store.log, 1)
	assert.True(t, store.balances[7].Equal(dec("-60")))

	_, _, err = svc.RecordOnce(ctx, CashUpdate{StoreID: 7, Amount: dec("5")})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCashLedgerService_ReversePaymentTransactions(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestCashLedger()

	_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("500")})
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("-120"), TransactionType: models.CashTxPayment, SourceID: int64Ptr(31)})
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("-30"), TransactionType: models.CashTxPayment, SourceID: int64Ptr(31)})
	require.NoError(t, err)

	reversal, err := svc.ReversePaymentTransactions(ctx, 7, models.CashTxPayment, 31, int64Ptr(3), time.Time{})
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.True(t, reversal.Amount.Equal(dec("150")))
	assert.Equal(t, "payment_reversal", reversal.TransactionType)
	assert.Equal(t, int64(31), *reversal.SourceID)
	assert.True(t, store.balances[7].Equal(dec("500")))

	again, err := svc.ReversePaymentTransactions(ctx, 7, models.CashTxPayment, 31, int64Ptr(3), time.Time{})
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, store.log, 4)

	none, err := svc.ReversePaymentTransactions(ctx, 7, models.CashTxPayment, 99, nil, time.Time{})
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = svc.ReversePaymentTransactions(ctx, 7, "", 31, nil, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCashLedgerService_ReverseKeepsOtherSourceTypes(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestCashLedger()

	_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("-50"), TransactionType: models.CashTxExpense, SourceID: int64Ptr(5)})
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("300"), TransactionType: models.CashTxRevenue, SourceID: int64Ptr(5)})
	require.NoError(t, err)

	reversal, err := svc.ReversePaymentTransactions(ctx, 7, models.CashTxExpense, 5, nil, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.Equal(t, "expense_reversal", reversal.TransactionType)
	assert.True(t, reversal.Amount.Equal(dec("50")))
	assert.True(t, store.balances[7].Equal(dec("300")))

	again, err := svc.ReversePaymentTransactions(ctx, 7, models.CashTxExpense, 5, nil, time.Time{})
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestCashLedgerService_ResetBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestCashLedger()

	_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("80")})
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, CashUpdate{StoreID: 8, Amount: dec("15")})
	require.NoError(t, err)

	require.NoError(t, svc.ResetBalance(ctx, 7, 1))

	acct, err := svc.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, acct.CurrentBalance.IsZero())
	assert.True(t, store.balances[8].Equal(dec("15")))
	require.Len(t, store.log, 1)
	assert.Equal(t, int64(8), store.log[0].StoreID)
}

func TestCashLedgerService_GetTransactionHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCashLedger()

	history, err := svc.GetTransactionHistory(ctx, 7, models.DateRange{}, 0)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	for i := 0; i < 3; i++ {
		_, err := svc.UpdateBalance(ctx, CashUpdate{StoreID: 7, Amount: dec("1")})
		require.NoError(t, err)
	}

	history, err = svc.GetTransactionHistory(ctx, 7, models.DateRange{}, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].BalanceAfter.Equal(dec("3")))
}

type limitRecorder struct {
	memCashStore
	limit int
}

func (r *limitRecorder) ListTransactions(ctx context.Context, storeID int64, dr models.DateRange, limit int) ([]models.CashTransaction, error) {
	r.limit = limit
	return nil, nil
}

func TestCashLedgerService_HistoryLimitIsClamped(t *testing.T) {
	rec := &limitRecorder{memCashStore: *newMemCashStore()}
	svc := NewCashLedgerService(rec, nil)

	_, err := svc.GetTransactionHistory(context.Background(), 7, models.DateRange{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, rec.limit)

	_, err = svc.GetTransactionHistory(context.Background(), 7, models.DateRange{}, 50_000)
	require.NoError(t, err)
	assert.Equal(t, 1000, rec.limit)
}

func TestStoreLocks(t *testing.T) {
	locks := newStoreLocks()

	unlock7 := locks.lock(7)
	// A different store is not blocked by store 7.
	unlock8 := locks.lock(8)
	unlock8()
	unlock7()

	unlock7 = locks.lock(7)
	unlock7()
	assert.Len(t, locks.locks, 2, "one mutex per store, reused across calls")
}
