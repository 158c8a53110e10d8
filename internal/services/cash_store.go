package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// CashStore persists the per-store cash counter and its transaction log.
type CashStore interface {
	// GetAccount returns the store's cash row, creating it at zero if absent.
	GetAccount(ctx context.Context, storeID int64) (*models.CashLedgerAccount, error)
	// ApplyDelta reads the current balance, fills BalanceBefore and
	// BalanceAfter on t, appends t to the log and moves the counter, all as
	// one unit.
	ApplyDelta(ctx context.Context, t *models.CashTransaction) error
	ExistsBySource(ctx context.Context, storeID int64, txType string, sourceID int64) (bool, error)
	ListBySource(ctx context.Context, storeID int64, txType string, sourceID int64) ([]models.CashTransaction, error)
	ListTransactions(ctx context.Context, storeID int64, dr models.DateRange, limit int) ([]models.CashTransaction, error)
	// Reset deletes the store's log and zeroes the counter. It returns the
	// number of transactions removed.
	Reset(ctx context.Context, storeID int64) (int64, error)
}

type SQLCashStore struct {
	db *sql.DB
}

var _ CashStore = (*SQLCashStore)(nil)

func NewSQLCashStore(db *sql.DB) *SQLCashStore {
	return &SQLCashStore{db: db}
}

const cashTxColumns = `id, store_id, transaction_date, transaction_type, source_id, amount,
	balance_before, balance_after, description, entered_by, created_at`

func (s *SQLCashStore) GetAccount(ctx context.Context, storeID int64) (*models.CashLedgerAccount, error) {
	var (
		acct   models.CashLedgerAccount
		lastTx uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cash_on_hand (store_id, current_balance, last_updated)
		VALUES ($1, 0, NOW())
		ON CONFLICT (store_id) DO UPDATE SET store_id = EXCLUDED.store_id
		RETURNING store_id, current_balance, last_transaction_id, last_updated`, storeID).
		Scan(&acct.StoreID, &acct.CurrentBalance, &lastTx, &acct.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("load cash balance: %w", err)
	}
	if lastTx.Valid {
		acct.LastTransactionID = &lastTx.UUID
	}
	return &acct, nil
}

// ApplyDelta holds the cash_on_hand row lock from the balance read until
// commit, so writers in other processes queue behind it.
func (s *SQLCashStore) ApplyDelta(ctx context.Context, t *models.CashTransaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cash_on_hand (store_id, current_balance, last_updated)
		VALUES ($1, 0, $2)
		ON CONFLICT (store_id) DO NOTHING`, t.StoreID, t.CreatedAt); err != nil {
		return fmt.Errorf("init cash balance: %w", err)
	}

	var before decimal.Decimal
	if err := tx.QueryRowContext(ctx, `
		SELECT current_balance FROM cash_on_hand
		WHERE store_id = $1
		FOR UPDATE`, t.StoreID).Scan(&before); err != nil {
		return fmt.Errorf("lock cash balance: %w", err)
	}

	t.BalanceBefore = before
	t.BalanceAfter = before.Add(t.Amount)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cash_transactions (`+cashTxColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.StoreID, t.TransactionDate, t.TransactionType, nullInt64(t.SourceID), t.Amount,
		t.BalanceBefore, t.BalanceAfter, t.Description, nullInt64(t.EnteredBy), t.CreatedAt); err != nil {
		return fmt.Errorf("append cash transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE cash_on_hand
		SET current_balance = $1, last_transaction_id = $2, last_updated = $3
		WHERE store_id = $4`,
		t.BalanceAfter, t.ID, t.CreatedAt, t.StoreID); err != nil {
		return fmt.Errorf("update cash balance: %w", err)
	}

	return tx.Commit()
}

func (s *SQLCashStore) ExistsBySource(ctx context.Context, storeID int64, txType string, sourceID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM cash_transactions
			WHERE store_id = $1 AND transaction_type = $2 AND source_id = $3
		)`, storeID, txType, sourceID).Scan(&exists)
	return exists, err
}

// ListBySource returns the txType transactions of one source and their
// reversals, oldest first.
func (s *SQLCashStore) ListBySource(ctx context.Context, storeID int64, txType string, sourceID int64) ([]models.CashTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cashTxColumns+`
		FROM cash_transactions
		WHERE store_id = $1 AND transaction_type IN ($2, $3) AND source_id = $4
		ORDER BY seq`, storeID, txType, txType+models.CashTxReversalSuffix, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCashTransactions(rows)
}

// ListTransactions returns the newest transactions first.
func (s *SQLCashStore) ListTransactions(ctx context.Context, storeID int64, dr models.DateRange, limit int) ([]models.CashTransaction, error) {
	where := []string{"store_id = $1"}
	args := []any{storeID}
	where, args = appendDateRange(where, args, "transaction_date", dr)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM cash_transactions
		WHERE %s
		ORDER BY seq DESC
		LIMIT $%d`, cashTxColumns, strings.Join(where, " AND "), len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCashTransactions(rows)
}

func (s *SQLCashStore) Reset(ctx context.Context, storeID int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cash_on_hand (store_id, current_balance, last_updated)
		VALUES ($1, 0, $2)
		ON CONFLICT (store_id) DO UPDATE
		SET current_balance = 0, last_transaction_id = NULL, last_updated = $2`,
		storeID, now); err != nil {
		return 0, fmt.Errorf("zero cash balance: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM cash_transactions WHERE store_id = $1`, storeID)
	if err != nil {
		return 0, fmt.Errorf("purge cash transactions: %w", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return purged, tx.Commit()
}

func scanCashTransactions(rows *sql.Rows) ([]models.CashTransaction, error) {
	var out []models.CashTransaction
	for rows.Next() {
		var (
			t         models.CashTransaction
			sourceID  sql.NullInt64
			enteredBy sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.StoreID, &t.TransactionDate, &t.TransactionType, &sourceID, &t.Amount,
			&t.BalanceBefore, &t.BalanceAfter, &t.Description, &enteredBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		if sourceID.Valid {
			t.SourceID = &sourceID.Int64
		}
		if enteredBy.Valid {
			t.EnteredBy = &enteredBy.Int64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
