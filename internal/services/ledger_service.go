package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/retailops/backoffice/internal/audit"
	"github.com/retailops/backoffice/internal/config"
	"github.com/retailops/backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// LineInput is one debit or credit line submitted for a journal entry.
type LineInput struct {
	AccountID    int64           `json:"account_id" validate:"required,gt=0"`
	DebitAmount  decimal.Decimal `json:"debit_amount" validate:"gte=0"`
	CreditAmount decimal.Decimal `json:"credit_amount" validate:"gte=0"`
	Description  string          `json:"description,omitempty" validate:"max=500"`
}

type CreateEntryInput struct {
	StoreID     int64
	EntryDate   time.Time
	EntryType   models.EntryType
	Description string
	Reference   *models.Reference
	Status      models.EntryStatus
	Lines       []LineInput
	EnteredBy   int64
	Notes       string
}

// EntryPatch changes a draft entry. Nil fields are left alone; a non-nil
// Lines replaces the whole line set.
type EntryPatch struct {
	EntryDate   *time.Time
	Description *string
	Reference   *models.Reference
	Notes       *string
	Lines       []LineInput
}

type EntryFilter struct {
	StoreID   int64
	Status    models.EntryStatus
	EntryType models.EntryType
	Range     models.DateRange
	Limit     int
	Offset    int
}

// JournalWriter is the part of the ledger the auto-posting adapter drives.
type JournalWriter interface {
	Create(ctx context.Context, in CreateEntryInput) (*models.JournalEntry, error)
	FindByReference(ctx context.Context, storeID int64, ref models.Reference) (*models.JournalEntry, error)
}

// LedgerService owns the journal entry lifecycle and the balance reads
// derived from posted entries.
type LedgerService struct {
	db     *sql.DB
	config *config.LedgerConfig
	audit  *audit.Logger
	now    func() time.Time
}

var _ JournalWriter = (*LedgerService)(nil)

func NewLedgerService(db *sql.DB, cfg *config.LedgerConfig) *LedgerService {
	if cfg == nil {
		cfg = config.DefaultLedgerConfig()
	}
	return &LedgerService{
		db:     db,
		config: cfg,
		audit:  audit.NewLogger(),
		now:    time.Now,
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const entryColumns = `e.id, e.store_id, e.entry_number, e.entry_date, e.entry_type, e.description,
	e.reference_type, e.reference_id, e.reversal_of_id, e.status, e.total_debit, e.total_credit,
	e.is_balanced, e.entered_by, e.posted_by, e.posted_at, e.reversed_by, e.reversed_at,
	e.reversal_entry_id, e.notes, e.created_at, e.updated_at`

// countedStatuses limits balance reads to entries that were posted. A
// reversed original still counts; its reversal entry offsets it.
const countedStatuses = `('posted', 'reversed')`

// Create validates and persists a journal entry with its lines in one
// transaction. Status must be draft or posted.
func (s *LedgerService) Create(ctx context.Context, in CreateEntryInput) (*models.JournalEntry, error) {
	if in.Status == "" {
		in.Status = models.EntryStatusDraft
	}
	if in.Status == models.EntryStatusReversed {
		return nil, fmt.Errorf("%w: entries cannot be created as reversed", ErrInvalidTransition)
	}
	if in.EntryType == "" {
		in.EntryType = models.EntryTypeManual
	}

	totalDebit, totalCredit, err := s.validateLines(in.Lines)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.checkAccounts(ctx, tx, in.StoreID, in.Lines); err != nil {
		return nil, err
	}

	number, err := s.nextEntryNumber(ctx, tx, in.StoreID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.JournalEntry{
		ID:          uuid.New(),
		StoreID:     in.StoreID,
		EntryNumber: number,
		EntryDate:   dateOnly(in.EntryDate),
		EntryType:   in.EntryType,
		Description: in.Description,
		Reference:   in.Reference,
		Status:      in.Status,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		IsBalanced:  true,
		EnteredBy:   in.EnteredBy,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status == models.EntryStatusPosted {
		entry.PostedBy = &in.EnteredBy
		entry.PostedAt = &now
	}

	if err := s.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := s.insertLines(ctx, tx, entry.ID, in.Lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	journalOpsTotal.WithLabelValues("create").Inc()
	s.audit.LogJournal("CREATE", entry.StoreID, entry.ID.String(), entry.EntryNumber, entry.EnteredBy, totalDebit.StringFixed(2))
	log.Printf("[LEDGER] Created %s entry %s (%s) for store %d, total %s", entry.Status, entry.EntryNumber, entry.ID, entry.StoreID, totalDebit.StringFixed(2))

	return s.GetEntry(ctx, entry.ID)
}

// Post moves a draft entry to posted.
func (s *LedgerService) Post(ctx context.Context, entryID uuid.UUID, postedBy int64) (*models.JournalEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	head, err := s.lockEntry(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	next, err := head.status.Post()
	if err != nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyPosted, head.number, head.status)
	}
	if !head.isBalanced {
		return nil, fmt.Errorf("%w: %s", ErrUnbalancedEntry, head.number)
	}

	now := s.now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE journal_entries SET status = $1, posted_by = $2, posted_at = $3, updated_at = $3
		WHERE id = $4`,
		string(next), postedBy, now, entryID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	journalOpsTotal.WithLabelValues("post").Inc()
	s.audit.LogJournal("POST", head.storeID, entryID.String(), head.number, postedBy, head.totalDebit.StringFixed(2))
	return s.GetEntry(ctx, entryID)
}

// Update patches a draft entry. Replacing lines re-validates the balance.
func (s *LedgerService) Update(ctx context.Context, entryID uuid.UUID, patch EntryPatch) (*models.JournalEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	head, err := s.lockEntry(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if !head.status.Editable() {
		return nil, fmt.Errorf("%w: %s is %s", ErrPostedImmutable, head.number, head.status)
	}

	var totalDebit, totalCredit, balanced any
	if patch.Lines != nil {
		d, c, err := s.validateLines(patch.Lines)
		if err != nil {
			return nil, err
		}
		totalDebit, totalCredit, balanced = d, c, true

		if err := s.checkAccounts(ctx, tx, head.storeID, patch.Lines); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM journal_entry_lines WHERE entry_id = $1`, entryID); err != nil {
			return nil, err
		}
		if err := s.insertLines(ctx, tx, entryID, patch.Lines); err != nil {
			return nil, err
		}
	}

	var entryDate any
	if patch.EntryDate != nil {
		entryDate = dateOnly(*patch.EntryDate)
	}
	var refType, refID any
	if patch.Reference != nil {
		refType, refID = patch.Reference.Type, patch.Reference.ID
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE journal_entries SET
			entry_date = COALESCE($1, entry_date),
			description = COALESCE($2, description),
			reference_type = COALESCE($3, reference_type),
			reference_id = COALESCE($4, reference_id),
			notes = COALESCE($5, notes),
			total_debit = COALESCE($6, total_debit),
			total_credit = COALESCE($7, total_credit),
			is_balanced = COALESCE($8, is_balanced),
			updated_at = $9
		WHERE id = $10`,
		entryDate, patch.Description, refType, refID, patch.Notes, totalDebit, totalCredit, balanced, s.now(), entryID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	journalOpsTotal.WithLabelValues("update").Inc()
	s.audit.LogJournal("UPDATE", head.storeID, entryID.String(), head.number, 0, "")
	return s.GetEntry(ctx, entryID)
}

// Delete removes a draft entry and its lines.
func (s *LedgerService) Delete(ctx context.Context, entryID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	head, err := s.lockEntry(ctx, tx, entryID)
	if err != nil {
		return err
	}
	if !head.status.Editable() {
		return fmt.Errorf("%w: %s is %s", ErrPostedImmutable, head.number, head.status)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_entry_lines WHERE entry_id = $1`, entryID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1`, entryID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	journalOpsTotal.WithLabelValues("delete").Inc()
	s.audit.LogJournal("DELETE", head.storeID, entryID.String(), head.number, 0, "")
	return nil
}

// Reverse writes a new posted entry with every line's sides swapped and
// marks the original reversed. The original lines are left untouched.
func (s *LedgerService) Reverse(ctx context.Context, entryID uuid.UUID, reversedBy int64, reversalDate *time.Time) (*models.JournalEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	head, err := s.lockEntry(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	next, err := head.status.Reverse()
	if err != nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotPosted, head.number, head.status)
	}

	original, err := s.loadLines(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	swapped := make([]LineInput, 0, len(original))
	for _, l := range original {
		swapped = append(swapped, LineInput{
			AccountID:    l.AccountID,
			DebitAmount:  l.CreditAmount,
			CreditAmount: l.DebitAmount,
			Description:  l.Description,
		})
	}

	number, err := s.nextEntryNumber(ctx, tx, head.storeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	date := now
	if reversalDate != nil {
		date = *reversalDate
	}
	originalID := entryID
	reversal := &models.JournalEntry{
		ID:           uuid.New(),
		StoreID:      head.storeID,
		EntryNumber:  number,
		EntryDate:    dateOnly(date),
		EntryType:    models.EntryTypeReversal,
		Description:  fmt.Sprintf("Reversal of %s", head.number),
		ReversalOfID: &originalID,
		Status:       models.EntryStatusPosted,
		TotalDebit:   head.totalCredit,
		TotalCredit:  head.totalDebit,
		IsBalanced:   true,
		EnteredBy:    reversedBy,
		PostedBy:     &reversedBy,
		PostedAt:     &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.insertEntry(ctx, tx, reversal); err != nil {
		return nil, err
	}
	if err := s.insertLines(ctx, tx, reversal.ID, swapped); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE journal_entries SET status = $1, reversed_by = $2, reversed_at = $3, reversal_entry_id = $4, updated_at = $3
		WHERE id = $5`,
		string(next), reversedBy, now, reversal.ID, entryID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	journalOpsTotal.WithLabelValues("reverse").Inc()
	s.audit.LogJournal("REVERSE", head.storeID, entryID.String(), head.number, reversedBy, head.totalDebit.StringFixed(2))
	log.Printf("[LEDGER] Reversed %s with %s for store %d", head.number, reversal.EntryNumber, head.storeID)

	return s.GetEntry(ctx, reversal.ID)
}

// GetEntry loads an entry with its lines and account metadata.
func (s *LedgerService) GetEntry(ctx context.Context, entryID uuid.UUID) (*models.JournalEntry, error) {
	return s.loadEntry(ctx, s.db, entryID)
}

// ListEntries returns entry headers newest first.
func (s *LedgerService) ListEntries(ctx context.Context, f EntryFilter) ([]models.JournalEntry, error) {
	where := []string{"e.store_id = $1"}
	args := []any{f.StoreID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if f.EntryType != "" {
		args = append(args, string(f.EntryType))
		where = append(where, fmt.Sprintf("e.entry_type = $%d", len(args)))
	}
	where, args = appendDateRange(where, args, "e.entry_date", f.Range)

	limit := f.Limit
	if limit <= 0 {
		limit = s.config.DefaultListLimit
	}
	if limit > s.config.MaxListLimit {
		limit = s.config.MaxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM journal_entries e WHERE %s
		ORDER BY e.entry_date DESC, e.entry_number DESC LIMIT $%d OFFSET $%d`,
		entryColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// FindByReference returns the posted auto entry produced by a business
// object, or nil when there is none. Manual entries and drafts that happen
// to carry the same reference are ignored.
func (s *LedgerService) FindByReference(ctx context.Context, storeID int64, ref models.Reference) (*models.JournalEntry, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM journal_entries
		WHERE store_id = $1 AND reference_type = $2 AND reference_id = $3
			AND entry_type = 'auto' AND status = 'posted'
		ORDER BY created_at DESC
		LIMIT 1`, storeID, ref.Type, ref.ID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id)
}

// GetAccountLedger lists an account's posted lines oldest first with a
// running balance on the account's normal side.
func (s *LedgerService) GetAccountLedger(ctx context.Context, storeID, accountID int64, dr models.DateRange) ([]models.LedgerLine, error) {
	var accountType models.AccountType
	err := s.db.QueryRowContext(ctx, `SELECT account_type FROM accounts WHERE id = $1 AND store_id = $2`,
		accountID, storeID).Scan(&accountType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	where := []string{"e.store_id = $1", "l.account_id = $2", "e.status IN " + countedStatuses}
	args := []any{storeID, accountID}
	where, args = appendDateRange(where, args, "e.entry_date", dr)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT e.id, e.entry_number, e.entry_date, e.entry_type, e.description,
			l.line_number, l.debit_amount, l.credit_amount, l.description
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE %s
		ORDER BY e.entry_date ASC, e.created_at ASC, l.line_number ASC`, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.LedgerLine{}
	running := decimal.Zero
	for rows.Next() {
		var l models.LedgerLine
		var entryDesc, lineDesc string
		if err := rows.Scan(&l.EntryID, &l.EntryNumber, &l.EntryDate, &l.EntryType, &entryDesc,
			&l.LineNumber, &l.DebitAmount, &l.CreditAmount, &lineDesc); err != nil {
			return nil, err
		}
		l.Description = entryDesc
		if lineDesc != "" {
			l.Description = lineDesc
		}
		running = running.Add(accountType.NormalBalance(l.DebitAmount, l.CreditAmount))
		l.RunningBalance = running
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// GetAccountBalance returns the raw debit minus credit over posted lines up
// to asOf. Callers normalize by account type.
func (s *LedgerService) GetAccountBalance(ctx context.Context, storeID, accountID int64, asOf *time.Time) (*models.AccountBalance, error) {
	query := `
		SELECT COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.store_id = $1 AND l.account_id = $2 AND e.status IN ` + countedStatuses
	args := []any{storeID, accountID}
	if asOf != nil {
		query += ` AND e.entry_date <= $3`
		args = append(args, dateOnly(*asOf))
	}

	bal := &models.AccountBalance{AccountID: accountID, AsOf: asOf}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&bal.TotalDebit, &bal.TotalCredit); err != nil {
		return nil, err
	}
	bal.Balance = bal.TotalDebit.Sub(bal.TotalCredit)
	return bal, nil
}

// GetTrialBalance lists every active account with posted activity and its
// balance on the account's natural side.
func (s *LedgerService) GetTrialBalance(ctx context.Context, storeID int64, asOf *time.Time) (*models.TrialBalance, error) {
	query := `
		SELECT a.id, a.code, a.name, a.account_type,
			COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
		FROM accounts a
		JOIN journal_entry_lines l ON l.account_id = a.id
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE a.store_id = $1 AND a.is_active AND e.store_id = $1 AND e.status IN ` + countedStatuses
	args := []any{storeID}
	if asOf != nil {
		query += ` AND e.entry_date <= $2`
		args = append(args, dateOnly(*asOf))
	}
	query += ` GROUP BY a.id, a.code, a.name, a.account_type ORDER BY a.code, a.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tb := &models.TrialBalance{
		StoreID:     storeID,
		AsOf:        asOf,
		Rows:        []models.TrialBalanceRow{},
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for rows.Next() {
		var r models.TrialBalanceRow
		if err := rows.Scan(&r.AccountID, &r.AccountCode, &r.AccountName, &r.AccountType, &r.TotalDebit, &r.TotalCredit); err != nil {
			return nil, err
		}
		// Only accounts without any posted amount are left out; fully
		// reversed activity still shows with a zero balance.
		if r.TotalDebit.IsZero() && r.TotalCredit.IsZero() {
			continue
		}
		r.Balance = r.AccountType.NormalBalance(r.TotalDebit, r.TotalCredit)

		// Net balance lands in the debit or credit column by sign.
		net := r.TotalDebit.Sub(r.TotalCredit)
		if net.IsPositive() {
			tb.TotalDebit = tb.TotalDebit.Add(net)
		} else if net.IsNegative() {
			tb.TotalCredit = tb.TotalCredit.Add(net.Neg())
		}
		tb.Rows = append(tb.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	tb.IsBalanced = tb.TotalDebit.Sub(tb.TotalCredit).Abs().LessThanOrEqual(s.config.BalanceTolerance)
	return tb, nil
}

// validateLines enforces the line-shape and balance rules and returns the
// entry totals.
func (s *LedgerService) validateLines(lines []LineInput) (decimal.Decimal, decimal.Decimal, error) {
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	if len(lines) < 2 {
		return totalDebit, totalCredit, fmt.Errorf("%w: an entry needs at least two lines, got %d", ErrInvalidLine, len(lines))
	}
	for i, l := range lines {
		if l.AccountID <= 0 {
			return totalDebit, totalCredit, fmt.Errorf("%w: line %d has no account", ErrInvalidLine, i+1)
		}
		debitOnly := l.DebitAmount.IsPositive() && l.CreditAmount.IsZero()
		creditOnly := l.CreditAmount.IsPositive() && l.DebitAmount.IsZero()
		if !debitOnly && !creditOnly {
			return totalDebit, totalCredit, fmt.Errorf("%w: line %d", ErrInvalidLine, i+1)
		}
		if !wholeCents(l.DebitAmount) || !wholeCents(l.CreditAmount) {
			return totalDebit, totalCredit, fmt.Errorf("%w: line %d has fractional cents", ErrInvalidLine, i+1)
		}
		totalDebit = totalDebit.Add(l.DebitAmount)
		totalCredit = totalCredit.Add(l.CreditAmount)
	}
	if totalDebit.Sub(totalCredit).Abs().GreaterThan(s.config.BalanceTolerance) {
		return totalDebit, totalCredit, fmt.Errorf("%w: debits %s, credits %s",
			ErrUnbalancedEntry, totalDebit.StringFixed(2), totalCredit.StringFixed(2))
	}
	return totalDebit, totalCredit, nil
}

// wholeCents reports whether d fits the NUMERIC(14,2) money columns without
// rounding.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// checkAccounts confirms every referenced account belongs to the store.
func (s *LedgerService) checkAccounts(ctx context.Context, tx *sql.Tx, storeID int64, lines []LineInput) error {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}

	var found int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE store_id = $1 AND id = ANY($2)`,
		storeID, pq.Array(ids)).Scan(&found); err != nil {
		return err
	}
	if found != len(ids) {
		return fmt.Errorf("account for store %d: %w", storeID, ErrNotFound)
	}
	return nil
}

// nextEntryNumber bumps the store's counter row. The upsert holds the row
// lock until the surrounding transaction ends, so numbers are never reused.
func (s *LedgerService) nextEntryNumber(ctx context.Context, tx *sql.Tx, storeID int64) (string, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO journal_entry_sequences (store_id, last_number) VALUES ($1, 1)
		ON CONFLICT (store_id) DO UPDATE SET last_number = journal_entry_sequences.last_number + 1
		RETURNING last_number`, storeID).Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", s.config.EntryNumberPrefix, n), nil
}

func (s *LedgerService) insertEntry(ctx context.Context, tx *sql.Tx, e *models.JournalEntry) error {
	var refType, refID any
	if e.Reference != nil {
		refType, refID = e.Reference.Type, e.Reference.ID
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO journal_entries (id, store_id, entry_number, entry_date, entry_type, description,
			reference_type, reference_id, reversal_of_id, status, total_debit, total_credit, is_balanced,
			entered_by, posted_by, posted_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		e.ID, e.StoreID, e.EntryNumber, e.EntryDate, string(e.EntryType), e.Description,
		refType, refID, uuidOrNil(e.ReversalOfID), string(e.Status), e.TotalDebit, e.TotalCredit, e.IsBalanced,
		e.EnteredBy, e.PostedBy, e.PostedAt, e.Notes, e.CreatedAt, e.UpdatedAt)
	return err
}

func (s *LedgerService) insertLines(ctx context.Context, tx *sql.Tx, entryID uuid.UUID, lines []LineInput) error {
	for i, l := range lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO journal_entry_lines (id, entry_id, account_id, line_number, debit_amount, credit_amount, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), entryID, l.AccountID, i+1, l.DebitAmount, l.CreditAmount, l.Description); err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}
	return nil
}

type entryHead struct {
	storeID     int64
	number      string
	status      models.EntryStatus
	isBalanced  bool
	totalDebit  decimal.Decimal
	totalCredit decimal.Decimal
}

// lockEntry reads the lifecycle fields of an entry and holds its row lock
// for the rest of the transaction.
func (s *LedgerService) lockEntry(ctx context.Context, tx *sql.Tx, entryID uuid.UUID) (*entryHead, error) {
	var h entryHead
	err := tx.QueryRowContext(ctx, `
		SELECT store_id, entry_number, status, is_balanced, total_debit, total_credit
		FROM journal_entries WHERE id = $1 FOR UPDATE`, entryID).
		Scan(&h.storeID, &h.number, &h.status, &h.isBalanced, &h.totalDebit, &h.totalCredit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal entry %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *LedgerService) loadEntry(ctx context.Context, q queryer, entryID uuid.UUID) (*models.JournalEntry, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries e WHERE e.id = $1`, entryID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal entry %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	entry.Lines, err = s.loadLines(ctx, q, entryID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *LedgerService) loadLines(ctx context.Context, q queryer, entryID uuid.UUID) ([]models.JournalEntryLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.id, l.entry_id, l.account_id, l.line_number, l.debit_amount, l.credit_amount, l.description,
			a.code, a.name, a.account_type
		FROM journal_entry_lines l
		JOIN accounts a ON a.id = l.account_id
		WHERE l.entry_id = $1
		ORDER BY l.line_number`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.JournalEntryLine{}
	for rows.Next() {
		var l models.JournalEntryLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.LineNumber, &l.DebitAmount, &l.CreditAmount,
			&l.Description, &l.AccountCode, &l.AccountName, &l.AccountType); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.JournalEntry, error) {
	var (
		e                      models.JournalEntry
		refType                sql.NullString
		refID                  sql.NullInt64
		reversalOf, reversalID uuid.NullUUID
		postedBy, reversedBy   sql.NullInt64
		postedAt, reversedAt   sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.StoreID, &e.EntryNumber, &e.EntryDate, &e.EntryType, &e.Description,
		&refType, &refID, &reversalOf, &e.Status, &e.TotalDebit, &e.TotalCredit,
		&e.IsBalanced, &e.EnteredBy, &postedBy, &postedAt, &reversedBy, &reversedAt,
		&reversalID, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if refType.Valid && refID.Valid {
		e.Reference = &models.Reference{Type: refType.String, ID: refID.Int64}
	}
	if reversalOf.Valid {
		e.ReversalOfID = &reversalOf.UUID
	}
	if reversalID.Valid {
		e.ReversalEntryID = &reversalID.UUID
	}
	if postedBy.Valid {
		e.PostedBy = &postedBy.Int64
	}
	if postedAt.Valid {
		e.PostedAt = &postedAt.Time
	}
	if reversedBy.Valid {
		e.ReversedBy = &reversedBy.Int64
	}
	if reversedAt.Valid {
		e.ReversedAt = &reversedAt.Time
	}
	return &e, nil
}

func appendDateRange(where []string, args []any, column string, dr models.DateRange) ([]string, []any) {
	if dr.From != nil {
		args = append(args, dateOnly(*dr.From))
		where = append(where, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if dr.To != nil {
		args = append(args, dateOnly(*dr.To))
		where = append(where, fmt.Sprintf("%s <= $%d", column, len(args)))
	}
	return where, args
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}
