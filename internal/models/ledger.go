package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is the chart-of-accounts classification of an account.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the five account classes.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// IncreasesOnDebit reports whether the account's normal balance is a debit.
func (t AccountType) IncreasesOnDebit() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// NormalBalance turns raw debit and credit totals into a balance on the
// account's natural side.
func (t AccountType) NormalBalance(debit, credit decimal.Decimal) decimal.Decimal {
	if t.IncreasesOnDebit() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

type Account struct {
	ID       int64       `json:"id" db:"id"`
	StoreID  int64       `json:"store_id" db:"store_id"`
	Code     string      `json:"code" db:"code"`
	Name     string      `json:"name" db:"name"`
	Type     AccountType `json:"account_type" db:"account_type"`
	IsActive bool        `json:"is_active" db:"is_active"`
}

type EntryType string

const (
	EntryTypeManual   EntryType = "manual"
	EntryTypeAuto     EntryType = "auto"
	EntryTypeReversal EntryType = "reversal"
)

// EntryStatus is the lifecycle state of a journal entry. The only legal
// moves are draft -> posted and posted -> reversed.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "draft"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

var (
	ErrStatusAlreadyPosted = errors.New("entry already posted")
	ErrStatusNotPosted     = errors.New("entry is not posted")
)

// Editable reports whether lines and header fields may still change.
func (s EntryStatus) Editable() bool {
	return s == EntryStatusDraft
}

// Post returns the status after posting an entry currently in s.
func (s EntryStatus) Post() (EntryStatus, error) {
	if s != EntryStatusDraft {
		return s, ErrStatusAlreadyPosted
	}
	return EntryStatusPosted, nil
}

// Reverse returns the status of an original entry after it is reversed.
func (s EntryStatus) Reverse() (EntryStatus, error) {
	if s != EntryStatusPosted {
		return s, ErrStatusNotPosted
	}
	return EntryStatusReversed, nil
}

// Counted reports whether an entry in s has ever been posted and so
// contributes to balances. A reversed entry stays counted; its reversal
// entry cancels it.
func (s EntryStatus) Counted() bool {
	return s == EntryStatusPosted || s == EntryStatusReversed
}

// Reference points a journal entry at the business object that produced it.
type Reference struct {
	Type string `json:"type" validate:"required,max=50"`
	ID   int64  `json:"id" validate:"required,gt=0"`
}

type JournalEntry struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	StoreID         int64           `json:"store_id" db:"store_id"`
	EntryNumber     string          `json:"entry_number" db:"entry_number"`
	EntryDate       time.Time       `json:"entry_date" db:"entry_date"`
	EntryType       EntryType       `json:"entry_type" db:"entry_type"`
	Description     string          `json:"description" db:"description"`
	Reference       *Reference      `json:"reference,omitempty"`
	ReversalOfID    *uuid.UUID      `json:"reversal_of_id,omitempty" db:"reversal_of_id"`
	Status          EntryStatus     `json:"status" db:"status"`
	TotalDebit      decimal.Decimal `json:"total_debit" db:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit" db:"total_credit"`
	IsBalanced      bool            `json:"is_balanced" db:"is_balanced"`
	EnteredBy       int64           `json:"entered_by" db:"entered_by"`
	PostedBy        *int64          `json:"posted_by,omitempty" db:"posted_by"`
	PostedAt        *time.Time      `json:"posted_at,omitempty" db:"posted_at"`
	ReversedBy      *int64          `json:"reversed_by,omitempty" db:"reversed_by"`
	ReversedAt      *time.Time      `json:"reversed_at,omitempty" db:"reversed_at"`
	ReversalEntryID *uuid.UUID      `json:"reversal_entry_id,omitempty" db:"reversal_entry_id"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	Lines []JournalEntryLine `json:"lines"`
}

type JournalEntryLine struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	EntryID      uuid.UUID       `json:"entry_id" db:"entry_id"`
	AccountID    int64           `json:"account_id" db:"account_id"`
	LineNumber   int             `json:"line_number" db:"line_number"`
	DebitAmount  decimal.Decimal `json:"debit_amount" db:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount" db:"credit_amount"`
	Description  string          `json:"description,omitempty" db:"description"`

	// Joined from accounts.
	AccountCode string      `json:"account_code,omitempty"`
	AccountName string      `json:"account_name,omitempty"`
	AccountType AccountType `json:"account_type,omitempty"`
}

// LedgerLine is one posted line as seen from a single account.
type LedgerLine struct {
	EntryID        uuid.UUID       `json:"entry_id"`
	EntryNumber    string          `json:"entry_number"`
	EntryDate      time.Time       `json:"entry_date"`
	EntryType      EntryType       `json:"entry_type"`
	Description    string          `json:"description"`
	LineNumber     int             `json:"line_number"`
	DebitAmount    decimal.Decimal `json:"debit_amount"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

type AccountBalance struct {
	AccountID   int64           `json:"account_id"`
	AsOf        *time.Time      `json:"as_of,omitempty"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balance     decimal.Decimal `json:"balance"`
}

type TrialBalanceRow struct {
	AccountID   int64           `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType AccountType     `json:"account_type"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balance     decimal.Decimal `json:"balance"`
}

type TrialBalance struct {
	StoreID     int64             `json:"store_id"`
	AsOf        *time.Time        `json:"as_of,omitempty"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	IsBalanced  bool              `json:"is_balanced"`
}

// DateRange bounds a query by entry or transaction date, inclusive. Nil
// ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}
