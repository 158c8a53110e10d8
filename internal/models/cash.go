package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash transaction type tags. The column is free-form; these are the tags
// this service writes itself.
const (
	CashTxRevenue        = "revenue"
	CashTxExpense        = "expense"
	CashTxPurchase       = "purchase"
	CashTxPayment        = "payment"
	CashTxReimbursement  = "reimbursement"
	CashTxAdjustment     = "adjustment"
	CashTxReversalSuffix = "_reversal"
)

// CashLedgerAccount is the single running cash-on-hand row of a store.
type CashLedgerAccount struct {
	StoreID           int64           `json:"store_id" db:"store_id"`
	CurrentBalance    decimal.Decimal `json:"current_balance" db:"current_balance"`
	LastTransactionID *uuid.UUID      `json:"last_transaction_id,omitempty" db:"last_transaction_id"`
	LastUpdated       time.Time       `json:"last_updated" db:"last_updated"`
}

// CashTransaction is one append-only row of the cash audit trail.
type CashTransaction struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	StoreID         int64           `json:"store_id" db:"store_id"`
	TransactionDate time.Time       `json:"transaction_date" db:"transaction_date"`
	TransactionType string          `json:"transaction_type" db:"transaction_type"`
	SourceID        *int64          `json:"source_id,omitempty" db:"source_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after" db:"balance_after"`
	Description     string          `json:"description,omitempty" db:"description"`
	EnteredBy       *int64          `json:"entered_by,omitempty" db:"entered_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
