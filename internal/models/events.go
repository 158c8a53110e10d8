package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods recorded by the expense and purchasing modules.
const (
	PaymentCash       = "cash"
	PaymentBank       = "bank"
	PaymentCheck      = "check"
	PaymentCard       = "card"
	PaymentCreditCard = "credit_card"
)

// Reference types written on auto-posted journal entries.
const (
	RefExpense         = "expense"
	RefPurchaseInvoice = "purchase_invoice"
	RefInvoicePayment  = "invoice_payment"
	RefReimbursement   = "reimbursement"
	RefDailyRevenue    = "daily_revenue"
)

// Expense is a persisted expense record from the expense module.
type Expense struct {
	ID              int64           `json:"id" validate:"required,gt=0"`
	StoreID         int64           `json:"store_id" validate:"required,gt=0"`
	ExpenseDate     time.Time       `json:"expense_date" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category" validate:"max=100"`
	PaymentMethod   string          `json:"payment_method" validate:"required,max=30"`
	BankAccountName string          `json:"bank_account_name,omitempty" validate:"max=100"`
	Description     string          `json:"description,omitempty" validate:"max=500"`
	EnteredBy       int64           `json:"entered_by"`
}

// PurchaseInvoice is a vendor invoice from the purchasing module.
type PurchaseInvoice struct {
	ID              int64           `json:"id" validate:"required,gt=0"`
	StoreID         int64           `json:"store_id" validate:"required,gt=0"`
	InvoiceNumber   string          `json:"invoice_number" validate:"required,max=50"`
	VendorName      string          `json:"vendor_name" validate:"max=200"`
	InvoiceDate     time.Time       `json:"invoice_date" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	ExpenseCategory string          `json:"expense_category" validate:"max=100"`
	PaidOnPurchase  bool            `json:"paid_on_purchase"`
	PaymentMethod   string          `json:"payment_method,omitempty" validate:"max=30"`
	BankAccountName string          `json:"bank_account_name,omitempty" validate:"max=100"`
	Reimbursable    bool            `json:"reimbursable"`
	EnteredBy       int64           `json:"entered_by"`
}

// InvoicePayment settles all or part of a previously recorded invoice.
type InvoicePayment struct {
	ID              int64           `json:"id" validate:"required,gt=0"`
	StoreID         int64           `json:"store_id" validate:"required,gt=0"`
	InvoiceID       int64           `json:"invoice_id" validate:"required,gt=0"`
	InvoiceNumber   string          `json:"invoice_number" validate:"max=50"`
	PaymentDate     time.Time       `json:"payment_date" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method" validate:"required,max=30"`
	BankAccountName string          `json:"bank_account_name,omitempty" validate:"max=100"`
	CheckNumber     string          `json:"check_number,omitempty" validate:"max=30"`
	EnteredBy       int64           `json:"entered_by"`
}

// ReimbursementSettlement records money received against a reimbursable
// purchase.
type ReimbursementSettlement struct {
	ID              int64           `json:"id" validate:"required,gt=0"`
	StoreID         int64           `json:"store_id" validate:"required,gt=0"`
	SettlementDate  time.Time       `json:"settlement_date" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	ReceivedInto    string          `json:"received_into" validate:"required,max=30"`
	BankAccountName string          `json:"bank_account_name,omitempty" validate:"max=100"`
	Description     string          `json:"description,omitempty" validate:"max=500"`
	EnteredBy       int64           `json:"entered_by"`
}

// DailyRevenue is one day's register close-out.
type DailyRevenue struct {
	ID                 int64           `json:"id" validate:"required,gt=0"`
	StoreID            int64           `json:"store_id" validate:"required,gt=0"`
	RevenueDate        time.Time       `json:"revenue_date" validate:"required"`
	CashAmount         decimal.Decimal `json:"cash_amount"`
	BusinessCreditCard decimal.Decimal `json:"business_credit_card"`
	OnlineNet          decimal.Decimal `json:"online_net"`
	CustomerTabNet     decimal.Decimal `json:"customer_tab_net"`
	CardFees           decimal.Decimal `json:"card_fees"`
	OtherCashExpenses  decimal.Decimal `json:"other_cash_expenses"`
	// LotteryCashOwed is positive when the store holds lottery money it owes
	// and negative when the lottery owes the store.
	LotteryCashOwed decimal.Decimal `json:"lottery_cash_owed"`
	EnteredBy       int64           `json:"entered_by"`
}
