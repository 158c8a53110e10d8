package services

import (
	"context"
	"log"
	"strings"

	"github.com/retailops/backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// EventResult reports the side effects one business event produced. Either
// field may be nil: the posting may have been skipped, and most events move
// no register cash.
type EventResult struct {
	JournalEntry    *models.JournalEntry    `json:"journal_entry,omitempty"`
	CashTransaction *models.CashTransaction `json:"cash_transaction,omitempty"`
}

// BusinessEventService is the entry point for modules that persist expenses,
// invoices, payments, reimbursements and revenue. It feeds each event to the
// auto-posting adapter and, when register cash moved, to the cash ledger.
// Both writes are best effort: failures are logged and never returned, so
// the originating save always succeeds.
type BusinessEventService struct {
	autoPost *AutoPostService
	cash     *CashLedgerService
}

func NewBusinessEventService(autoPost *AutoPostService, cash *CashLedgerService) *BusinessEventService {
	return &BusinessEventService{autoPost: autoPost, cash: cash}
}

func (s *BusinessEventService) ExpenseRecorded(ctx context.Context, e *models.Expense) EventResult {
	var res EventResult
	res.JournalEntry = s.journal(ctx, models.RefExpense, e.ID, func() (*models.JournalEntry, error) {
		return s.autoPost.PostExpense(ctx, e)
	})
	if isCash(e.PaymentMethod) {
		res.CashTransaction = s.recordCash(ctx, CashUpdate{
			StoreID:         e.StoreID,
			Amount:          e.Amount.Abs().Neg(),
			TransactionType: models.CashTxExpense,
			SourceID:        &e.ID,
			Date:            e.ExpenseDate,
			Description:     firstNonEmpty(e.Description, e.Category, "Expense"),
			EnteredBy:       actor(e.EnteredBy),
		})
	}
	return res
}

func (s *BusinessEventService) PurchaseInvoiceRecorded(ctx context.Context, inv *models.PurchaseInvoice) EventResult {
	var res EventResult
	res.JournalEntry = s.journal(ctx, models.RefPurchaseInvoice, inv.ID, func() (*models.JournalEntry, error) {
		return s.autoPost.PostPurchaseInvoice(ctx, inv)
	})
	if inv.PaidOnPurchase && isCash(inv.PaymentMethod) {
		res.CashTransaction = s.recordCash(ctx, CashUpdate{
			StoreID:         inv.StoreID,
			Amount:          inv.Amount.Abs().Neg(),
			TransactionType: models.CashTxPurchase,
			SourceID:        &inv.ID,
			Date:            inv.InvoiceDate,
			Description:     "Invoice " + inv.InvoiceNumber,
			EnteredBy:       actor(inv.EnteredBy),
		})
	}
	return res
}

func (s *BusinessEventService) InvoicePaymentRecorded(ctx context.Context, p *models.InvoicePayment) EventResult {
	var res EventResult
	res.JournalEntry = s.journal(ctx, models.RefInvoicePayment, p.ID, func() (*models.JournalEntry, error) {
		return s.autoPost.PostInvoicePayment(ctx, p)
	})
	if isCash(p.PaymentMethod) {
		res.CashTransaction = s.recordCash(ctx, CashUpdate{
			StoreID:         p.StoreID,
			Amount:          p.Amount.Abs().Neg(),
			TransactionType: models.CashTxPayment,
			SourceID:        &p.ID,
			Date:            p.PaymentDate,
			Description:     "Payment for invoice " + firstNonEmpty(p.InvoiceNumber, "?"),
			EnteredBy:       actor(p.EnteredBy),
		})
	}
	return res
}

func (s *BusinessEventService) ReimbursementSettled(ctx context.Context, r *models.ReimbursementSettlement) EventResult {
	var res EventResult
	res.JournalEntry = s.journal(ctx, models.RefReimbursement, r.ID, func() (*models.JournalEntry, error) {
		return s.autoPost.PostReimbursement(ctx, r)
	})
	if isCash(r.ReceivedInto) {
		res.CashTransaction = s.recordCash(ctx, CashUpdate{
			StoreID:         r.StoreID,
			Amount:          r.Amount.Abs(),
			TransactionType: models.CashTxReimbursement,
			SourceID:        &r.ID,
			Date:            r.SettlementDate,
			Description:     firstNonEmpty(r.Description, "Reimbursement received"),
			EnteredBy:       actor(r.EnteredBy),
		})
	}
	return res
}

// DailyRevenueRecorded moves the register by cash sales less whatever was
// paid out of the drawer the same day.
func (s *BusinessEventService) DailyRevenueRecorded(ctx context.Context, rev *models.DailyRevenue) EventResult {
	var res EventResult
	res.JournalEntry = s.journal(ctx, models.RefDailyRevenue, rev.ID, func() (*models.JournalEntry, error) {
		return s.autoPost.PostDailyRevenue(ctx, rev)
	})

	netCash := positive(rev.CashAmount).Sub(positive(rev.OtherCashExpenses))
	if !netCash.IsZero() {
		res.CashTransaction = s.recordCash(ctx, CashUpdate{
			StoreID:         rev.StoreID,
			Amount:          netCash,
			TransactionType: models.CashTxRevenue,
			SourceID:        &rev.ID,
			Date:            rev.RevenueDate,
			Description:     "Daily revenue " + rev.RevenueDate.Format("2006-01-02"),
			EnteredBy:       actor(rev.EnteredBy),
		})
	}
	return res
}

func (s *BusinessEventService) journal(ctx context.Context, refType string, id int64, post func() (*models.JournalEntry, error)) *models.JournalEntry {
	if s.autoPost == nil {
		return nil
	}
	entry, err := post()
	if err != nil {
		log.Printf("[AUTOPOST] Failed to post %s %d, continuing: %v", refType, id, err)
		return nil
	}
	return entry
}

func (s *BusinessEventService) recordCash(ctx context.Context, u CashUpdate) *models.CashTransaction {
	if s.cash == nil || u.Amount.IsZero() {
		return nil
	}
	t, _, err := s.cash.RecordOnce(ctx, u)
	if err != nil {
		log.Printf("[CASH_LEDGER] Failed to record %s for source %d in store %d, continuing: %v",
			u.TransactionType, *u.SourceID, u.StoreID, err)
		return nil
	}
	return t
}

func isCash(method string) bool {
	return strings.EqualFold(strings.TrimSpace(method), models.PaymentCash)
}

func positive(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return decimal.Zero
}

func actor(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
