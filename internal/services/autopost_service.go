package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/retailops/backoffice/internal/config"
	"github.com/retailops/backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// Default account names used when resolving and provisioning accounts.
const (
	AcctCash                     = "Cash"
	AcctBank                     = "Bank"
	AcctChecking                 = "Checking Account"
	AcctCreditCard               = "Credit Card"
	AcctAccountsPayable          = "Accounts Payable"
	AcctAccountsReceivable       = "Accounts Receivable"
	AcctReimbursementsReceivable = "Reimbursements Receivable"
	AcctSalesRevenue             = "Sales Revenue"
	AcctCardReceivable           = "Credit Card Receivable"
	AcctOnlineReceivable         = "Online Sales Receivable"
	AcctCustomerTabReceivable    = "Customer Tab Receivable"
	AcctCardFees                 = "Credit Card Fees"
	AcctCashExpenses             = "Cash Expenses"
	AcctLotteryPayable           = "Lottery Payable"
)

// AutoPostService turns business events into balanced journal entries that
// are posted on creation. A nil entry with a nil error means the event was
// skipped on purpose; callers must not treat it as a failure.
type AutoPostService struct {
	ledger   JournalWriter
	resolver *AccountResolver
	guard    *IdempotencyGuard
	config   *config.LedgerConfig
}

func NewAutoPostService(ledger JournalWriter, catalog AccountCatalog, redisClient *redis.Client, cfg *config.LedgerConfig) *AutoPostService {
	if cfg == nil {
		cfg = config.DefaultLedgerConfig()
	}
	return &AutoPostService{
		ledger:   ledger,
		resolver: NewAccountResolver(catalog),
		guard:    NewIdempotencyGuard(redisClient, cfg.IdempotencyPrefix, cfg.IdempotencyTTL),
		config:   cfg,
	}
}

// leg is one side of a derived entry before its account is resolved.
type leg struct {
	spec AccountSpec
	// fallback is tried when spec stays unresolved.
	fallback *AccountSpec
	debit    decimal.Decimal
	credit   decimal.Decimal
	memo     string
}

func debitLeg(spec AccountSpec, amount decimal.Decimal, memo string) leg {
	return leg{spec: spec, debit: amount, credit: decimal.Zero, memo: memo}
}

func creditLeg(spec AccountSpec, amount decimal.Decimal, memo string) leg {
	return leg{spec: spec, debit: decimal.Zero, credit: amount, memo: memo}
}

type posting struct {
	event       string
	storeID     int64
	ref         models.Reference
	date        time.Time
	description string
	enteredBy   int64
	legs        []leg
}

// PostExpense debits the expense category and credits the account the
// payment method draws on.
func (s *AutoPostService) PostExpense(ctx context.Context, e *models.Expense) (*models.JournalEntry, error) {
	const event = models.RefExpense
	if !e.Amount.IsPositive() {
		return s.skip(event, e.ID, "amount %s is not positive", e.Amount)
	}
	payment, ok := paymentAccountSpec(e.PaymentMethod, e.BankAccountName)
	if !ok {
		return s.skip(event, e.ID, "unrecognized payment method %q", e.PaymentMethod)
	}

	description := fmt.Sprintf("Expense: %s", firstNonEmpty(e.Description, e.Category, "uncategorized"))
	return s.post(ctx, posting{
		event:       event,
		storeID:     e.StoreID,
		ref:         models.Reference{Type: models.RefExpense, ID: e.ID},
		date:        e.ExpenseDate,
		description: description,
		enteredBy:   e.EnteredBy,
		legs: []leg{
			debitLeg(expenseSpec(e.Category), e.Amount, e.Category),
			creditLeg(payment, e.Amount, e.PaymentMethod),
		},
	})
}

// PostPurchaseInvoice records a vendor invoice. Paid invoices credit the
// payment account, or a receivable when a third party reimburses the
// purchase; unpaid ones credit Accounts Payable.
func (s *AutoPostService) PostPurchaseInvoice(ctx context.Context, inv *models.PurchaseInvoice) (*models.JournalEntry, error) {
	const event = models.RefPurchaseInvoice
	if !inv.Amount.IsPositive() {
		return s.skip(event, inv.ID, "amount %s is not positive", inv.Amount)
	}

	var credit AccountSpec
	switch {
	case inv.PaidOnPurchase && inv.Reimbursable:
		credit = AccountSpec{
			Type:  models.AccountTypeAsset,
			Names: []string{AcctReimbursementsReceivable, AcctAccountsReceivable},
		}
	case inv.PaidOnPurchase:
		spec, ok := paymentAccountSpec(inv.PaymentMethod, inv.BankAccountName)
		if !ok {
			return s.skip(event, inv.ID, "unrecognized payment method %q", inv.PaymentMethod)
		}
		credit = spec
	default:
		credit = AccountSpec{
			Type:         models.AccountTypeLiability,
			Names:        []string{AcctAccountsPayable},
			TypeFallback: true,
			CreateName:   AcctAccountsPayable,
		}
	}

	description := fmt.Sprintf("Invoice %s", inv.InvoiceNumber)
	if inv.VendorName != "" {
		description += " from " + inv.VendorName
	}
	debit := debitLeg(expenseSpec(inv.ExpenseCategory), inv.Amount, inv.ExpenseCategory)
	if inv.PaidOnPurchase {
		debit.fallback = &AccountSpec{Type: models.AccountTypeLiability, Names: []string{AcctAccountsPayable}}
	}
	return s.post(ctx, posting{
		event:       event,
		storeID:     inv.StoreID,
		ref:         models.Reference{Type: models.RefPurchaseInvoice, ID: inv.ID},
		date:        inv.InvoiceDate,
		description: description,
		enteredBy:   inv.EnteredBy,
		legs:        []leg{debit, creditLeg(credit, inv.Amount, "")},
	})
}

// PostInvoicePayment clears Accounts Payable against the paying account.
func (s *AutoPostService) PostInvoicePayment(ctx context.Context, p *models.InvoicePayment) (*models.JournalEntry, error) {
	const event = models.RefInvoicePayment
	if !p.Amount.IsPositive() {
		return s.skip(event, p.ID, "amount %s is not positive", p.Amount)
	}
	payment, ok := paymentAccountSpec(p.PaymentMethod, p.BankAccountName)
	if !ok {
		return s.skip(event, p.ID, "unrecognized payment method %q", p.PaymentMethod)
	}

	description := fmt.Sprintf("Payment for invoice %s", firstNonEmpty(p.InvoiceNumber, fmt.Sprintf("#%d", p.InvoiceID)))
	memo := p.PaymentMethod
	if p.CheckNumber != "" {
		description += fmt.Sprintf(" (check #%s)", p.CheckNumber)
		memo = "check #" + p.CheckNumber
	}
	return s.post(ctx, posting{
		event:       event,
		storeID:     p.StoreID,
		ref:         models.Reference{Type: models.RefInvoicePayment, ID: p.ID},
		date:        p.PaymentDate,
		description: description,
		enteredBy:   p.EnteredBy,
		legs: []leg{
			debitLeg(AccountSpec{
				Type:         models.AccountTypeLiability,
				Names:        []string{AcctAccountsPayable},
				TypeFallback: true,
			}, p.Amount, ""),
			creditLeg(payment, p.Amount, memo),
		},
	})
}

// PostReimbursement moves a settled reimbursement from the receivable into
// the account it was paid into.
func (s *AutoPostService) PostReimbursement(ctx context.Context, r *models.ReimbursementSettlement) (*models.JournalEntry, error) {
	const event = models.RefReimbursement
	if !r.Amount.IsPositive() {
		return s.skip(event, r.ID, "amount %s is not positive", r.Amount)
	}
	received, ok := paymentAccountSpec(r.ReceivedInto, r.BankAccountName)
	if !ok {
		return s.skip(event, r.ID, "unrecognized receiving method %q", r.ReceivedInto)
	}

	return s.post(ctx, posting{
		event:       event,
		storeID:     r.StoreID,
		ref:         models.Reference{Type: models.RefReimbursement, ID: r.ID},
		date:        r.SettlementDate,
		description: "Reimbursement received: " + firstNonEmpty(r.Description, fmt.Sprintf("#%d", r.ID)),
		enteredBy:   r.EnteredBy,
		legs: []leg{
			debitLeg(received, r.Amount, r.ReceivedInto),
			creditLeg(AccountSpec{
				Type:  models.AccountTypeAsset,
				Names: []string{AcctReimbursementsReceivable, AcctAccountsReceivable},
			}, r.Amount, ""),
		},
	})
}

// PostDailyRevenue books a register close-out as one multi-leg entry. This
// is the only path allowed to provision missing accounts. A leg set that
// does not balance is skipped and counted, never rejected.
func (s *AutoPostService) PostDailyRevenue(ctx context.Context, rev *models.DailyRevenue) (*models.JournalEntry, error) {
	const event = models.RefDailyRevenue

	cash := namedOrCreate(models.AccountTypeAsset, AcctCash)
	cardReceivable := namedOrCreate(models.AccountTypeAsset, AcctCardReceivable)

	var legs []leg
	gross := decimal.Zero
	for _, d := range []struct {
		spec   AccountSpec
		amount decimal.Decimal
		memo   string
	}{
		{cash, rev.CashAmount, "cash sales"},
		{cardReceivable, rev.BusinessCreditCard, "business credit card"},
		{namedOrCreate(models.AccountTypeAsset, AcctOnlineReceivable), rev.OnlineNet, "online sales, net"},
		{namedOrCreate(models.AccountTypeAsset, AcctCustomerTabReceivable), rev.CustomerTabNet, "customer tabs, net"},
	} {
		if d.amount.IsPositive() {
			legs = append(legs, debitLeg(d.spec, d.amount, d.memo))
			gross = gross.Add(d.amount)
		}
	}

	if gross.IsPositive() {
		legs = append(legs, creditLeg(AccountSpec{
			Type:         models.AccountTypeRevenue,
			Names:        []string{AcctSalesRevenue},
			TypeFallback: true,
			CreateName:   AcctSalesRevenue,
		}, gross, "daily sales"))
	}

	if rev.CardFees.IsPositive() {
		legs = append(legs,
			debitLeg(namedOrCreate(models.AccountTypeExpense, AcctCardFees), rev.CardFees, "card transaction fees"),
			creditLeg(cardReceivable, rev.CardFees, "card transaction fees"))
	}
	if rev.OtherCashExpenses.IsPositive() {
		legs = append(legs,
			debitLeg(namedOrCreate(models.AccountTypeExpense, AcctCashExpenses), rev.OtherCashExpenses, "paid out of register"),
			creditLeg(cash, rev.OtherCashExpenses, "paid out of register"))
	}

	lottery := namedOrCreate(models.AccountTypeLiability, AcctLotteryPayable)
	switch {
	case rev.LotteryCashOwed.IsPositive():
		legs = append(legs, creditLeg(lottery, rev.LotteryCashOwed, "lottery cash owed"))
	case rev.LotteryCashOwed.IsNegative():
		legs = append(legs, debitLeg(lottery, rev.LotteryCashOwed.Neg(), "lottery cash due to store"))
	}

	if len(legs) < 2 {
		return s.skip(event, rev.ID, "nothing to post")
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range legs {
		debits = debits.Add(l.debit)
		credits = credits.Add(l.credit)
	}
	if debits.Sub(credits).Abs().GreaterThan(s.config.BalanceTolerance) {
		autoPostUnbalanced.WithLabelValues(event).Inc()
		return s.skip(event, rev.ID, "legs do not balance (debits %s, credits %s)", debits.StringFixed(2), credits.StringFixed(2))
	}

	return s.post(ctx, posting{
		event:       event,
		storeID:     rev.StoreID,
		ref:         models.Reference{Type: models.RefDailyRevenue, ID: rev.ID},
		date:        rev.RevenueDate,
		description: fmt.Sprintf("Daily revenue %s", rev.RevenueDate.Format("2006-01-02")),
		enteredBy:   rev.EnteredBy,
		legs:        legs,
	})
}

// post claims the reference, returns any entry already written for it,
// resolves every leg and creates the entry as posted.
func (s *AutoPostService) post(ctx context.Context, p posting) (*models.JournalEntry, error) {
	release, ok := s.guard.Claim(ctx, p.storeID, p.ref.Type, p.ref.ID)
	if !ok {
		return s.skip(p.event, p.ref.ID, "another worker is posting this %s", p.ref.Type)
	}
	defer release()

	existing, err := s.ledger.FindByReference(ctx, p.storeID, p.ref)
	if err != nil {
		autoPostTotal.WithLabelValues(p.event, outcomeFailed).Inc()
		return nil, fmt.Errorf("look up %s %d: %w", p.ref.Type, p.ref.ID, err)
	}
	if existing != nil {
		autoPostTotal.WithLabelValues(p.event, outcomeDuplicate).Inc()
		log.Printf("[AUTOPOST] %s %d already posted as %s", p.ref.Type, p.ref.ID, existing.EntryNumber)
		return existing, nil
	}

	lines := make([]LineInput, 0, len(p.legs))
	for _, l := range p.legs {
		res, err := s.resolver.Resolve(ctx, p.storeID, l.spec)
		if err == nil && !res.Resolved() && l.fallback != nil {
			res, err = s.resolver.Resolve(ctx, p.storeID, *l.fallback)
		}
		if err != nil {
			autoPostTotal.WithLabelValues(p.event, outcomeFailed).Inc()
			return nil, fmt.Errorf("resolve %s account: %w", l.spec.Type, err)
		}
		if !res.Resolved() {
			return s.skip(p.event, p.ref.ID, "no %s account matches %v", l.spec.Type, l.spec.Names)
		}
		lines = append(lines, LineInput{
			AccountID:    res.AccountID,
			DebitAmount:  l.debit,
			CreditAmount: l.credit,
			Description:  l.memo,
		})
	}

	ref := p.ref
	entry, err := s.ledger.Create(ctx, CreateEntryInput{
		StoreID:     p.storeID,
		EntryDate:   p.date,
		EntryType:   models.EntryTypeAuto,
		Description: p.description,
		Reference:   &ref,
		Status:      models.EntryStatusPosted,
		Lines:       lines,
		EnteredBy:   p.enteredBy,
	})
	if err != nil {
		autoPostTotal.WithLabelValues(p.event, outcomeFailed).Inc()
		return nil, fmt.Errorf("post %s %d: %w", p.ref.Type, p.ref.ID, err)
	}

	autoPostTotal.WithLabelValues(p.event, outcomePosted).Inc()
	log.Printf("[AUTOPOST] Posted %s %d as %s", p.ref.Type, p.ref.ID, entry.EntryNumber)
	return entry, nil
}

func (s *AutoPostService) skip(event string, id int64, format string, args ...any) (*models.JournalEntry, error) {
	autoPostTotal.WithLabelValues(event, outcomeSkipped).Inc()
	log.Printf("[AUTOPOST] Skipping %s %d: %s", event, id, fmt.Sprintf(format, args...))
	return nil, nil
}

// paymentAccountSpec maps a payment method to the account it moves money
// through. Unknown methods report false.
func paymentAccountSpec(method, bankAccountName string) (AccountSpec, bool) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case models.PaymentCash:
		return AccountSpec{Type: models.AccountTypeAsset, Names: []string{AcctCash}}, true
	case models.PaymentBank, models.PaymentCheck:
		return AccountSpec{Type: models.AccountTypeAsset, Names: []string{bankAccountName, AcctBank, AcctChecking}}, true
	case models.PaymentCard, models.PaymentCreditCard:
		return AccountSpec{Type: models.AccountTypeLiability, Names: []string{AcctCreditCard}}, true
	}
	return AccountSpec{}, false
}

func expenseSpec(category string) AccountSpec {
	return AccountSpec{Type: models.AccountTypeExpense, Names: []string{category}, TypeFallback: true}
}

func namedOrCreate(t models.AccountType, name string) AccountSpec {
	return AccountSpec{Type: t, Names: []string{name}, CreateName: name}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
