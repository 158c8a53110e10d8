package services

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decimalArg matches a money argument by value, ignoring scale.
type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	case float64:
		s = fmt.Sprintf("%v", x)
	default:
		return false
	}
	got, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return got.Equal(dec(string(d)))
}

type MockJournalWriter struct {
	mock.Mock
}

func (m *MockJournalWriter) Create(ctx context.Context, in CreateEntryInput) (*models.JournalEntry, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JournalEntry), args.Error(1)
}

func (m *MockJournalWriter) FindByReference(ctx context.Context, storeID int64, ref models.Reference) (*models.JournalEntry, error) {
	args := m.Called(ctx, storeID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JournalEntry), args.Error(1)
}

type MockAccountCatalog struct {
	mock.Mock
}

func (m *MockAccountCatalog) FindAccountByName(ctx context.Context, storeID int64, name string, accountType models.AccountType) (int64, bool, error) {
	args := m.Called(ctx, storeID, name, accountType)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockAccountCatalog) FindAccountByType(ctx context.Context, storeID int64, accountType models.AccountType) (int64, bool, error) {
	args := m.Called(ctx, storeID, accountType)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockAccountCatalog) CreateAccount(ctx context.Context, storeID int64, name string, accountType models.AccountType) (*models.Account, error) {
	args := m.Called(ctx, storeID, name, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

// chart is an in-memory chart of accounts for adapter tests. Names are
// matched case-sensitively here; the SQL catalog does the folding.
type chart struct {
	accounts []models.Account
	created  []string
}

func newChart(accounts ...models.Account) *chart {
	return &chart{accounts: accounts}
}

func (c *chart) FindAccountByName(_ context.Context, storeID int64, name string, accountType models.AccountType) (int64, bool, error) {
	for _, a := range c.accounts {
		if a.StoreID == storeID && a.Name == name && (accountType == "" || a.Type == accountType) {
			return a.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *chart) FindAccountByType(_ context.Context, storeID int64, accountType models.AccountType) (int64, bool, error) {
	for _, a := range c.accounts {
		if a.StoreID == storeID && a.Type == accountType {
			return a.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *chart) CreateAccount(_ context.Context, storeID int64, name string, accountType models.AccountType) (*models.Account, error) {
	a := models.Account{ID: int64(1000 + len(c.accounts)), StoreID: storeID, Name: name, Type: accountType, IsActive: true}
	c.accounts = append(c.accounts, a)
	c.created = append(c.created, name)
	return &a, nil
}

func (c *chart) id(name string) int64 {
	for _, a := range c.accounts {
		if a.Name == name {
			return a.ID
		}
	}
	return 0
}

// entryFor builds the entry a JournalWriter mock hands back.
func entryFor(in CreateEntryInput) *models.JournalEntry {
	return &models.JournalEntry{
		ID:          uuid.New(),
		StoreID:     in.StoreID,
		EntryNumber: "JE-000001",
		EntryType:   in.EntryType,
		Status:      in.Status,
		Reference:   in.Reference,
	}
}
