package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/retailops/backoffice/internal/models"
)

// AccountCatalog is the read side of a store's chart of accounts plus the
// single write the auto-posting adapter is allowed: creating a default
// account.
type AccountCatalog interface {
	FindAccountByName(ctx context.Context, storeID int64, name string, accountType models.AccountType) (int64, bool, error)
	FindAccountByType(ctx context.Context, storeID int64, accountType models.AccountType) (int64, bool, error)
	CreateAccount(ctx context.Context, storeID int64, name string, accountType models.AccountType) (*models.Account, error)
}

type ChartService struct {
	db *sql.DB
}

var _ AccountCatalog = (*ChartService)(nil)

func NewChartService(db *sql.DB) *ChartService {
	return &ChartService{db: db}
}

// codeBase is the first code of each account class in a default chart.
var codeBase = map[models.AccountType]int{
	models.AccountTypeAsset:     1000,
	models.AccountTypeLiability: 2000,
	models.AccountTypeEquity:    3000,
	models.AccountTypeRevenue:   4000,
	models.AccountTypeExpense:   5000,
}

// FindAccountByName matches an active account by case-insensitive name.
// An empty accountType matches any type.
func (s *ChartService) FindAccountByName(ctx context.Context, storeID int64, name string, accountType models.AccountType) (int64, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM accounts
		WHERE store_id = $1 AND LOWER(name) = LOWER($2) AND ($3 = '' OR account_type = $3) AND is_active
		ORDER BY id
		LIMIT 1`, storeID, name, string(accountType)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// FindAccountByType returns the first active account of the type, by code.
func (s *ChartService) FindAccountByType(ctx context.Context, storeID int64, accountType models.AccountType) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM accounts
		WHERE store_id = $1 AND account_type = $2 AND is_active
		ORDER BY code, id
		LIMIT 1`, storeID, string(accountType)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// CreateAccount inserts an account or returns the existing one with the
// same name. The unique (store_id, lower(name)) index turns concurrent
// first-use creation into a single row.
func (s *ChartService) CreateAccount(ctx context.Context, storeID int64, name string, accountType models.AccountType) (*models.Account, error) {
	if !accountType.Valid() {
		return nil, fmt.Errorf("unknown account type %q", accountType)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("account name is required")
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE store_id = $1 AND account_type = $2`,
		storeID, string(accountType)).Scan(&count); err != nil {
		return nil, err
	}
	code := fmt.Sprintf("%d", codeBase[accountType]+(count+1)*10)

	var a models.Account
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (store_id, code, name, account_type, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (store_id, (LOWER(name))) DO UPDATE SET is_active = accounts.is_active
		RETURNING id, store_id, code, name, account_type, is_active`,
		storeID, code, name, string(accountType)).
		Scan(&a.ID, &a.StoreID, &a.Code, &a.Name, &a.Type, &a.IsActive)
	if err != nil {
		return nil, err
	}

	log.Printf("[CHART] Provisioned %s account %q (%d, code %s) for store %d", a.Type, a.Name, a.ID, a.Code, storeID)
	return &a, nil
}
