package config

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// LedgerConfig holds the tunables of the journal, auto-posting and cash
// ledger services.
type LedgerConfig struct {
	BalanceTolerance  decimal.Decimal
	EntryNumberPrefix string
	DefaultListLimit  int
	MaxListLimit      int
	CashHistoryLimit  int
	MaxCashHistory    int
	IdempotencyTTL    time.Duration
	IdempotencyPrefix string
	AdminRole         string
}

func LoadLedgerConfig() *LedgerConfig {
	viper.SetDefault("ledger.balance_tolerance", "0.01")
	viper.SetDefault("ledger.entry_number_prefix", "JE")
	viper.SetDefault("ledger.default_list_limit", 50)
	viper.SetDefault("ledger.max_list_limit", 500)
	viper.SetDefault("ledger.cash_history_limit", 100)
	viper.SetDefault("ledger.max_cash_history", 1000)
	viper.SetDefault("ledger.idempotency_ttl", 30*time.Second)
	viper.SetDefault("ledger.idempotency_prefix", "autopost")
	viper.SetDefault("ledger.admin_role", "admin")

	tolerance, err := decimal.NewFromString(viper.GetString("ledger.balance_tolerance"))
	if err != nil || tolerance.IsNegative() {
		tolerance = decimal.New(1, -2)
	}

	return &LedgerConfig{
		BalanceTolerance:  tolerance,
		EntryNumberPrefix: viper.GetString("ledger.entry_number_prefix"),
		DefaultListLimit:  viper.GetInt("ledger.default_list_limit"),
		MaxListLimit:      viper.GetInt("ledger.max_list_limit"),
		CashHistoryLimit:  viper.GetInt("ledger.cash_history_limit"),
		MaxCashHistory:    viper.GetInt("ledger.max_cash_history"),
		IdempotencyTTL:    viper.GetDuration("ledger.idempotency_ttl"),
		IdempotencyPrefix: viper.GetString("ledger.idempotency_prefix"),
		AdminRole:         viper.GetString("ledger.admin_role"),
	}
}

// DefaultLedgerConfig returns the built-in defaults without consulting
// viper.
func DefaultLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		BalanceTolerance:  decimal.New(1, -2),
		EntryNumberPrefix: "JE",
		DefaultListLimit:  50,
		MaxListLimit:      500,
		CashHistoryLimit:  100,
		MaxCashHistory:    1000,
		IdempotencyTTL:    30 * time.Second,
		IdempotencyPrefix: "autopost",
		AdminRole:         "admin",
	}
}
