package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadLedgerConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		got, want := LoadLedgerConfig(), DefaultLedgerConfig()
		assert.True(t, got.BalanceTolerance.Equal(want.BalanceTolerance))
		got.BalanceTolerance = want.BalanceTolerance
		assert.Equal(t, want, got)
	})

	t.Run("overrides", func(t *testing.T) {
		viper.Reset()
		viper.Set("ledger.balance_tolerance", "0.05")
		viper.Set("ledger.entry_number_prefix", "GL")
		viper.Set("ledger.max_list_limit", 200)
		viper.Set("ledger.idempotency_ttl", "2m")

		cfg := LoadLedgerConfig()
		assert.True(t, cfg.BalanceTolerance.Equal(decimal.RequireFromString("0.05")))
		assert.Equal(t, "GL", cfg.EntryNumberPrefix)
		assert.Equal(t, 200, cfg.MaxListLimit)
		assert.Equal(t, 50, cfg.DefaultListLimit)
		assert.Equal(t, 2*time.Minute, cfg.IdempotencyTTL)
	})

	for _, bad := range []string{"abc", "-0.5"} {
		t.Run("tolerance "+bad, func(t *testing.T) {
			viper.Reset()
			viper.Set("ledger.balance_tolerance", bad)
			assert.True(t, LoadLedgerConfig().BalanceTolerance.Equal(decimal.New(1, -2)))
		})
	}
}
