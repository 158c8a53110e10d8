package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// Migration is one versioned schema step. Applied versions are recorded in
// schema_migrations and never re-run.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// Migrations is the ledger schema in apply order.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_accounts",
		Up: `
CREATE TABLE IF NOT EXISTS accounts (
    id           BIGSERIAL PRIMARY KEY,
    store_id     BIGINT NOT NULL,
    code         VARCHAR(20) NOT NULL,
    name         VARCHAR(200) NOT NULL,
    account_type VARCHAR(20) NOT NULL
        CHECK (account_type IN ('asset', 'liability', 'equity', 'revenue', 'expense')),
    is_active    BOOLEAN NOT NULL DEFAULT TRUE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_store_name ON accounts (store_id, LOWER(name));
CREATE INDEX IF NOT EXISTS idx_accounts_store_type ON accounts (store_id, account_type, code);
`,
	},
	{
		Version: 2,
		Name:    "create_journal_entries",
		Up: `
CREATE TABLE IF NOT EXISTS journal_entry_sequences (
    store_id    BIGINT PRIMARY KEY,
    last_number BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS journal_entries (
    id                UUID PRIMARY KEY,
    store_id          BIGINT NOT NULL,
    entry_number      VARCHAR(30) NOT NULL,
    entry_date        DATE NOT NULL,
    entry_type        VARCHAR(20) NOT NULL CHECK (entry_type IN ('manual', 'auto', 'reversal')),
    description       TEXT NOT NULL DEFAULT '',
    reference_type    VARCHAR(50),
    reference_id      BIGINT,
    reversal_of_id    UUID REFERENCES journal_entries (id),
    status            VARCHAR(20) NOT NULL CHECK (status IN ('draft', 'posted', 'reversed')),
    total_debit       NUMERIC(14, 2) NOT NULL DEFAULT 0,
    total_credit      NUMERIC(14, 2) NOT NULL DEFAULT 0,
    is_balanced       BOOLEAN NOT NULL DEFAULT FALSE,
    entered_by        BIGINT NOT NULL,
    posted_by         BIGINT,
    posted_at         TIMESTAMPTZ,
    reversed_by       BIGINT,
    reversed_at       TIMESTAMPTZ,
    reversal_entry_id UUID REFERENCES journal_entries (id),
    notes             TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_journal_entries_number ON journal_entries (store_id, entry_number);
CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries (store_id, entry_date);
CREATE INDEX IF NOT EXISTS idx_journal_entries_reference ON journal_entries (store_id, reference_type, reference_id);

CREATE TABLE IF NOT EXISTS journal_entry_lines (
    id            UUID PRIMARY KEY,
    entry_id      UUID NOT NULL REFERENCES journal_entries (id) ON DELETE CASCADE,
    account_id    BIGINT NOT NULL REFERENCES accounts (id),
    line_number   INT NOT NULL,
    debit_amount  NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (debit_amount >= 0),
    credit_amount NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (credit_amount >= 0),
    description   TEXT NOT NULL DEFAULT '',
    CONSTRAINT journal_entry_lines_one_sided CHECK (
        (debit_amount > 0 AND credit_amount = 0) OR (credit_amount > 0 AND debit_amount = 0)
    ),
    UNIQUE (entry_id, line_number)
);

CREATE INDEX IF NOT EXISTS idx_journal_entry_lines_account ON journal_entry_lines (account_id);
`,
	},
	{
		Version: 3,
		Name:    "create_cash_ledger",
		Up: `
CREATE TABLE IF NOT EXISTS cash_on_hand (
    store_id            BIGINT PRIMARY KEY,
    current_balance     NUMERIC(14, 2) NOT NULL DEFAULT 0,
    last_transaction_id UUID,
    last_updated        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cash_transactions (
    seq              BIGSERIAL UNIQUE,
    id               UUID PRIMARY KEY,
    store_id         BIGINT NOT NULL,
    transaction_date DATE NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    source_id        BIGINT,
    amount           NUMERIC(14, 2) NOT NULL,
    balance_before   NUMERIC(14, 2) NOT NULL,
    balance_after    NUMERIC(14, 2) NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    entered_by       BIGINT,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (balance_after = balance_before + amount)
);

CREATE INDEX IF NOT EXISTS idx_cash_transactions_store ON cash_transactions (store_id, seq);
CREATE INDEX IF NOT EXISTS idx_cash_transactions_source ON cash_transactions (store_id, source_id, transaction_type);
`,
	},
}

// Migrate applies every migration newer than the recorded schema version,
// each in its own transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		log.Printf("[DB] Applied migration %d %s", m.Version, m.Name)
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.Up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
		m.Version, m.Name); err != nil {
		return err
	}
	return tx.Commit()
}
