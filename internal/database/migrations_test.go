package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Ordered(t *testing.T) {
	require.NotEmpty(t, Migrations)
	for i, m := range Migrations {
		assert.Equal(t, i+1, m.Version, "migration %s", m.Name)
		assert.NotEmpty(t, m.Up)
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("applies only pending versions", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS cash_on_hand")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)")).
			WithArgs(3, "create_cash_ledger").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, Migrate(ctx, db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("up to date", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0)")).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(len(Migrations)))

		require.NoError(t, Migrate(ctx, db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed step rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0)")).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS accounts")).
			WillReturnError(errors.New("permission denied for schema public"))
		mock.ExpectRollback()

		err = Migrate(ctx, db)
		assert.ErrorContains(t, err, "migration 1 (create_accounts)")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBConfig_DSN(t *testing.T) {
	c := &DBConfig{Host: "db", Port: "5432", User: "ledger", Password: "secret", Name: "backoffice", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=ledger password=secret dbname=backoffice sslmode=require", c.DSN())
}
