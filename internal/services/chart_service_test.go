package services

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/retailops/backoffice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChart(t *testing.T) (*ChartService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewChartService(db), mock
}

func TestChartService_FindAccountByName(t *testing.T) {
	ctx := context.Background()

	t.Run("match", func(t *testing.T) {
		svc, mock := newTestChart(t)
		mock.ExpectQuery(regexp.QuoteMeta("LOWER(name) = LOWER($2)")).
			WithArgs(int64(7), "Cash", "asset").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		id, ok, err := svc.FindAccountByName(ctx, 7, "  Cash ", models.AccountTypeAsset)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(1), id)
	})

	t.Run("no match", func(t *testing.T) {
		svc, mock := newTestChart(t)
		mock.ExpectQuery(regexp.QuoteMeta("LOWER(name) = LOWER($2)")).
			WithArgs(int64(7), "Bank", "asset").
			WillReturnError(sql.ErrNoRows)

		_, ok, err := svc.FindAccountByName(ctx, 7, "Bank", models.AccountTypeAsset)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("blank name skips the query", func(t *testing.T) {
		svc, mock := newTestChart(t)

		_, ok, err := svc.FindAccountByName(ctx, 7, "   ", models.AccountTypeAsset)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChartService_FindAccountByType(t *testing.T) {
	svc, mock := newTestChart(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY code, id")).
		WithArgs(int64(7), "expense").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(30)))

	id, ok, err := svc.FindAccountByType(context.Background(), 7, models.AccountTypeExpense)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(30), id)
}

func TestChartService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("next code in the class", func(t *testing.T) {
		svc, mock := newTestChart(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM accounts WHERE store_id = $1 AND account_type = $2")).
			WithArgs(int64(7), "liability").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (store_id, (LOWER(name))) DO UPDATE")).
			WithArgs(int64(7), "2030", AcctLotteryPayable, "liability").
			WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "code", "name", "account_type", "is_active"}).
				AddRow(int64(44), int64(7), "2030", AcctLotteryPayable, "liability", true))

		acct, err := svc.CreateAccount(ctx, 7, AcctLotteryPayable, models.AccountTypeLiability)
		require.NoError(t, err)
		assert.Equal(t, int64(44), acct.ID)
		assert.Equal(t, "2030", acct.Code)
		assert.Equal(t, models.AccountTypeLiability, acct.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown type", func(t *testing.T) {
		svc, _ := newTestChart(t)

		_, err := svc.CreateAccount(ctx, 7, "Misc", models.AccountType("contra"))
		assert.Error(t, err)
	})
}
