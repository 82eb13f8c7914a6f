package gorm_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodisave/backend/internal/domain/user"
	gormrepo "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
	"github.com/foodisave/backend/test/testutils"
)

func TestCreditLedger_DebitStopsAtZero(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	u := testutils.NewFactory(db, 1).User(t, testutils.WithCredits(2))
	ledger := gormrepo.NewCreditLedger(db)
	ctx := context.Background()

	balance, err := ledger.Debit(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = ledger.Debit(ctx, u.ID, 2)
	assert.ErrorIs(t, err, user.ErrInsufficientCredits)

	balance, err = ledger.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestCreditLedger_DebitUnknownUser(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	ledger := gormrepo.NewCreditLedger(db)

	_, err := ledger.Debit(context.Background(), 404, 1)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestCreditLedger_GrantDailyOncePerUTCDay(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	u := testutils.NewFactory(db, 2).User(t, testutils.WithCredits(5))
	ledger := gormrepo.NewCreditLedger(db)
	ctx := context.Background()

	morning := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	granted, err := ledger.GrantDaily(ctx, u.ID, user.BonusRecipeSaved, morning)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = ledger.GrantDaily(ctx, u.ID, user.BonusRecipeSaved, morning.Add(10*time.Hour))
	require.NoError(t, err)
	assert.False(t, granted, "second grant on the same day")

	// The login bonus is stamped separately.
	granted, err = ledger.GrantDaily(ctx, u.ID, user.BonusLogin, morning)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = ledger.GrantDaily(ctx, u.ID, user.BonusRecipeSaved, morning.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, granted, "next day")

	balance, err := ledger.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, balance)
}

func TestCreditLedger_RollbackRestoresBalance(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	u := testutils.NewFactory(db, 3).User(t, testutils.WithCredits(3))
	ledger := gormrepo.NewCreditLedger(db)
	tx := gormrepo.NewTransactor(db)
	ctx := context.Background()

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := ledger.Debit(ctx, u.ID, 2); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	balance, err := ledger.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
}

func TestCreditLedger_ConcurrentDebitsPostgres(t *testing.T) {
	pg := testutils.SetupPostgres(t)
	u := testutils.NewFactory(pg.DB, 4).User(t, testutils.WithCredits(5))
	ledger := gormrepo.NewCreditLedger(pg.DB)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Debit(context.Background(), u.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	balance, err := ledger.Balance(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
