package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voxpense/domain/entities"
	"github.com/satriahrh/voxpense/domain/repositories"
)

var _ repositories.ExpenseRepository = &ExpenseRepository{}

// TestExpenseRepository_Integration requires a PostgreSQL instance
// (skipped if POSTGRES_DSN is not set)
func TestExpenseRepository_Integration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL integration test - POSTGRES_DSN not set")
	}

	ctx := context.Background()
	repo, err := NewExpenseRepository(ctx, dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.pool.Exec(ctx, `TRUNCATE expenses`)
	require.NoError(t, err)

	day := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return day.AddDate(0, 0, -30) }
	old, err := repo.Create(ctx, entities.ExpenseDraft{
		Description: "Flight 240 dollars",
		Amount:      decimal.NewFromInt(240),
		Category:    entities.CategoryTravel,
	})
	require.NoError(t, err)

	repo.now = func() time.Time { return day }
	coffee, err := repo.Create(ctx, entities.ExpenseDraft{
		Description: "Coffee 4.75",
		Amount:      decimal.RequireFromString("4.75"),
		Category:    entities.CategoryFood,
	})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, coffee.ID, list[0].ID)
	assert.Equal(t, "2026-03-20", list[0].Date)
	assert.Equal(t, "4.75", list[0].Amount.String())
	assert.Equal(t, old.ID, list[1].ID)

	stats, err := repo.Stats(ctx, entities.RecentSince(day, entities.RecentWindow))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("244.75").Equal(stats.Total))
	assert.Equal(t, 1, stats.RecentCount)
	assert.True(t, decimal.RequireFromString("4.75").Equal(stats.RecentTotal))
	require.Len(t, stats.ByCategory, 2)
	assert.Equal(t, entities.CategoryTravel, stats.ByCategory[0].Category)

	require.NoError(t, repo.Delete(ctx, old.ID))
	assert.ErrorIs(t, repo.Delete(ctx, old.ID), entities.ErrExpenseNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), entities.ErrExpenseNotFound)
}
