package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/voxpense/domain/entities"
)

func TestMemoryExpenseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExpenseRepository()

	day := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	clock := day
	repo.now = func() time.Time { return clock }

	lunch, err := repo.Create(ctx, entities.ExpenseDraft{
		Description: "Lunch at Chipotle $12.50",
		Amount:      decimal.RequireFromString("12.50"),
		Category:    entities.CategoryFood,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lunch.ID)
	assert.Equal(t, "2026-03-20", lunch.Date)

	clock = day.AddDate(0, 0, -10)
	taxi, err := repo.Create(ctx, entities.ExpenseDraft{
		Description: "Taxi 23 dollars",
		Amount:      decimal.NewFromInt(23),
		Category:    entities.CategoryTransportation,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, entities.ExpenseDraft{Description: "free", Amount: decimal.Zero, Category: entities.CategoryOther})
	assert.Error(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, lunch.ID, list[0].ID)
	assert.Equal(t, taxi.ID, list[1].ID)

	stats, err := repo.Stats(ctx, entities.RecentSince(day, entities.RecentWindow))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35.50").Equal(stats.Total))
	assert.Equal(t, 1, stats.RecentCount)
	assert.Equal(t, entities.CategoryTransportation, stats.ByCategory[0].Category)

	require.NoError(t, repo.Delete(ctx, taxi.ID))
	assert.ErrorIs(t, repo.Delete(ctx, taxi.ID), entities.ErrExpenseNotFound)
	assert.Equal(t, 1, repo.Count())
}
