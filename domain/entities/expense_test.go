package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseDraft_Validate(t *testing.T) {
	valid := ExpenseDraft{Description: "Coffee 4.75", Amount: decimal.RequireFromString("4.75"), Category: CategoryFood}
	assert.NoError(t, valid.Validate())

	noDescription := valid
	noDescription.Description = "  "
	assert.Error(t, noDescription.Validate())

	zero := valid
	zero.Amount = decimal.Zero
	assert.Error(t, zero.Validate())

	unknown := valid
	unknown.Category = "groceries"
	assert.Error(t, unknown.Validate())
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryTravel, ParseCategory(" Travel "))
	assert.Equal(t, CategoryOther, ParseCategory("groceries"))
	assert.Equal(t, CategoryOther, Categories[len(Categories)-1])
}

func TestSummarizeExpenses(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -30)
	draft := func(amount string, c CategoryTag) ExpenseDraft {
		return ExpenseDraft{Description: "x", Amount: decimal.RequireFromString(amount), Category: c}
	}

	expenses := []*Expense{
		NewExpense("1", draft("12.50", CategoryFood), now),
		NewExpense("2", draft("40", CategoryTransportation), old),
		NewExpense("3", draft("7.50", CategoryFood), now.AddDate(0, 0, -7)),
		NewExpense("4", draft("20", CategoryShopping), now.AddDate(0, 0, -8)),
	}

	stats := SummarizeExpenses(expenses, RecentSince(now, RecentWindow))

	assert.True(t, decimal.RequireFromString("80").Equal(stats.Total))
	assert.Equal(t, 2, stats.RecentCount)
	assert.True(t, decimal.RequireFromString("20").Equal(stats.RecentTotal))

	require.Len(t, stats.ByCategory, 3)
	assert.Equal(t, CategoryTransportation, stats.ByCategory[0].Category)
	// food and shopping tie at 20; name order breaks the tie
	assert.Equal(t, CategoryFood, stats.ByCategory[1].Category)
	assert.Equal(t, CategoryShopping, stats.ByCategory[2].Category)
}

func TestSummarizeExpenses_Empty(t *testing.T) {
	stats := SummarizeExpenses(nil, time.Now())
	assert.True(t, stats.Total.IsZero())
	assert.Equal(t, 0, stats.RecentCount)
	assert.NotNil(t, stats.ByCategory)
}
