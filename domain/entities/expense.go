package entities

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTag is one of the fixed expense categories
type CategoryTag string

const (
	CategoryFood           CategoryTag = "food"
	CategoryTransportation CategoryTag = "transportation"
	CategoryShopping       CategoryTag = "shopping"
	CategoryEntertainment  CategoryTag = "entertainment"
	CategoryUtilities      CategoryTag = "utilities"
	CategoryHealthcare     CategoryTag = "healthcare"
	CategoryEducation      CategoryTag = "education"
	CategoryTravel         CategoryTag = "travel"
	CategoryOther          CategoryTag = "other"
)

// Categories lists every tag in declaration order. CategoryOther is last.
var Categories = []CategoryTag{
	CategoryFood,
	CategoryTransportation,
	CategoryShopping,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryEducation,
	CategoryTravel,
	CategoryOther,
}

// ParseCategory maps a string onto the closed category set.
// Unknown values map to CategoryOther.
func ParseCategory(s string) CategoryTag {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

// Valid reports whether c belongs to the category set
func (c CategoryTag) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ExpenseDraft is the payload sent to the expense store
type ExpenseDraft struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    CategoryTag     `json:"category"`
}

// Validate checks the draft before it reaches the store
func (d ExpenseDraft) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return errors.New("description is required")
	}
	if !d.Amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if !d.Category.Valid() {
		return errors.New("invalid category")
	}
	return nil
}

// Expense is a persisted expense record
type Expense struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    CategoryTag     `json:"category"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DateLayout is the format of Expense.Date
const DateLayout = "2006-01-02"

// NewExpense stamps a draft with the given id and creation time
func NewExpense(id string, draft ExpenseDraft, now time.Time) *Expense {
	return &Expense{
		ID:          id,
		Amount:      draft.Amount,
		Description: draft.Description,
		Category:    draft.Category,
		Date:        now.Format(DateLayout),
		CreatedAt:   now,
	}
}

// CategoryTotal is the summed amount for one category
type CategoryTotal struct {
	Category CategoryTag     `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// ExpenseStats summarises the stored expenses
type ExpenseStats struct {
	Total       decimal.Decimal `json:"total_expenses"`
	RecentCount int             `json:"recent_count"`
	RecentTotal decimal.Decimal `json:"recent_total"`
	ByCategory  []CategoryTotal `json:"by_category"`
}

// RecentWindow is the default span in which Stats counts an expense as recent
const RecentWindow = 7 * 24 * time.Hour

// RecentSince returns the start of the recent window ending at now
func RecentSince(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// SummarizeExpenses computes stats in memory for stores that cannot
// aggregate decimals natively. Expenses dated on or after since are recent.
func SummarizeExpenses(expenses []*Expense, since time.Time) *ExpenseStats {
	stats := &ExpenseStats{ByCategory: []CategoryTotal{}}
	totals := make(map[CategoryTag]decimal.Decimal)
	sinceDate := since.Format(DateLayout)

	for _, e := range expenses {
		stats.Total = stats.Total.Add(e.Amount)
		totals[e.Category] = totals[e.Category].Add(e.Amount)
		if e.Date >= sinceDate {
			stats.RecentCount++
			stats.RecentTotal = stats.RecentTotal.Add(e.Amount)
		}
	}

	for _, c := range Categories {
		if total, ok := totals[c]; ok {
			stats.ByCategory = append(stats.ByCategory, CategoryTotal{Category: c, Total: total})
		}
	}
	SortCategoryTotals(stats.ByCategory)
	return stats
}

// SortCategoryTotals orders totals largest first, ties by category name
func SortCategoryTotals(totals []CategoryTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
}
