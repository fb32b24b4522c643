package repositories

import (
	"context"
	"time"

	"github.com/satriahrh/voxpense/domain/entities"
)

// ExpenseRepository defines data access methods for expenses
type ExpenseRepository interface {
	// Create persists a draft and returns the record with its generated id and timestamp
	Create(ctx context.Context, draft entities.ExpenseDraft) (*entities.Expense, error)
	// List returns every expense, most recent first
	List(ctx context.Context) ([]*entities.Expense, error)
	// Delete removes an expense, returning entities.ErrExpenseNotFound if it does not exist
	Delete(ctx context.Context, id string) error
	// Stats summarises the stored expenses. Expenses dated on or after
	// since count as recent.
	Stats(ctx context.Context, since time.Time) (*entities.ExpenseStats, error)
}
