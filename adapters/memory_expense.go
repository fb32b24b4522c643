package adapters

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/satriahrh/voxpense/domain/entities"
)

// MemoryExpenseRepository is an in-memory implementation of ExpenseRepository,
// used for development and as the default store.
type MemoryExpenseRepository struct {
	mu       sync.RWMutex
	expenses map[string]*entities.Expense
	now      func() time.Time
}

// NewMemoryExpenseRepository creates a new in-memory expense repository
func NewMemoryExpenseRepository() *MemoryExpenseRepository {
	return &MemoryExpenseRepository{
		expenses: make(map[string]*entities.Expense),
		now:      time.Now,
	}
}

// Create implements ExpenseRepository interface
func (m *MemoryExpenseRepository) Create(ctx context.Context, draft entities.ExpenseDraft) (*entities.Expense, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	expense := entities.NewExpense(uuid.New().String(), draft, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[expense.ID] = expense

	stored := *expense
	return &stored, nil
}

// List implements ExpenseRepository interface
func (m *MemoryExpenseRepository) List(ctx context.Context) ([]*entities.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*entities.Expense, 0, len(m.expenses))
	for _, e := range m.expenses {
		expense := *e
		result = append(result, &expense)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Delete implements ExpenseRepository interface
func (m *MemoryExpenseRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("expense ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.expenses[id]; !exists {
		return entities.ErrExpenseNotFound
	}
	delete(m.expenses, id)
	return nil
}

// Stats implements ExpenseRepository interface
func (m *MemoryExpenseRepository) Stats(ctx context.Context, since time.Time) (*entities.ExpenseStats, error) {
	expenses, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return entities.SummarizeExpenses(expenses, since), nil
}

// Count returns the number of stored expenses
func (m *MemoryExpenseRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.expenses)
}
