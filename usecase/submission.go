package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/domain/entities"
	"github.com/satriahrh/voxpense/domain/repositories"
)

// Outcome is the result of an auto-submit attempt
type Outcome string

const (
	OutcomeSubmitted     Outcome = "submitted"
	OutcomeHeldForReview Outcome = "held_for_review"
)

// SubmittedHook is told about every expense the coordinator persists
type SubmittedHook func(expense *entities.Expense)

// SubmissionCoordinator validates extraction results and hands them to the expense store
type SubmissionCoordinator struct {
	expenses repositories.ExpenseRepository
	logger   *zap.Logger

	mu    sync.RWMutex
	hooks []SubmittedHook
}

// NewSubmissionCoordinator creates a new submission coordinator
func NewSubmissionCoordinator(expenses repositories.ExpenseRepository, logger *zap.Logger) *SubmissionCoordinator {
	return &SubmissionCoordinator{
		expenses: expenses,
		logger:   logger,
	}
}

// OnSubmitted registers a hook run after each successful create, so owners
// of cached expense lists and stats can refresh them.
func (c *SubmissionCoordinator) OnSubmitted(hook SubmittedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// TryAutoSubmit submits immediately when the result carries an amount and
// holds it for review otherwise. A store failure also holds the result, with
// the error wrapped as entities.ErrSubmission.
func (c *SubmissionCoordinator) TryAutoSubmit(ctx context.Context, result entities.ExtractionResult) (Outcome, *entities.Expense, error) {
	if !result.HasAmount() {
		c.logger.Info("Holding transcript for review, no amount found",
			zap.String("description", result.Description))
		return OutcomeHeldForReview, nil, nil
	}

	expense, err := c.Submit(ctx, result)
	if err != nil {
		return OutcomeHeldForReview, nil, err
	}
	return OutcomeSubmitted, expense, nil
}

// Submit persists a confirmed result
func (c *SubmissionCoordinator) Submit(ctx context.Context, result entities.ExtractionResult) (*entities.Expense, error) {
	draft, ok := result.Draft()
	if !ok {
		return nil, entities.ErrAmountMissing
	}
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrSubmission, err)
	}

	expense, err := c.expenses.Create(ctx, draft)
	if err != nil {
		c.logger.Error("Failed to create expense",
			zap.String("description", draft.Description),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entities.ErrSubmission, err)
	}

	c.logger.Info("Expense created",
		zap.String("id", expense.ID),
		zap.String("amount", expense.Amount.String()),
		zap.String("category", string(expense.Category)))

	c.mu.RLock()
	hooks := append([]SubmittedHook(nil), c.hooks...)
	c.mu.RUnlock()
	for _, hook := range hooks {
		hook(expense)
	}

	return expense, nil
}
