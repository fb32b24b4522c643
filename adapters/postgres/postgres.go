// Package postgres provides a PostgreSQL expense store.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/domain/entities"
)

//go:embed 001_create_expenses.sql
var migrationSQL string

// ExpenseRepository implements repositories.ExpenseRepository on PostgreSQL
type ExpenseRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

// NewExpenseRepository connects to dsn, verifies the connection and runs
// the schema migration.
func NewExpenseRepository(ctx context.Context, dsn string, logger *zap.Logger) (*ExpenseRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database))

	return &ExpenseRepository{pool: pool, logger: logger, now: time.Now}, nil
}

// Close closes the connection pool
func (r *ExpenseRepository) Close() {
	r.pool.Close()
}

// Create implements repositories.ExpenseRepository
func (r *ExpenseRepository) Create(ctx context.Context, draft entities.ExpenseDraft) (*entities.Expense, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	// TIMESTAMPTZ keeps microseconds
	expense := entities.NewExpense(uuid.New().String(), draft, r.now().UTC().Truncate(time.Microsecond))
	_, err := r.pool.Exec(ctx, `
		INSERT INTO expenses (id, amount, description, category, date, created_at)
		VALUES ($1, $2::numeric, $3, $4, $5::date, $6)`,
		expense.ID, expense.Amount.String(), expense.Description, string(expense.Category), expense.Date, expense.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting expense: %w", err)
	}
	return expense, nil
}

// List implements repositories.ExpenseRepository
func (r *ExpenseRepository) List(ctx context.Context) ([]*entities.Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, amount::text, description, category, to_char(date, 'YYYY-MM-DD'), created_at
		FROM expenses
		ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}

	expenses, err := pgx.CollectRows(rows, scanExpense)
	if err != nil {
		return nil, fmt.Errorf("scanning expenses: %w", err)
	}
	return expenses, nil
}

func scanExpense(row pgx.CollectableRow) (*entities.Expense, error) {
	var (
		e        entities.Expense
		amount   string
		category string
	)
	if err := row.Scan(&e.ID, &amount, &e.Description, &category, &e.Date, &e.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount for expense %s: %w", e.ID, err)
	}
	e.Amount = parsed
	e.Category = entities.ParseCategory(category)
	return &e, nil
}

// Delete implements repositories.ExpenseRepository
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return entities.ErrExpenseNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrExpenseNotFound
	}
	return nil
}

// Stats implements repositories.ExpenseRepository. Both aggregates are sent
// in one batch.
func (r *ExpenseRepository) Stats(ctx context.Context, since time.Time) (*entities.ExpenseStats, error) {
	batch := &pgx.Batch{}
	batch.Queue(`
		SELECT category, SUM(amount)::text
		FROM expenses
		GROUP BY category
		ORDER BY SUM(amount) DESC, category`)
	batch.Queue(`
		SELECT COUNT(*), COALESCE(SUM(amount), 0)::text
		FROM expenses
		WHERE date >= $1::date`, since.Format(entities.DateLayout))

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	rows, err := results.Query()
	if err != nil {
		return nil, fmt.Errorf("querying category totals: %w", err)
	}
	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.CategoryTotal, error) {
		var category, total string
		if err := row.Scan(&category, &total); err != nil {
			return entities.CategoryTotal{}, err
		}
		amount, err := decimal.NewFromString(total)
		if err != nil {
			return entities.CategoryTotal{}, err
		}
		return entities.CategoryTotal{Category: entities.ParseCategory(category), Total: amount}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning category totals: %w", err)
	}

	stats := &entities.ExpenseStats{ByCategory: totals}
	for _, t := range totals {
		stats.Total = stats.Total.Add(t.Total)
	}

	var recentTotal string
	if err := results.QueryRow().Scan(&stats.RecentCount, &recentTotal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return nil, fmt.Errorf("querying recent totals: %w", err)
	}
	if stats.RecentTotal, err = decimal.NewFromString(recentTotal); err != nil {
		return nil, fmt.Errorf("invalid recent total: %w", err)
	}
	return stats, nil
}
