// Package sqlite stores expenses in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satriahrh/voxpense/domain/entities"
)

const schema = `
CREATE TABLE IF NOT EXISTS expenses (
	id          TEXT PRIMARY KEY,
	amount      TEXT NOT NULL,
	description TEXT NOT NULL,
	category    TEXT NOT NULL,
	date        TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date DESC, created_at DESC);
`

// ExpenseRepository implements repositories.ExpenseRepository on SQLite.
// Amounts are stored as decimal text so no precision is lost.
type ExpenseRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewExpenseRepository opens (creating if needed) the database at dbPath
func NewExpenseRepository(ctx context.Context, dbPath string) (*ExpenseRepository, error) {
	if dbPath == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &ExpenseRepository{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (r *ExpenseRepository) Close() error {
	return r.db.Close()
}

// Create implements repositories.ExpenseRepository
func (r *ExpenseRepository) Create(ctx context.Context, draft entities.ExpenseDraft) (*entities.Expense, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	expense := entities.NewExpense(uuid.New().String(), draft, r.now().UTC())
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, amount, description, category, date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Amount.String(), expense.Description, string(expense.Category), expense.Date, expense.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}
	return expense, nil
}

// List implements repositories.ExpenseRepository
func (r *ExpenseRepository) List(ctx context.Context) ([]*entities.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, description, category, date, created_at FROM expenses ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*entities.Expense{}
	for rows.Next() {
		var (
			e        entities.Expense
			amount   string
			category string
		)
		if err := rows.Scan(&e.ID, &amount, &e.Description, &category, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid amount for expense %s: %w", e.ID, err)
		}
		e.Category = entities.ParseCategory(category)
		expenses = append(expenses, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// Delete implements repositories.ExpenseRepository
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrExpenseNotFound
	}
	return nil
}

// Stats implements repositories.ExpenseRepository. SQLite has no decimal
// type, so totals are summed in Go.
func (r *ExpenseRepository) Stats(ctx context.Context, since time.Time) (*entities.ExpenseStats, error) {
	expenses, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return entities.SummarizeExpenses(expenses, since), nil
}
