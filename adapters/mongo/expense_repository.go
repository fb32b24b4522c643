package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satriahrh/voxpense/domain/entities"
)

// expenseDocument is the stored shape of an expense. Amounts are Decimal128
// so the server can sum them exactly.
type expenseDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	Date        string               `bson:"date"`
	CreatedAt   time.Time            `bson:"created_at"`
}

func (d expenseDocument) toEntity() (*entities.Expense, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount for expense %s: %w", d.ID.Hex(), err)
	}
	return &entities.Expense{
		ID:          d.ID.Hex(),
		Amount:      amount,
		Description: d.Description,
		Category:    entities.ParseCategory(d.Category),
		Date:        d.Date,
		CreatedAt:   d.CreatedAt,
	}, nil
}

// ExpenseRepository implements repositories.ExpenseRepository on MongoDB
type ExpenseRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewExpenseRepository creates a new MongoDB expense repository
func NewExpenseRepository(db *mongo.Database) *ExpenseRepository {
	return &ExpenseRepository{
		collection: db.Collection("expenses"),
		now:        time.Now,
	}
}

// EnsureIndexes creates the index backing List ordering
func (r *ExpenseRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create expense index: %w", err)
	}
	return nil
}

// Create implements repositories.ExpenseRepository
func (r *ExpenseRepository) Create(ctx context.Context, draft entities.ExpenseDraft) (*entities.Expense, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	amount, err := primitive.ParseDecimal128(draft.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("amount out of range: %w", err)
	}

	// Mongo keeps millisecond precision
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := expenseDocument{
		Amount:      amount,
		Description: draft.Description,
		Category:    string(draft.Category),
		Date:        now.Format(entities.DateLayout),
		CreatedAt:   now,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("unexpected inserted id type")
	}
	return entities.NewExpense(oid.Hex(), draft, now), nil
}

// List implements repositories.ExpenseRepository
func (r *ExpenseRepository) List(ctx context.Context) ([]*entities.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []expenseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode expenses: %w", err)
	}

	expenses := make([]*entities.Expense, 0, len(docs))
	for _, doc := range docs {
		expense, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, nil
}

// Delete implements repositories.ExpenseRepository
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return entities.ErrExpenseNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if result.DeletedCount == 0 {
		return entities.ErrExpenseNotFound
	}
	return nil
}

type categoryTotalDocument struct {
	Category string               `bson:"_id"`
	Total    primitive.Decimal128 `bson:"total"`
	Count    int                  `bson:"count"`
}

// Stats implements repositories.ExpenseRepository with a single aggregation
func (r *ExpenseRepository) Stats(ctx context.Context, since time.Time) (*entities.ExpenseStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"by_category": bson.A{
				bson.M{"$group": bson.M{"_id": "$category", "total": bson.M{"$sum": "$amount"}, "count": bson.M{"$sum": 1}}},
			},
			"recent": bson.A{
				bson.M{"$match": bson.M{"date": bson.M{"$gte": since.Format(entities.DateLayout)}}},
				bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}, "count": bson.M{"$sum": 1}}},
			},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []struct {
		ByCategory []categoryTotalDocument `bson:"by_category"`
		Recent     []categoryTotalDocument `bson:"recent"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("failed to decode expense stats: %w", err)
	}

	stats := &entities.ExpenseStats{ByCategory: []entities.CategoryTotal{}}
	if len(facets) == 0 {
		return stats, nil
	}

	for _, doc := range facets[0].ByCategory {
		total, err := decimal.NewFromString(doc.Total.String())
		if err != nil {
			return nil, fmt.Errorf("invalid total for %s: %w", doc.Category, err)
		}
		stats.Total = stats.Total.Add(total)
		stats.ByCategory = append(stats.ByCategory, entities.CategoryTotal{
			Category: entities.ParseCategory(doc.Category),
			Total:    total,
		})
	}
	entities.SortCategoryTotals(stats.ByCategory)

	if len(facets[0].Recent) > 0 {
		recent := facets[0].Recent[0]
		total, err := decimal.NewFromString(recent.Total.String())
		if err != nil {
			return nil, fmt.Errorf("invalid recent total: %w", err)
		}
		stats.RecentCount = recent.Count
		stats.RecentTotal = total
	}
	return stats, nil
}
