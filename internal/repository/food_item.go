package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultRecentLimit = 20
	searchLimit        = 50
)

var (
	ErrFoodItemNotFound = errors.New("food item not found")
)

// FoodItemRepository is the reusable food catalog. Items are never deleted.
type FoodItemRepository interface {
	Save(ctx context.Context, ownerID string, input model.FoodItemInput) (*model.FoodItem, error)
	ByID(ctx context.Context, ownerID, id string) (*model.FoodItem, error)
	Recent(ctx context.Context, ownerID string, limit int) ([]*model.FoodItem, error)
	Favorites(ctx context.Context, ownerID string) ([]*model.FoodItem, error)
	ToggleFavorite(ctx context.Context, ownerID, id string, favorite bool) error
	IncrementUseCount(ctx context.Context, ownerID, id string) error
	Search(ctx context.Context, ownerID, query string) ([]*model.FoodItem, error)
	FindByBarcode(ctx context.Context, ownerID, barcode string) (*model.FoodItem, error)
}

type foodItemRepository struct {
	db *sqlx.DB
}

func NewFoodItemRepository(db *sqlx.DB) FoodItemRepository {
	return &foodItemRepository{db: db}
}

func (r *foodItemRepository) Save(ctx context.Context, ownerID string, input model.FoodItemInput) (*model.FoodItem, error) {
	now := model.Now()
	item := &model.FoodItem{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Barcode:     input.Barcode,
		Name:        strings.TrimSpace(input.Name),
		Brand:       input.Brand,
		Macros:      input.Macros,
		ServingSize: input.ServingSize,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if item.ServingSize == "" {
		item.ServingSize = model.DefaultServingSize
	}

	query := `INSERT INTO food_items (
			id, user_id, barcode, name, brand,
			calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg,
			serving_size, is_favorite, use_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		item.Barcode,
		item.Name,
		item.Brand,
		item.Calories,
		item.ProteinG,
		item.CarbsG,
		item.FatG,
		item.FiberG,
		item.SugarG,
		item.SodiumMg,
		item.ServingSize,
		false,
		0,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert food item: %w", err)
	}

	return item, nil
}

func (r *foodItemRepository) ByID(ctx context.Context, ownerID, id string) (*model.FoodItem, error) {
	item := &model.FoodItem{}
	err := r.db.GetContext(ctx, item, `SELECT * FROM food_items WHERE id = $1 AND user_id = $2`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFoodItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *foodItemRepository) Recent(ctx context.Context, ownerID string, limit int) ([]*model.FoodItem, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	items := []*model.FoodItem{}
	query := `SELECT * FROM food_items WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &items, query, ownerID, limit)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *foodItemRepository) Favorites(ctx context.Context, ownerID string) ([]*model.FoodItem, error) {
	items := []*model.FoodItem{}
	query := `SELECT * FROM food_items WHERE user_id = $1 AND is_favorite = $2 ORDER BY use_count DESC`

	err := r.db.SelectContext(ctx, &items, query, ownerID, true)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *foodItemRepository) ToggleFavorite(ctx context.Context, ownerID, id string, favorite bool) error {
	query := `UPDATE food_items SET is_favorite = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	return r.exec(ctx, query, favorite, model.Now(), id, ownerID)
}

// IncrementUseCount bumps the counter by one; the count never decreases.
func (r *foodItemRepository) IncrementUseCount(ctx context.Context, ownerID, id string) error {
	query := `UPDATE food_items SET use_count = use_count + 1, updated_at = $1 WHERE id = $2 AND user_id = $3`
	return r.exec(ctx, query, model.Now(), id, ownerID)
}

func (r *foodItemRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrFoodItemNotFound
	}

	return nil
}

// Search matches name or brand as a substring, most used first.
func (r *foodItemRepository) Search(ctx context.Context, ownerID, query string) ([]*model.FoodItem, error) {
	items := []*model.FoodItem{}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	q := `SELECT * FROM food_items
	      WHERE user_id = $1 AND (name LIKE $2 ESCAPE '\' OR brand LIKE $2 ESCAPE '\')
	      ORDER BY use_count DESC
	      LIMIT $3`

	err := r.db.SelectContext(ctx, &items, q, ownerID, pattern, searchLimit)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// FindByBarcode returns the exact catalog match, or nil when there is none.
func (r *foodItemRepository) FindByBarcode(ctx context.Context, ownerID, barcode string) (*model.FoodItem, error) {
	item := &model.FoodItem{}
	query := `SELECT * FROM food_items WHERE user_id = $1 AND barcode = $2 ORDER BY use_count DESC LIMIT 1`

	err := r.db.GetContext(ctx, item, query, ownerID, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return item, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
