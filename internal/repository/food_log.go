package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DefaultUnsyncedLimit bounds one drain of dirty records.
const DefaultUnsyncedLimit = 100

// DefaultUnpushedLimit bounds one third-party push cycle.
const DefaultUnpushedLimit = 50

var (
	ErrFoodLogNotFound = errors.New("food log not found")
)

// FoodLogRepository is the device-side journal of food logs. Every mutation
// marks the row dirty so the sync engine picks it up.
type FoodLogRepository interface {
	Create(ctx context.Context, ownerID string, input model.FoodLogInput) (*model.FoodLog, error)
	ByID(ctx context.Context, ownerID, id string) (*model.FoodLog, error)
	ByDate(ctx context.Context, ownerID, date string) ([]*model.FoodLog, error)
	ByRange(ctx context.Context, ownerID string, from, to model.Time) ([]*model.FoodLog, error)
	Update(ctx context.Context, ownerID, id string, patch model.FoodLogPatch) error
	Delete(ctx context.Context, ownerID, id string) error
	Unsynced(ctx context.Context, ownerID string, limit int) ([]*model.FoodLog, error)
	MarkSynced(ctx context.Context, ownerID string, versions map[string]model.Time) (int, error)
	Unpushed(ctx context.Context, ownerID string, ids []string, limit int) ([]*model.FoodLog, error)
	MarkPushed(ctx context.Context, ownerID string, ids []string) error
	DailyTotals(ctx context.Context, ownerID, startDate, endDate string) ([]model.DailyNutrition, error)
}

type foodLogRepository struct {
	db *sqlx.DB
}

func NewFoodLogRepository(db *sqlx.DB) FoodLogRepository {
	return &foodLogRepository{db: db}
}

func (r *foodLogRepository) Create(ctx context.Context, ownerID string, input model.FoodLogInput) (*model.FoodLog, error) {
	now := model.Now()
	log := &model.FoodLog{
		ID:           uuid.New().String(),
		UserID:       ownerID,
		FoodName:     strings.TrimSpace(input.FoodName),
		MealType:     input.MealType,
		Source:       input.Source,
		ServingSize:  input.ServingSize,
		Servings:     input.Servings,
		Macros:       input.Macros,
		PhotoURL:     input.PhotoURL,
		AIConfidence: input.AIConfidence,
		LoggedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.LoggedAt != nil {
		log.LoggedAt = *input.LoggedAt
	}
	if log.ServingSize == "" {
		log.ServingSize = model.DefaultServingSize
	}
	if log.Servings == 0 {
		log.Servings = 1
	}
	if err := log.Validate(); err != nil {
		return nil, err
	}

	query := `INSERT INTO food_logs (
			id, user_id, food_name, meal_type, source, serving_size, servings,
			calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg,
			photo_url, ai_confidence, pushed, synced, logged_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.FoodName,
		log.MealType,
		log.Source,
		log.ServingSize,
		log.Servings,
		log.Calories,
		log.ProteinG,
		log.CarbsG,
		log.FatG,
		log.FiberG,
		log.SugarG,
		log.SodiumMg,
		log.PhotoURL,
		log.AIConfidence,
		false,
		false,
		log.LoggedAt,
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert food log: %w", err)
	}

	return log, nil
}

func (r *foodLogRepository) ByID(ctx context.Context, ownerID, id string) (*model.FoodLog, error) {
	log := &model.FoodLog{}
	query := `SELECT * FROM food_logs WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, log, query, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFoodLogNotFound
	}
	if err != nil {
		return nil, err
	}

	return log, nil
}

func (r *foodLogRepository) ByDate(ctx context.Context, ownerID, date string) ([]*model.FoodLog, error) {
	start, end, err := model.DayBounds(date)
	if err != nil {
		return nil, err
	}
	return r.ByRange(ctx, ownerID, start, end)
}

func (r *foodLogRepository) ByRange(ctx context.Context, ownerID string, from, to model.Time) ([]*model.FoodLog, error) {
	logs := []*model.FoodLog{}
	query := `SELECT * FROM food_logs
	          WHERE user_id = $1 AND logged_at >= $2 AND logged_at <= $3
	          ORDER BY logged_at ASC`

	err := r.db.SelectContext(ctx, &logs, query, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// Update applies the non-nil fields of patch. The row is always re-stamped and
// marked unsynced; pushed is never touched. A missing id is not an error.
func (r *foodLogRepository) Update(ctx context.Context, ownerID, id string, patch model.FoodLogPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FoodName != nil {
		set("food_name", strings.TrimSpace(*patch.FoodName))
	}
	if patch.MealType != nil {
		set("meal_type", *patch.MealType)
	}
	if patch.Source != nil {
		set("source", *patch.Source)
	}
	if patch.ServingSize != nil {
		set("serving_size", *patch.ServingSize)
	}
	if patch.Servings != nil {
		set("servings", *patch.Servings)
	}
	if patch.Calories != nil {
		set("calories", *patch.Calories)
	}
	if patch.ProteinG != nil {
		set("protein_g", *patch.ProteinG)
	}
	if patch.CarbsG != nil {
		set("carbs_g", *patch.CarbsG)
	}
	if patch.FatG != nil {
		set("fat_g", *patch.FatG)
	}
	if patch.FiberG != nil {
		set("fiber_g", *patch.FiberG)
	}
	if patch.SugarG != nil {
		set("sugar_g", *patch.SugarG)
	}
	if patch.SodiumMg != nil {
		set("sodium_mg", *patch.SodiumMg)
	}
	if patch.PhotoURL != nil {
		set("photo_url", *patch.PhotoURL)
	}
	if patch.AIConfidence != nil {
		set("ai_confidence", *patch.AIConfidence)
	}
	if patch.LoggedAt != nil {
		set("logged_at", *patch.LoggedAt)
	}
	set("updated_at", r.nextUpdatedAt(ctx, ownerID, id))
	set("synced", false)

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE food_logs SET %s WHERE id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update food log: %w", err)
	}

	return nil
}

// nextUpdatedAt returns a stamp strictly after the row's current updated_at so
// that a mutation inside the same millisecond still moves the version forward.
func (r *foodLogRepository) nextUpdatedAt(ctx context.Context, ownerID, id string) model.Time {
	now := model.Now()
	var current model.Time
	err := r.db.GetContext(ctx, &current, `SELECT updated_at FROM food_logs WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err == nil && !now.After(current.Time) {
		return model.NewTime(current.Add(time.Millisecond))
	}
	return now
}

func (r *foodLogRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM food_logs WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrFoodLogNotFound
	}

	return nil
}

func (r *foodLogRepository) Unsynced(ctx context.Context, ownerID string, limit int) ([]*model.FoodLog, error) {
	if limit <= 0 {
		limit = DefaultUnsyncedLimit
	}

	logs := []*model.FoodLog{}
	query := `SELECT * FROM food_logs
	          WHERE user_id = $1 AND synced = $2
	          ORDER BY created_at ASC, id ASC
	          LIMIT $3`

	err := r.db.SelectContext(ctx, &logs, query, ownerID, false, limit)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// MarkSynced flags acknowledged rows clean. Each id carries the updated_at that
// was sent; a row mutated after the batch was drained keeps its dirty flag.
// It returns the number of rows actually marked.
func (r *foodLogRepository) MarkSynced(ctx context.Context, ownerID string, versions map[string]model.Time) (int, error) {
	if len(versions) == 0 {
		return 0, nil
	}

	query := `UPDATE food_logs SET synced = $1 WHERE id = $2 AND user_id = $3 AND updated_at = $4`
	marked := 0
	for id, updatedAt := range versions {
		result, err := r.db.ExecContext(ctx, query, true, id, ownerID, updatedAt)
		if err != nil {
			return marked, fmt.Errorf("mark food log %s synced: %w", id, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return marked, err
		}
		marked += int(rows)
	}

	return marked, nil
}

// Unpushed selects logs eligible for third-party push: acknowledged by the
// relay and not pushed yet. A non-empty ids restricts the selection.
func (r *foodLogRepository) Unpushed(ctx context.Context, ownerID string, ids []string, limit int) ([]*model.FoodLog, error) {
	if limit <= 0 {
		limit = DefaultUnpushedLimit
	}

	query := `SELECT * FROM food_logs
	          WHERE user_id = ? AND pushed = ? AND synced = ?`
	args := []any{ownerID, false, true}
	if len(ids) > 0 {
		query += ` AND id IN (?)`
		args = append(args, ids)
	}
	query += ` ORDER BY logged_at ASC LIMIT ?`
	args = append(args, limit)

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	logs := []*model.FoodLog{}
	err = r.db.SelectContext(ctx, &logs, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *foodLogRepository) MarkPushed(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`UPDATE food_logs SET pushed = ? WHERE user_id = ? AND id IN (?)`, true, ownerID, ids)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}

func (r *foodLogRepository) DailyTotals(ctx context.Context, ownerID, startDate, endDate string) ([]model.DailyNutrition, error) {
	start, end, err := model.RangeBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	rows := []model.DailyNutritionRow{}
	query := `SELECT DATE(logged_at) AS date,
	                 COALESCE(SUM(calories * servings), 0) AS calories,
	                 COALESCE(SUM(protein_g * servings), 0) AS protein_g,
	                 COALESCE(SUM(carbs_g * servings), 0) AS carbs_g,
	                 COALESCE(SUM(fat_g * servings), 0) AS fat_g
	          FROM food_logs
	          WHERE user_id = $1 AND logged_at >= $2 AND logged_at <= $3
	          GROUP BY DATE(logged_at)
	          ORDER BY date ASC`

	err = r.db.SelectContext(ctx, &rows, query, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	totals := make([]model.DailyNutrition, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, row.Rounded())
	}

	return totals, nil
}
