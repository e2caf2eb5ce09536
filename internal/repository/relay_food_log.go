package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/jmoiron/sqlx"
)

// ErrOwnerMismatch reports an upsert on an id that belongs to another owner.
var ErrOwnerMismatch = errors.New("record belongs to another owner")

// RelayFoodLogRepository is the relay's replica of food logs. Rows are keyed by
// the id the device generated.
type RelayFoodLogRepository interface {
	Upsert(ctx context.Context, ownerID string, log *model.FoodLog) error
	ByDate(ctx context.Context, ownerID, date string) ([]*model.FoodLog, error)
	ByIDs(ctx context.Context, ownerID string, ids []string) ([]*model.FoodLog, error)
	DailyTotals(ctx context.Context, ownerID, startDate, endDate string) ([]model.DailyNutrition, error)
}

type relayFoodLogRepository struct {
	db *sqlx.DB
}

func NewRelayFoodLogRepository(db *sqlx.DB) RelayFoodLogRepository {
	return &relayFoodLogRepository{db: db}
}

// relayFoodLogColumns omits the device-only pushed and synced flags.
const relayFoodLogColumns = `id, user_id, food_name, meal_type, source, serving_size, servings,
	calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg,
	photo_url, ai_confidence, logged_at, created_at, updated_at`

// Upsert inserts the log or overwrites every mutable field of an existing row
// with the same id. id and created_at of the first insert are preserved.
func (r *relayFoodLogRepository) Upsert(ctx context.Context, ownerID string, log *model.FoodLog) error {
	query := `INSERT INTO food_logs (` + relayFoodLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT(id) DO UPDATE SET
			food_name = excluded.food_name,
			meal_type = excluded.meal_type,
			source = excluded.source,
			serving_size = excluded.serving_size,
			servings = excluded.servings,
			calories = excluded.calories,
			protein_g = excluded.protein_g,
			carbs_g = excluded.carbs_g,
			fat_g = excluded.fat_g,
			fiber_g = excluded.fiber_g,
			sugar_g = excluded.sugar_g,
			sodium_mg = excluded.sodium_mg,
			photo_url = excluded.photo_url,
			ai_confidence = excluded.ai_confidence,
			logged_at = excluded.logged_at,
			updated_at = excluded.updated_at
		WHERE food_logs.user_id = excluded.user_id`

	result, err := r.db.ExecContext(ctx, query,
		log.ID,
		ownerID,
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
		log.LoggedAt,
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert food log %s: %w", log.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("upsert food log %s: %w", log.ID, ErrOwnerMismatch)
	}

	return nil
}

func (r *relayFoodLogRepository) ByDate(ctx context.Context, ownerID, date string) ([]*model.FoodLog, error) {
	start, end, err := model.DayBounds(date)
	if err != nil {
		return nil, err
	}

	logs := []*model.FoodLog{}
	query := `SELECT ` + relayFoodLogColumns + ` FROM food_logs
	          WHERE user_id = $1 AND logged_at >= $2 AND logged_at <= $3
	          ORDER BY logged_at ASC`

	err = r.db.SelectContext(ctx, &logs, query, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *relayFoodLogRepository) ByIDs(ctx context.Context, ownerID string, ids []string) ([]*model.FoodLog, error) {
	logs := []*model.FoodLog{}
	if len(ids) == 0 {
		return logs, nil
	}

	query, args, err := sqlx.In(`SELECT `+relayFoodLogColumns+` FROM food_logs
		WHERE user_id = ? AND id IN (?)
		ORDER BY logged_at ASC`, ownerID, ids)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &logs, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// DailyTotals groups by the calendar date of logged_at. The stored timestamp is
// fixed-width UTC text, so its first ten characters are the date on every
// supported driver.
func (r *relayFoodLogRepository) DailyTotals(ctx context.Context, ownerID, startDate, endDate string) ([]model.DailyNutrition, error) {
	start, end, err := model.RangeBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	rows := []model.DailyNutritionRow{}
	query := `SELECT SUBSTR(logged_at, 1, 10) AS date,
	                 COALESCE(SUM(calories * servings), 0) AS calories,
	                 COALESCE(SUM(protein_g * servings), 0) AS protein_g,
	                 COALESCE(SUM(carbs_g * servings), 0) AS carbs_g,
	                 COALESCE(SUM(fat_g * servings), 0) AS fat_g
	          FROM food_logs
	          WHERE user_id = $1 AND logged_at >= $2 AND logged_at <= $3
	          GROUP BY SUBSTR(logged_at, 1, 10)
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
