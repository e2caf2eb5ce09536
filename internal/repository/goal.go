package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GoalRepository holds exactly one goal row per owner.
type GoalRepository interface {
	Current(ctx context.Context, ownerID string) (*model.DailyGoal, error)
	Update(ctx context.Context, ownerID string, patch model.GoalPatch) (*model.DailyGoal, error)
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// Current returns the owner's goal, creating it with defaults on first read.
func (r *goalRepository) Current(ctx context.Context, ownerID string) (*model.DailyGoal, error) {
	goal, err := r.byOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if goal != nil {
		return goal, nil
	}

	return r.upsert(ctx, ownerID, model.DefaultGoalMacros())
}

// Update patches the goal in place. Fields absent from patch keep their
// current (or default) value.
func (r *goalRepository) Update(ctx context.Context, ownerID string, patch model.GoalPatch) (*model.DailyGoal, error) {
	current, err := r.Current(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	macros := patch.Apply(current.Macros)
	if err := macros.Validate(); err != nil {
		return nil, err
	}

	return r.upsert(ctx, ownerID, macros)
}

func (r *goalRepository) byOwner(ctx context.Context, ownerID string) (*model.DailyGoal, error) {
	goal := &model.DailyGoal{}
	err := r.db.GetContext(ctx, goal, `SELECT * FROM daily_goals WHERE user_id = $1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (r *goalRepository) upsert(ctx context.Context, ownerID string, m model.Macros) (*model.DailyGoal, error) {
	now := model.Now()
	query := `INSERT INTO daily_goals (
			id, user_id, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT(user_id) DO UPDATE SET
			calories = excluded.calories,
			protein_g = excluded.protein_g,
			carbs_g = excluded.carbs_g,
			fat_g = excluded.fat_g,
			fiber_g = excluded.fiber_g,
			sugar_g = excluded.sugar_g,
			sodium_mg = excluded.sodium_mg,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		ownerID,
		m.Calories,
		m.ProteinG,
		m.CarbsG,
		m.FatG,
		m.FiberG,
		m.SugarG,
		m.SodiumMg,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert daily goal: %w", err)
	}

	goal, err := r.byOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, fmt.Errorf("daily goal for %s missing after upsert", ownerID)
	}
	return goal, nil
}
