package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type HealthMetricRepository interface {
	Save(ctx context.Context, ownerID string, metricType model.MetricType, value float64, recordedAt model.Time, source string) (*model.HealthMetric, error)
	ByRange(ctx context.Context, ownerID string, metricType model.MetricType, startDate, endDate string) ([]*model.HealthMetric, error)
	Latest(ctx context.Context, ownerID string, metricType model.MetricType) (*model.HealthMetric, error)
	Today(ctx context.Context, ownerID string, metricType model.MetricType, now time.Time) (*model.HealthMetric, error)
	Unsynced(ctx context.Context, ownerID string, limit int) ([]*model.HealthMetric, error)
	MarkSynced(ctx context.Context, ownerID string, ids []string) error
}

type healthMetricRepository struct {
	db *sqlx.DB
}

func NewHealthMetricRepository(db *sqlx.DB) HealthMetricRepository {
	return &healthMetricRepository{db: db}
}

func (r *healthMetricRepository) Save(ctx context.Context, ownerID string, metricType model.MetricType, value float64, recordedAt model.Time, source string) (*model.HealthMetric, error) {
	if source == "" {
		source = model.DefaultMetricSource
	}

	metric := &model.HealthMetric{
		ID:         uuid.New().String(),
		UserID:     ownerID,
		MetricType: metricType,
		Value:      value,
		RecordedAt: recordedAt,
		Source:     source,
		CreatedAt:  model.Now(),
	}

	query := `INSERT INTO health_metrics (id, user_id, metric_type, value, recorded_at, source, synced, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		metric.ID,
		metric.UserID,
		metric.MetricType,
		metric.Value,
		metric.RecordedAt,
		metric.Source,
		false,
		metric.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert health metric: %w", err)
	}

	return metric, nil
}

func (r *healthMetricRepository) ByRange(ctx context.Context, ownerID string, metricType model.MetricType, startDate, endDate string) ([]*model.HealthMetric, error) {
	start, end, err := model.RangeBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	metrics := []*model.HealthMetric{}
	query := `SELECT * FROM health_metrics
	          WHERE user_id = $1 AND metric_type = $2 AND recorded_at >= $3 AND recorded_at <= $4
	          ORDER BY recorded_at ASC`

	err = r.db.SelectContext(ctx, &metrics, query, ownerID, metricType, start, end)
	if err != nil {
		return nil, err
	}

	return metrics, nil
}

// Latest returns the most recent reading of a kind, or nil when none exists.
func (r *healthMetricRepository) Latest(ctx context.Context, ownerID string, metricType model.MetricType) (*model.HealthMetric, error) {
	query := `SELECT * FROM health_metrics
	          WHERE user_id = $1 AND metric_type = $2
	          ORDER BY recorded_at DESC
	          LIMIT 1`
	return r.first(ctx, query, ownerID, metricType)
}

// Today returns the latest reading recorded on now's UTC calendar day.
func (r *healthMetricRepository) Today(ctx context.Context, ownerID string, metricType model.MetricType, now time.Time) (*model.HealthMetric, error) {
	start, end, err := model.DayBounds(now.UTC().Format(model.DateLayout))
	if err != nil {
		return nil, err
	}

	query := `SELECT * FROM health_metrics
	          WHERE user_id = $1 AND metric_type = $2 AND recorded_at >= $3 AND recorded_at <= $4
	          ORDER BY recorded_at DESC
	          LIMIT 1`
	return r.first(ctx, query, ownerID, metricType, start, end)
}

func (r *healthMetricRepository) first(ctx context.Context, query string, args ...any) (*model.HealthMetric, error) {
	metric := &model.HealthMetric{}
	err := r.db.GetContext(ctx, metric, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return metric, nil
}

func (r *healthMetricRepository) Unsynced(ctx context.Context, ownerID string, limit int) ([]*model.HealthMetric, error) {
	if limit <= 0 {
		limit = DefaultUnsyncedLimit
	}

	metrics := []*model.HealthMetric{}
	query := `SELECT * FROM health_metrics
	          WHERE user_id = $1 AND synced = $2
	          ORDER BY created_at ASC, id ASC
	          LIMIT $3`

	err := r.db.SelectContext(ctx, &metrics, query, ownerID, false, limit)
	if err != nil {
		return nil, err
	}

	return metrics, nil
}

// MarkSynced flags acknowledged readings clean. Readings are immutable once
// saved, so no version check is needed.
func (r *healthMetricRepository) MarkSynced(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`UPDATE health_metrics SET synced = ? WHERE user_id = ? AND id IN (?)`, true, ownerID, ids)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}
