package repository

import (
	"context"
	"fmt"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/jmoiron/sqlx"
)

type RelayHealthMetricRepository interface {
	Upsert(ctx context.Context, ownerID string, metric *model.HealthMetric) error
	ByRange(ctx context.Context, ownerID string, metricType model.MetricType, startDate, endDate string) ([]*model.HealthMetric, error)
}

type relayHealthMetricRepository struct {
	db *sqlx.DB
}

func NewRelayHealthMetricRepository(db *sqlx.DB) RelayHealthMetricRepository {
	return &relayHealthMetricRepository{db: db}
}

// Upsert stores a reading keyed by its client id. Readings are immutable on
// the device, so created_at doubles as the row version and a replay leaves
// the row untouched.
func (r *relayHealthMetricRepository) Upsert(ctx context.Context, ownerID string, metric *model.HealthMetric) error {
	query := `INSERT INTO health_metrics (id, user_id, metric_type, value, recorded_at, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(id) DO UPDATE SET
			metric_type = excluded.metric_type,
			value = excluded.value,
			recorded_at = excluded.recorded_at,
			source = excluded.source,
			updated_at = excluded.updated_at
		WHERE health_metrics.user_id = excluded.user_id`

	result, err := r.db.ExecContext(ctx, query,
		metric.ID,
		ownerID,
		metric.MetricType,
		metric.Value,
		metric.RecordedAt,
		metric.Source,
		metric.CreatedAt,
		metric.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert health metric %s: %w", metric.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("upsert health metric %s: %w", metric.ID, ErrOwnerMismatch)
	}

	return nil
}

func (r *relayHealthMetricRepository) ByRange(ctx context.Context, ownerID string, metricType model.MetricType, startDate, endDate string) ([]*model.HealthMetric, error) {
	start, end, err := model.RangeBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	metrics := []*model.HealthMetric{}
	query := `SELECT id, user_id, metric_type, value, recorded_at, source, created_at
	          FROM health_metrics
	          WHERE user_id = $1 AND metric_type = $2 AND recorded_at >= $3 AND recorded_at <= $4
	          ORDER BY recorded_at ASC`

	err = r.db.SelectContext(ctx, &metrics, query, ownerID, metricType, start, end)
	if err != nil {
		return nil, err
	}

	return metrics, nil
}
