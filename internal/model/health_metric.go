package model

import "fmt"

type MetricType string

const (
	MetricSteps            MetricType = "steps"
	MetricSleepMinutes     MetricType = "sleep_minutes"
	MetricHeartRateResting MetricType = "heart_rate_resting"
	MetricHeartRateAvg     MetricType = "heart_rate_avg"
	MetricActiveMinutes    MetricType = "active_minutes"
	MetricCaloriesBurned   MetricType = "calories_burned"
	MetricWeightKg         MetricType = "weight_kg"
	MetricBodyFatPercent   MetricType = "body_fat_percent"
)

const DefaultMetricSource = "health_connect"

func (m MetricType) Valid() bool {
	switch m {
	case MetricSteps, MetricSleepMinutes, MetricHeartRateResting, MetricHeartRateAvg,
		MetricActiveMinutes, MetricCaloriesBurned, MetricWeightKg, MetricBodyFatPercent:
		return true
	}
	return false
}

type HealthMetric struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"-"`
	MetricType MetricType `db:"metric_type" json:"metric_type"`
	Value      float64    `db:"value" json:"value"`
	RecordedAt Time       `db:"recorded_at" json:"recorded_at"`
	Source     string     `db:"source" json:"source"`
	Synced     bool       `db:"synced" json:"-"`
	CreatedAt  Time       `db:"created_at" json:"created_at"`
}

func (m *HealthMetric) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	}
	if !m.MetricType.Valid() {
		return fmt.Errorf("%w: unknown metric_type %q", ErrInvalidRecord, m.MetricType)
	}
	if m.Source == "" || len(m.Source) > 50 {
		return fmt.Errorf("%w: source must be 1-50 characters", ErrInvalidRecord)
	}
	if m.RecordedAt.IsZero() || m.CreatedAt.IsZero() {
		return fmt.Errorf("%w: recorded_at and created_at are required", ErrInvalidRecord)
	}
	return nil
}
