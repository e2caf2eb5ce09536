package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/repository"
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidMetricType = errors.New("invalid metric type")
)

// RelayService is the server side of record sync. Each record of a batch is
// validated and upserted on its own; one bad record never aborts the batch.
type RelayService struct {
	foodLogs      repository.RelayFoodLogRepository
	healthMetrics repository.RelayHealthMetricRepository
}

func NewRelayService(foodLogs repository.RelayFoodLogRepository, healthMetrics repository.RelayHealthMetricRepository) *RelayService {
	return &RelayService{
		foodLogs:      foodLogs,
		healthMetrics: healthMetrics,
	}
}

func (s *RelayService) SyncFoodLogs(ctx context.Context, ownerID string, logs []*model.FoodLog) *model.SyncResponse {
	resp := &model.SyncResponse{Synced: make([]string, 0, len(logs))}
	for _, log := range logs {
		s.syncFoodLog(ctx, ownerID, log, resp)
	}
	return resp
}

// SyncRawFoodLogs decodes each record of a batch on its own, so a record with
// a mistyped field counts as one failure instead of rejecting the batch.
func (s *RelayService) SyncRawFoodLogs(ctx context.Context, ownerID string, records []json.RawMessage) *model.SyncResponse {
	resp := &model.SyncResponse{Synced: make([]string, 0, len(records))}
	for i, raw := range records {
		var log *model.FoodLog
		if err := json.Unmarshal(raw, &log); err != nil {
			slog.Warn("undecodable food log", "index", i, "error", err)
			resp.Failed++
			continue
		}
		s.syncFoodLog(ctx, ownerID, log, resp)
	}
	return resp
}

func (s *RelayService) syncFoodLog(ctx context.Context, ownerID string, log *model.FoodLog, resp *model.SyncResponse) {
	if log == nil {
		resp.Failed++
		return
	}
	if err := log.Validate(); err != nil {
		slog.Warn("rejected food log", "id", log.ID, "error", err)
		resp.Failed++
		return
	}
	if err := s.foodLogs.Upsert(ctx, ownerID, log); err != nil {
		slog.Error("failed to upsert food log", "id", log.ID, "error", err)
		resp.Failed++
		return
	}
	resp.Synced = append(resp.Synced, log.ID)
}

func (s *RelayService) SyncHealthMetrics(ctx context.Context, ownerID string, metrics []*model.HealthMetric) *model.SyncResponse {
	resp := &model.SyncResponse{Synced: make([]string, 0, len(metrics))}
	for _, metric := range metrics {
		s.syncHealthMetric(ctx, ownerID, metric, resp)
	}
	return resp
}

// SyncRawHealthMetrics is SyncRawFoodLogs for health readings.
func (s *RelayService) SyncRawHealthMetrics(ctx context.Context, ownerID string, records []json.RawMessage) *model.SyncResponse {
	resp := &model.SyncResponse{Synced: make([]string, 0, len(records))}
	for i, raw := range records {
		var metric *model.HealthMetric
		if err := json.Unmarshal(raw, &metric); err != nil {
			slog.Warn("undecodable health metric", "index", i, "error", err)
			resp.Failed++
			continue
		}
		s.syncHealthMetric(ctx, ownerID, metric, resp)
	}
	return resp
}

func (s *RelayService) syncHealthMetric(ctx context.Context, ownerID string, metric *model.HealthMetric, resp *model.SyncResponse) {
	if metric == nil {
		resp.Failed++
		return
	}
	if metric.Source == "" {
		metric.Source = model.DefaultMetricSource
	}
	if err := metric.Validate(); err != nil {
		slog.Warn("rejected health metric", "id", metric.ID, "error", err)
		resp.Failed++
		return
	}
	if err := s.healthMetrics.Upsert(ctx, ownerID, metric); err != nil {
		slog.Error("failed to upsert health metric", "id", metric.ID, "error", err)
		resp.Failed++
		return
	}
	resp.Synced = append(resp.Synced, metric.ID)
}

// DailyFoodLogs returns the raw logs of one UTC calendar day.
func (s *RelayService) DailyFoodLogs(ctx context.Context, ownerID, date string) ([]*model.FoodLog, error) {
	if _, _, err := model.DayBounds(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return s.foodLogs.ByDate(ctx, ownerID, date)
}

// Trends returns per-day serving-adjusted totals. Days without logs are absent.
func (s *RelayService) Trends(ctx context.Context, ownerID, startDate, endDate string) ([]model.DailyNutrition, error) {
	if _, _, err := model.RangeBounds(startDate, endDate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return s.foodLogs.DailyTotals(ctx, ownerID, startDate, endDate)
}

func (s *RelayService) HealthMetrics(ctx context.Context, ownerID string, metricType model.MetricType, startDate, endDate string) ([]*model.HealthMetric, error) {
	if !metricType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMetricType, metricType)
	}
	if _, _, err := model.RangeBounds(startDate, endDate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return s.healthMetrics.ByRange(ctx, ownerID, metricType, startDate, endDate)
}
