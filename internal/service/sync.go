package service

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/repository"
)

// RelayTransport is the device's view of the relay server.
type RelayTransport interface {
	SyncFoodLogs(ctx context.Context, ownerID string, logs []*model.FoodLog) (*model.SyncResponse, error)
	SyncHealthMetrics(ctx context.Context, ownerID string, metrics []*model.HealthMetric) (*model.SyncResponse, error)
	PushToFitbit(ctx context.Context, ownerID string, logIDs []string) (*model.FitbitPushResponse, error)
	LookupBarcode(ctx context.Context, ownerID, barcode string) (*model.BarcodeProduct, error)
}

// SyncResult reports one batch. SucceededIDs are the ids marked clean.
type SyncResult struct {
	SucceededIDs []string
	Failed       int
}

// SyncReport is the outcome of one sync cycle. Skipped is set when another
// cycle was already in flight and this one did nothing.
type SyncReport struct {
	FoodLogs      SyncResult
	HealthMetrics SyncResult
	Skipped       bool
}

// SyncService drains dirty local records to the relay. Failures never surface
// to callers; unacknowledged records stay dirty and are retried next cycle.
type SyncService struct {
	foodLogs      repository.FoodLogRepository
	healthMetrics repository.HealthMetricRepository
	relay         RelayTransport
	batchSize     int
	running       atomic.Bool
}

func NewSyncService(
	foodLogs repository.FoodLogRepository,
	healthMetrics repository.HealthMetricRepository,
	relay RelayTransport,
	batchSize int,
) *SyncService {
	if batchSize <= 0 {
		batchSize = repository.DefaultUnsyncedLimit
	}
	return &SyncService{
		foodLogs:      foodLogs,
		healthMetrics: healthMetrics,
		relay:         relay,
		batchSize:     batchSize,
	}
}

// Run performs one cycle for both record kinds. Overlapping calls coalesce:
// a call made while a cycle is in flight returns at once with Skipped set.
func (s *SyncService) Run(ctx context.Context, ownerID string) SyncReport {
	if !s.running.CompareAndSwap(false, true) {
		slog.Debug("sync already in flight, skipping")
		return SyncReport{Skipped: true}
	}
	defer s.running.Store(false)

	var report SyncReport

	logs, err := s.DrainUnsynced(ctx, ownerID, s.batchSize)
	if err != nil {
		slog.Error("failed to read unsynced food logs", "error", err)
	} else if len(logs) > 0 {
		report.FoodLogs = s.SyncBatch(ctx, ownerID, logs)
	}

	report.HealthMetrics = s.SyncHealthMetrics(ctx, ownerID)

	if len(report.FoodLogs.SucceededIDs) > 0 || report.FoodLogs.Failed > 0 ||
		len(report.HealthMetrics.SucceededIDs) > 0 || report.HealthMetrics.Failed > 0 {
		slog.Info("sync cycle finished",
			"food_logs_synced", len(report.FoodLogs.SucceededIDs),
			"food_logs_failed", report.FoodLogs.Failed,
			"health_metrics_synced", len(report.HealthMetrics.SucceededIDs),
			"health_metrics_failed", report.HealthMetrics.Failed,
		)
	}

	return report
}

// DrainUnsynced returns up to limit dirty food logs, oldest created first.
func (s *SyncService) DrainUnsynced(ctx context.Context, ownerID string, limit int) ([]*model.FoodLog, error) {
	return s.foodLogs.Unsynced(ctx, ownerID, limit)
}

// SyncBatch sends logs to the relay and marks the acknowledged ones clean.
// A transport failure fails the whole batch and leaves local state untouched.
func (s *SyncService) SyncBatch(ctx context.Context, ownerID string, logs []*model.FoodLog) SyncResult {
	if len(logs) == 0 {
		return SyncResult{}
	}

	resp, err := s.relay.SyncFoodLogs(ctx, ownerID, logs)
	if err != nil {
		slog.Warn("food log sync failed, will retry", "count", len(logs), "error", err)
		return SyncResult{Failed: len(logs)}
	}

	sent := make(map[string]model.Time, len(logs))
	for _, log := range logs {
		sent[log.ID] = log.UpdatedAt
	}

	// Only ids that were in this batch can be acknowledged, at the version sent.
	versions := make(map[string]model.Time, len(resp.Synced))
	acked := make([]string, 0, len(resp.Synced))
	for _, id := range resp.Synced {
		updatedAt, ok := sent[id]
		if !ok {
			continue
		}
		if _, dup := versions[id]; dup {
			continue
		}
		versions[id] = updatedAt
		acked = append(acked, id)
	}

	if _, err := s.foodLogs.MarkSynced(ctx, ownerID, versions); err != nil {
		slog.Error("failed to mark food logs synced", "error", err)
		return SyncResult{Failed: len(logs)}
	}

	return SyncResult{SucceededIDs: acked, Failed: len(logs) - len(acked)}
}

// SyncHealthMetrics is SyncBatch for health readings, draining one batch.
func (s *SyncService) SyncHealthMetrics(ctx context.Context, ownerID string) SyncResult {
	metrics, err := s.healthMetrics.Unsynced(ctx, ownerID, s.batchSize)
	if err != nil {
		slog.Error("failed to read unsynced health metrics", "error", err)
		return SyncResult{}
	}
	if len(metrics) == 0 {
		return SyncResult{}
	}

	resp, err := s.relay.SyncHealthMetrics(ctx, ownerID, metrics)
	if err != nil {
		slog.Warn("health metric sync failed, will retry", "count", len(metrics), "error", err)
		return SyncResult{Failed: len(metrics)}
	}

	sent := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		sent[m.ID] = true
	}
	acked := make([]string, 0, len(resp.Synced))
	for _, id := range resp.Synced {
		if sent[id] {
			acked = append(acked, id)
			delete(sent, id)
		}
	}

	if err := s.healthMetrics.MarkSynced(ctx, ownerID, acked); err != nil {
		slog.Error("failed to mark health metrics synced", "error", err)
		return SyncResult{Failed: len(metrics)}
	}

	return SyncResult{SucceededIDs: acked, Failed: len(metrics) - len(acked)}
}
