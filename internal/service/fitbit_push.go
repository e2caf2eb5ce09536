package service

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/cherryfit/cherryfit/internal/repository"
)

type FitbitPushResult struct {
	Pushed  []string
	Total   int
	Skipped bool
}

// FitbitPushService forwards relay-acknowledged food logs to Fitbit through
// the relay and flags the ones Fitbit accepted. It runs independently of
// SyncService and only touches the pushed flag.
type FitbitPushService struct {
	foodLogs repository.FoodLogRepository
	relay    RelayTransport
	running  atomic.Bool
}

func NewFitbitPushService(foodLogs repository.FoodLogRepository, relay RelayTransport) *FitbitPushService {
	return &FitbitPushService{foodLogs: foodLogs, relay: relay}
}

// Run is one scheduled push cycle. Errors are logged, not returned.
func (s *FitbitPushService) Run(ctx context.Context, ownerID string) FitbitPushResult {
	result, err := s.Push(ctx, ownerID, nil)
	if err != nil {
		slog.Warn("fitbit push failed, will retry", "error", err)
	}
	return result
}

// Push selects not-yet-pushed, already-synced logs (restricted to ids when
// given) and marks pushed exactly the ids the relay reports as delivered.
func (s *FitbitPushService) Push(ctx context.Context, ownerID string, ids []string) (FitbitPushResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Debug("fitbit push already in flight, skipping")
		return FitbitPushResult{Skipped: true}, nil
	}
	defer s.running.Store(false)

	logs, err := s.foodLogs.Unpushed(ctx, ownerID, ids, repository.DefaultUnpushedLimit)
	if err != nil {
		return FitbitPushResult{}, err
	}
	if len(logs) == 0 {
		return FitbitPushResult{}, nil
	}

	selected := make(map[string]bool, len(logs))
	logIDs := make([]string, 0, len(logs))
	for _, log := range logs {
		selected[log.ID] = true
		logIDs = append(logIDs, log.ID)
	}

	resp, err := s.relay.PushToFitbit(ctx, ownerID, logIDs)
	if err != nil {
		return FitbitPushResult{Total: len(logIDs)}, err
	}

	pushed := make([]string, 0, len(resp.Pushed))
	for _, id := range resp.Pushed {
		if selected[id] {
			pushed = append(pushed, id)
			delete(selected, id)
		}
	}

	if err := s.foodLogs.MarkPushed(ctx, ownerID, pushed); err != nil {
		return FitbitPushResult{Total: len(logIDs)}, err
	}

	if len(pushed) > 0 {
		slog.Info("pushed food logs to fitbit", "pushed", len(pushed), "total", len(logIDs))
	}

	return FitbitPushResult{Pushed: pushed, Total: len(logIDs)}, nil
}
