package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cherryfit/cherryfit/internal/client"
	"github.com/cherryfit/cherryfit/internal/config"
	"github.com/cherryfit/cherryfit/internal/db"
	"github.com/cherryfit/cherryfit/internal/repository"
	"github.com/cherryfit/cherryfit/internal/service"
	"github.com/jmoiron/sqlx"
)

// Agent holds the device-side dependencies: the local store, its
// repositories and the two outbound engines.
type Agent struct {
	Cfg *config.AgentConfig
	DB  *sqlx.DB

	FoodLogs      repository.FoodLogRepository
	FoodItems     repository.FoodItemRepository
	Goals         repository.GoalRepository
	HealthMetrics repository.HealthMetricRepository

	Relay             *client.Relay
	SyncService       *service.SyncService
	FitbitPushService *service.FitbitPushService
	BarcodeService    *service.BarcodeService
	SummaryService    *service.SummaryService
}

func NewAgent(ctx context.Context, cfg *config.AgentConfig) (*Agent, error) {
	database, err := db.Init(db.DriverSQLite, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	err = db.RunMigrations(ctx, database.DB, db.DriverSQLite, db.SchemaLocal)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	foodLogs := repository.NewFoodLogRepository(database)
	foodItems := repository.NewFoodItemRepository(database)
	goals := repository.NewGoalRepository(database)
	healthMetrics := repository.NewHealthMetricRepository(database)

	relay := client.NewRelay(cfg.RelayURL, cfg.RequestTimeout)

	return &Agent{
		Cfg:               cfg,
		DB:                database,
		FoodLogs:          foodLogs,
		FoodItems:         foodItems,
		Goals:             goals,
		HealthMetrics:     healthMetrics,
		Relay:             relay,
		SyncService:       service.NewSyncService(foodLogs, healthMetrics, relay, cfg.SyncBatchSize),
		FitbitPushService: service.NewFitbitPushService(foodLogs, relay),
		BarcodeService:    service.NewBarcodeService(foodItems, relay),
		SummaryService:    service.NewSummaryService(foodLogs, goals, healthMetrics),
	}, nil
}

// Run starts the sync engine and, when enabled, the Fitbit push engine on
// their own timers. Each value received on foreground triggers both at once.
// It blocks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context, foreground <-chan struct{}) {
	ownerID := a.Cfg.OwnerID

	schedulers := []*service.Scheduler{
		service.NewScheduler("sync", a.Cfg.SyncInterval, func(ctx context.Context) {
			a.SyncService.Run(ctx, ownerID)
		}),
	}
	if a.Cfg.FitbitPushEnabled {
		schedulers = append(schedulers, service.NewScheduler("fitbit-push", a.Cfg.FitbitPushInterval, func(ctx context.Context) {
			a.FitbitPushService.Run(ctx, ownerID)
		}))
	}

	var wg sync.WaitGroup
	for _, s := range schedulers {
		wg.Go(func() { s.Run(ctx) })
	}

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-foreground:
			slog.Debug("foreground trigger")
			for _, s := range schedulers {
				s.Trigger()
			}
		}
	}
}

func (a *Agent) Close() error {
	return db.Close(a.DB)
}
