package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cherryfit/cherryfit/internal/config"
	"github.com/cherryfit/cherryfit/internal/crypto"
	"github.com/cherryfit/cherryfit/internal/db"
	"github.com/cherryfit/cherryfit/internal/provider/fitbit"
	"github.com/cherryfit/cherryfit/internal/provider/openfoodfacts"
	"github.com/cherryfit/cherryfit/internal/repository"
	"github.com/cherryfit/cherryfit/internal/service"
	"github.com/cherryfit/cherryfit/internal/storage"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
)

// App holds the relay server's dependencies.
type App struct {
	Cfg                  *config.Config
	DB                   *sqlx.DB
	RelayService         *service.RelayService
	FitbitService        *service.FitbitService
	ProductLookupService *service.ProductLookupService
	PhotoService         *service.PhotoService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver, db.SchemaRelay)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	foodLogRepository := repository.NewRelayFoodLogRepository(database)
	healthMetricRepository := repository.NewRelayHealthMetricRepository(database)
	fitbitTokenRepository := repository.NewFitbitTokenRepository(database)

	// Storage (optional)
	photoStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Token cipher (optional; Fitbit stays unconfigured without it)
	var cipher *crypto.TokenCipher
	if cfg.TokenEncryptionKey != "" {
		cipher, err = crypto.NewTokenCipher(cfg.TokenEncryptionKey)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to initialize token cipher: %w", err)
		}
	}

	upstream := &http.Client{Timeout: service.UpstreamTimeout}

	var fitbitEndpoint oauth2.Endpoint
	if cfg.FitbitTokenURL != "" {
		fitbitEndpoint = fitbit.Endpoint
		fitbitEndpoint.TokenURL = cfg.FitbitTokenURL
	}

	// Services
	relayService := service.NewRelayService(foodLogRepository, healthMetricRepository)
	fitbitService := service.NewFitbitService(
		service.FitbitConfig{
			ClientID:     cfg.FitbitClientID,
			ClientSecret: cfg.FitbitClientSecret,
			RedirectURL:  cfg.FitbitRedirectURL,
			StateSecret:  cfg.FitbitStateSecret,
			Endpoint:     fitbitEndpoint,
			HTTPClient:   upstream,
		},
		fitbitTokenRepository,
		foodLogRepository,
		cipher,
		&fitbit.Client{BaseURL: cfg.FitbitAPIURL, HTTPClient: upstream},
	)
	productLookupService := service.NewProductLookupService(
		&openfoodfacts.Client{BaseURL: cfg.OpenFoodFactsURL, HTTPClient: upstream},
	)
	photoService := service.NewPhotoService(photoStorage)

	return &App{
		Cfg:                  cfg,
		DB:                   database,
		RelayService:         relayService,
		FitbitService:        fitbitService,
		ProductLookupService: productLookupService,
		PhotoService:         photoService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
