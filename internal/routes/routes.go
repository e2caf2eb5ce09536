package routes

import (
	"net/http"
	"time"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/cherryfit/cherryfit/internal/handler"
	"github.com/cherryfit/cherryfit/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	system := handler.NewSystemHandler(app.DB)
	food := handler.NewFoodHandler(app.RelayService)
	health := handler.NewHealthHandler(app.RelayService)
	barcode := handler.NewBarcodeHandler(app.ProductLookupService)
	photo := handler.NewPhotoHandler(app.PhotoService)
	fitbit := handler.NewFitbitHandler(app.FitbitService, app.Cfg.FitbitAppRedirect)

	mux := http.NewServeMux()

	// ============================================================================
	// SYSTEM
	// ============================================================================

	mux.HandleFunc("GET /healthz", system.Healthz)

	// ============================================================================
	// SYNC
	// ============================================================================

	mux.HandleFunc("POST /api/food/sync", food.Sync)
	mux.HandleFunc("GET /api/food/daily", food.Daily)
	mux.HandleFunc("GET /api/food/trends", food.Trends)

	mux.HandleFunc("POST /api/health/sync", health.Sync)
	mux.HandleFunc("GET /api/health/metrics", health.Metrics)

	// ============================================================================
	// LOOKUPS & UPLOADS
	// ============================================================================

	mux.HandleFunc("GET /api/barcode/{code}", barcode.Lookup)
	mux.HandleFunc("POST /api/photos", photo.Upload)

	// ============================================================================
	// FITBIT
	// ============================================================================

	// OAuth steps are rate limited per IP
	rateLimit := middleware.RateLimit(10, 15*time.Minute)

	mux.HandleFunc("GET /api/fitbit/status", fitbit.Status)
	mux.Handle("GET /api/fitbit/auth", rateLimit(http.HandlerFunc(fitbit.Auth)))
	mux.Handle("GET /api/fitbit/callback", rateLimit(http.HandlerFunc(fitbit.Callback)))
	mux.HandleFunc("DELETE /api/fitbit", fitbit.Disconnect)
	mux.HandleFunc("POST /api/fitbit/push", fitbit.Push)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.CORS(app.Cfg.CORSOrigins),
		middleware.Owner(app.Cfg.DefaultOwnerID),
	)
}
