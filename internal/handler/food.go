package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cherryfit/cherryfit/internal/ctxkeys"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/service"
)

type FoodHandler struct {
	relayService *service.RelayService
}

func NewFoodHandler(relayService *service.RelayService) *FoodHandler {
	return &FoodHandler{
		relayService: relayService,
	}
}

// Sync upserts a batch of food logs. Rejected records are counted, never fatal.
func (h *FoodHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	var req model.RawFoodLogSyncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.relayService.SyncRawFoodLogs(r.Context(), ownerID, req.Logs)
	slog.Info("food logs synced", "owner_id", ownerID, "synced", len(resp.Synced), "failed", resp.Failed)

	writeJSON(w, http.StatusOK, resp)
}

func (h *FoodHandler) Daily(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	date := r.URL.Query().Get("date")

	logs, err := h.relayService.DailyFoodLogs(r.Context(), ownerID, date)
	if err != nil {
		writeServiceError(w, err, "failed to load food logs", "owner_id", ownerID, "date", date)
		return
	}

	if logs == nil {
		logs = []*model.FoodLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *FoodHandler) Trends(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	trends, err := h.relayService.Trends(r.Context(), ownerID, start, end)
	if err != nil {
		writeServiceError(w, err, "failed to load trends", "owner_id", ownerID, "start", start, "end", end)
		return
	}

	if trends == nil {
		trends = []model.DailyNutrition{}
	}
	writeJSON(w, http.StatusOK, trends)
}

// writeServiceError maps query validation errors to 400 and anything else to 500.
func writeServiceError(w http.ResponseWriter, err error, msg string, args ...any) {
	if errors.Is(err, service.ErrInvalidDate) || errors.Is(err, service.ErrInvalidMetricType) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error(msg, append([]any{"error", err}, args...)...)
	writeError(w, http.StatusInternalServerError, msg)
}
