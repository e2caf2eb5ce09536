package handler

import (
	"log/slog"
	"net/http"

	"github.com/cherryfit/cherryfit/internal/ctxkeys"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/service"
)

type HealthHandler struct {
	relayService *service.RelayService
}

func NewHealthHandler(relayService *service.RelayService) *HealthHandler {
	return &HealthHandler{
		relayService: relayService,
	}
}

func (h *HealthHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	var req model.RawHealthMetricSyncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.relayService.SyncRawHealthMetrics(r.Context(), ownerID, req.Metrics)
	slog.Info("health metrics synced", "owner_id", ownerID, "synced", len(resp.Synced), "failed", resp.Failed)

	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	q := r.URL.Query()
	metricType := model.MetricType(q.Get("type"))

	metrics, err := h.relayService.HealthMetrics(r.Context(), ownerID, metricType, q.Get("start"), q.Get("end"))
	if err != nil {
		writeServiceError(w, err, "failed to load health metrics", "owner_id", ownerID, "type", metricType)
		return
	}

	if metrics == nil {
		metrics = []*model.HealthMetric{}
	}
	writeJSON(w, http.StatusOK, metrics)
}
