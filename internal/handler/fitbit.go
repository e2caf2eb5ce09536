package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/cherryfit/cherryfit/internal/ctxkeys"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/service"
)

type FitbitHandler struct {
	fitbitService *service.FitbitService
	appRedirect   string
}

// NewFitbitHandler wires the Fitbit connect flow. appRedirect is where the
// callback sends the user after a successful exchange.
func NewFitbitHandler(fitbitService *service.FitbitService, appRedirect string) *FitbitHandler {
	return &FitbitHandler{
		fitbitService: fitbitService,
		appRedirect:   appRedirect,
	}
}

func (h *FitbitHandler) Status(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	status, err := h.fitbitService.Status(r.Context(), ownerID)
	if err != nil {
		slog.Error("failed to load fitbit status", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusInternalServerError, "failed to load fitbit status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Auth starts the OAuth flow. Browsers are redirected to Fitbit; API clients
// asking for JSON get the URL back instead.
func (h *FitbitHandler) Auth(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	authURL, err := h.fitbitService.AuthURL(ownerID)
	if err != nil {
		h.writeFitbitError(w, err, ownerID)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, map[string]string{"url": authURL})
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *FitbitHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		slog.Warn("fitbit authorization denied", "error", errParam)
		h.redirectToApp(w, r, "denied")
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	ownerID, err := h.fitbitService.Connect(r.Context(), code, q.Get("state"))
	if err != nil {
		h.writeFitbitError(w, err, "")
		return
	}

	slog.Info("fitbit callback completed", "owner_id", ownerID)
	h.redirectToApp(w, r, model.FitbitStateConnected)
}

func (h *FitbitHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	if err := h.fitbitService.Disconnect(r.Context(), ownerID); err != nil {
		h.writeFitbitError(w, err, ownerID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Push logs the requested food logs to Fitbit and reports which succeeded.
func (h *FitbitHandler) Push(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	var req model.FitbitPushRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.fitbitService.Push(r.Context(), ownerID, req.LogIDs)
	if err != nil {
		h.writeFitbitError(w, err, ownerID)
		return
	}

	slog.Info("fitbit push completed", "owner_id", ownerID, "pushed", len(resp.Pushed), "total", resp.Total)
	writeJSON(w, http.StatusOK, resp)
}

func (h *FitbitHandler) redirectToApp(w http.ResponseWriter, r *http.Request, status string) {
	target, err := url.Parse(h.appRedirect)
	if err != nil || h.appRedirect == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
		return
	}
	query := target.Query()
	query.Set("status", status)
	target.RawQuery = query.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (h *FitbitHandler) writeFitbitError(w http.ResponseWriter, err error, ownerID string) {
	switch {
	case errors.Is(err, service.ErrFitbitNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrFitbitNotConnected):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidOAuthState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrFitbitRefresh):
		slog.Error("fitbit token refresh failed", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("fitbit request failed", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusBadGateway, "fitbit request failed")
	}
}
