package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cherryfit/cherryfit/internal/model"
)

const (
	// OwnerHeader carries the owner id on every relay request.
	OwnerHeader = "X-Owner-ID"

	DefaultTimeout = 15 * time.Second
)

// StatusError is a non-2xx relay response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay responded %d: %s", e.StatusCode, e.Message)
}

// Relay talks to the relay server's JSON API.
type Relay struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewRelay(baseURL string, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Relay{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (r *Relay) SyncFoodLogs(ctx context.Context, ownerID string, logs []*model.FoodLog) (*model.SyncResponse, error) {
	var resp model.SyncResponse
	err := r.do(ctx, http.MethodPost, "/api/food/sync", ownerID, model.FoodLogSyncRequest{Logs: logs}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Relay) SyncHealthMetrics(ctx context.Context, ownerID string, metrics []*model.HealthMetric) (*model.SyncResponse, error) {
	var resp model.SyncResponse
	err := r.do(ctx, http.MethodPost, "/api/health/sync", ownerID, model.HealthMetricSyncRequest{Metrics: metrics}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Relay) PushToFitbit(ctx context.Context, ownerID string, logIDs []string) (*model.FitbitPushResponse, error) {
	var resp model.FitbitPushResponse
	err := r.do(ctx, http.MethodPost, "/api/fitbit/push", ownerID, model.FitbitPushRequest{LogIDs: logIDs}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Relay) FitbitStatus(ctx context.Context, ownerID string) (*model.FitbitStatus, error) {
	var resp model.FitbitStatus
	if err := r.do(ctx, http.MethodGet, "/api/fitbit/status", ownerID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LookupBarcode returns (nil, nil) when the relay reports the product unknown.
func (r *Relay) LookupBarcode(ctx context.Context, ownerID, barcode string) (*model.BarcodeProduct, error) {
	var resp model.BarcodeProduct
	err := r.do(ctx, http.MethodGet, "/api/barcode/"+url.PathEscape(barcode), ownerID, nil, &resp)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Relay) Trends(ctx context.Context, ownerID, startDate, endDate string) ([]model.DailyNutrition, error) {
	q := url.Values{}
	q.Set("start", startDate)
	q.Set("end", endDate)

	var resp []model.DailyNutrition
	if err := r.do(ctx, http.MethodGet, "/api/food/trends?"+q.Encode(), ownerID, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *Relay) do(ctx context.Context, method, path, ownerID string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode relay request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ownerID != "" {
		req.Header.Set(OwnerHeader, ownerID)
	}

	httpClient := r.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode relay response: %w", err)
	}
	return nil
}
