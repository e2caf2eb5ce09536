package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cherryfit/cherryfit/internal/db"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/jmoiron/sqlx"
)

const testOwner = "00000000-0000-0000-0000-000000000001"

var errTransport = errors.New("relay unreachable")

func newTestDB(t *testing.T, schema string) *sqlx.DB {
	t.Helper()

	conn, err := db.Init(db.DriverSQLite, filepath.Join(t.TempDir(), schema+".db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.RunMigrations(context.Background(), conn.DB, db.DriverSQLite, schema); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

// fakeRelay records requests and answers with canned behaviour.
type fakeRelay struct {
	mu sync.Mutex

	failTransport bool
	rejectIDs     map[string]bool
	fitbitFail    map[string]bool
	products      map[string]*model.BarcodeProduct

	foodBatches   [][]*model.FoodLog
	metricBatches [][]*model.HealthMetric
	pushRequests  [][]string
	lookups       []string

	// block, when set, is waited on inside SyncFoodLogs.
	block chan struct{}
}

func (f *fakeRelay) SyncFoodLogs(ctx context.Context, ownerID string, logs []*model.FoodLog) (*model.SyncResponse, error) {
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.foodBatches = append(f.foodBatches, logs)
	if f.failTransport {
		return nil, errTransport
	}

	resp := &model.SyncResponse{Synced: []string{}}
	for _, log := range logs {
		if f.rejectIDs[log.ID] {
			resp.Failed++
			continue
		}
		resp.Synced = append(resp.Synced, log.ID)
	}
	return resp, nil
}

func (f *fakeRelay) SyncHealthMetrics(ctx context.Context, ownerID string, metrics []*model.HealthMetric) (*model.SyncResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.metricBatches = append(f.metricBatches, metrics)
	if f.failTransport {
		return nil, errTransport
	}

	resp := &model.SyncResponse{Synced: []string{}}
	for _, m := range metrics {
		resp.Synced = append(resp.Synced, m.ID)
	}
	return resp, nil
}

func (f *fakeRelay) PushToFitbit(ctx context.Context, ownerID string, logIDs []string) (*model.FitbitPushResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pushRequests = append(f.pushRequests, logIDs)
	if f.failTransport {
		return nil, errTransport
	}

	resp := &model.FitbitPushResponse{Pushed: []string{}, Total: len(logIDs)}
	for _, id := range logIDs {
		if !f.fitbitFail[id] {
			resp.Pushed = append(resp.Pushed, id)
		}
	}
	return resp, nil
}

func (f *fakeRelay) LookupBarcode(ctx context.Context, ownerID, barcode string) (*model.BarcodeProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups = append(f.lookups, barcode)
	if f.failTransport {
		return nil, errTransport
	}
	return f.products[barcode], nil
}

func ptr[T any](v T) *T {
	return &v
}
