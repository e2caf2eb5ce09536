package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cherryfit/cherryfit/internal/db"
	"github.com/cherryfit/cherryfit/internal/model"
)

func TestHealthMetricQueries(t *testing.T) {
	repo := NewHealthMetricRepository(newTestDB(t, db.SchemaLocal))
	ctx := context.Background()

	steps := []struct {
		value float64
		at    string
	}{
		{4000, "2024-01-14T20:00:00.000Z"},
		{8000, "2024-01-15T09:00:00.000Z"},
		{12000, "2024-01-15T21:00:00.000Z"},
	}
	for _, s := range steps {
		if _, err := repo.Save(ctx, testOwner, model.MetricSteps, s.value, mustTime(t, s.at), ""); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if _, err := repo.Save(ctx, testOwner, model.MetricWeightKg, 72.5, mustTime(t, "2024-01-15T07:00:00.000Z"), "scale"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ranged, err := repo.ByRange(ctx, testOwner, model.MetricSteps, "2024-01-15", "2024-01-15")
	if err != nil {
		t.Fatalf("ByRange: %v", err)
	}
	if len(ranged) != 2 || ranged[0].Value != 8000 || ranged[0].Source != model.DefaultMetricSource {
		t.Errorf("ByRange = %+v", ranged)
	}

	latest, err := repo.Latest(ctx, testOwner, model.MetricSteps)
	if err != nil || latest == nil || latest.Value != 12000 {
		t.Errorf("Latest = %+v, %v", latest, err)
	}

	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	today, err := repo.Today(ctx, testOwner, model.MetricSteps, now)
	if err != nil || today == nil || today.Value != 12000 {
		t.Errorf("Today = %+v, %v", today, err)
	}
	none, err := repo.Today(ctx, testOwner, model.MetricSleepMinutes, now)
	if err != nil || none != nil {
		t.Errorf("Today(no readings) = %+v, %v", none, err)
	}

	pending, err := repo.Unsynced(ctx, testOwner, 0)
	if err != nil || len(pending) != 4 {
		t.Fatalf("Unsynced = %d, %v", len(pending), err)
	}
	if err := repo.MarkSynced(ctx, testOwner, []string{pending[0].ID, pending[1].ID}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, _ = repo.Unsynced(ctx, testOwner, 0)
	if len(pending) != 2 {
		t.Errorf("pending after MarkSynced = %d, want 2", len(pending))
	}
}

func TestHealthMetricMarkSyncedIsOwnerScoped(t *testing.T) {
	repo := NewHealthMetricRepository(newTestDB(t, db.SchemaLocal))
	ctx := context.Background()

	metric, err := repo.Save(ctx, testOwner, model.MetricWeightKg, 72.4, mustTime(t, "2024-01-15T07:00:00.000Z"), "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.MarkSynced(ctx, otherTestOwner, []string{metric.ID}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if pending, _ := repo.Unsynced(ctx, testOwner, 0); len(pending) != 1 {
		t.Errorf("pending = %d, want 1 after another owner's MarkSynced", len(pending))
	}
}
