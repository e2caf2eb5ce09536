package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/cherryfit/cherryfit/internal/db"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/google/uuid"
)

func relayLog(t *testing.T, name string, calories, servings float64, loggedAt string) *model.FoodLog {
	t.Helper()
	at := mustTime(t, loggedAt)
	return &model.FoodLog{
		ID:          uuid.New().String(),
		FoodName:    name,
		MealType:    model.MealDinner,
		Source:      model.SourcePhotoAI,
		ServingSize: "1 plate",
		Servings:    servings,
		Macros:      model.Macros{Calories: calories, ProteinG: 12.34, CarbsG: 40, FatG: 9},
		LoggedAt:    at,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func TestRelayUpsertIsIdempotent(t *testing.T) {
	repo := NewRelayFoodLogRepository(newTestDB(t, db.SchemaRelay))
	ctx := context.Background()

	batch := []*model.FoodLog{
		relayLog(t, "Pasta", 600, 1, "2024-01-15T19:00:00.000Z"),
		relayLog(t, "Salad", 150, 1, "2024-01-15T19:05:00.000Z"),
	}
	for _, log := range batch {
		if err := repo.Upsert(ctx, testOwner, log); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	once, err := repo.ByDate(ctx, testOwner, "2024-01-15")
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}

	for _, log := range batch {
		if err := repo.Upsert(ctx, testOwner, log); err != nil {
			t.Fatalf("second Upsert: %v", err)
		}
	}
	twice, err := repo.ByDate(ctx, testOwner, "2024-01-15")
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("state changed on replay:\n once=%+v\ntwice=%+v", once, twice)
	}
}

func TestRelayUpsertOverwritesMutableFieldsKeepsCreatedAt(t *testing.T) {
	repo := NewRelayFoodLogRepository(newTestDB(t, db.SchemaRelay))
	ctx := context.Background()

	log := relayLog(t, "Pasta", 600, 1, "2024-01-15T19:00:00.000Z")
	if err := repo.Upsert(ctx, testOwner, log); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	edited := *log
	edited.FoodName = "Pasta carbonara"
	edited.Servings = 1.5
	edited.CreatedAt = mustTime(t, "2024-02-01T00:00:00.000Z")
	edited.UpdatedAt = mustTime(t, "2024-01-16T08:00:00.000Z")
	if err := repo.Upsert(ctx, testOwner, &edited); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.ByIDs(ctx, testOwner, []string{log.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("ByIDs = %v, %v", got, err)
	}
	if got[0].FoodName != "Pasta carbonara" || got[0].Servings != 1.5 {
		t.Errorf("mutable fields not overwritten: %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(log.CreatedAt.Time) {
		t.Errorf("created_at = %s, want original %s", got[0].CreatedAt, log.CreatedAt)
	}
	if !got[0].UpdatedAt.Equal(edited.UpdatedAt.Time) {
		t.Errorf("updated_at = %s", got[0].UpdatedAt)
	}
}

func TestRelayUpsertDoesNotCrossOwners(t *testing.T) {
	repo := NewRelayFoodLogRepository(newTestDB(t, db.SchemaRelay))
	ctx := context.Background()

	log := relayLog(t, "Pasta", 600, 1, "2024-01-15T19:00:00.000Z")
	if err := repo.Upsert(ctx, testOwner, log); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hijack := *log
	hijack.FoodName = "Overwritten"
	err := repo.Upsert(ctx, otherTestOwner, &hijack)
	if !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("cross-owner upsert err = %v, want ErrOwnerMismatch", err)
	}

	got, _ := repo.ByIDs(ctx, testOwner, []string{log.ID})
	if len(got) != 1 || got[0].FoodName != "Pasta" {
		t.Errorf("row was modified by another owner: %+v", got)
	}
}

func TestRelayDailyTotals(t *testing.T) {
	repo := NewRelayFoodLogRepository(newTestDB(t, db.SchemaRelay))
	ctx := context.Background()

	for _, log := range []*model.FoodLog{
		relayLog(t, "A", 100, 2, "2024-01-15T08:00:00.000Z"),
		relayLog(t, "B", 50, 1, "2024-01-15T23:59:59.999Z"),
		relayLog(t, "C", 80, 1, "2024-01-16T00:00:00.000Z"),
	} {
		if err := repo.Upsert(ctx, testOwner, log); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	totals, err := repo.DailyTotals(ctx, testOwner, "2024-01-15", "2024-01-16")
	if err != nil {
		t.Fatalf("DailyTotals: %v", err)
	}
	want := []model.DailyNutrition{
		{Date: "2024-01-15", Calories: 250, ProteinG: 37, CarbsG: 120, FatG: 27},
		{Date: "2024-01-16", Calories: 80, ProteinG: 12.3, CarbsG: 40, FatG: 9},
	}
	if !reflect.DeepEqual(totals, want) {
		t.Errorf("totals = %+v\nwant %+v", totals, want)
	}

	if _, err := repo.DailyTotals(ctx, testOwner, "2024-01-16", "2024-01-15"); err == nil {
		t.Error("inverted range accepted")
	}
}

func TestRelayHealthMetricUpsert(t *testing.T) {
	repo := NewRelayHealthMetricRepository(newTestDB(t, db.SchemaRelay))
	ctx := context.Background()

	at := mustTime(t, "2024-01-15T09:00:00.000Z")
	metric := &model.HealthMetric{
		ID:         uuid.New().String(),
		MetricType: model.MetricHeartRateResting,
		Value:      58,
		RecordedAt: at,
		Source:     model.DefaultMetricSource,
		CreatedAt:  at,
	}
	for range 2 {
		if err := repo.Upsert(ctx, testOwner, metric); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	metrics, err := repo.ByRange(ctx, testOwner, model.MetricHeartRateResting, "2024-01-15", "2024-01-15")
	if err != nil {
		t.Fatalf("ByRange: %v", err)
	}
	if len(metrics) != 1 || metrics[0].Value != 58 {
		t.Errorf("metrics = %+v", metrics)
	}

	if err := repo.Upsert(ctx, otherTestOwner, metric); !errors.Is(err, ErrOwnerMismatch) {
		t.Errorf("cross-owner upsert err = %v", err)
	}
}

func TestRelayHealthMetricReplayLeavesRowUnchanged(t *testing.T) {
	conn := newTestDB(t, db.SchemaRelay)
	repo := NewRelayHealthMetricRepository(conn)
	ctx := context.Background()

	at := mustTime(t, "2024-01-15T09:00:00.000Z")
	metric := &model.HealthMetric{
		ID:         uuid.New().String(),
		MetricType: model.MetricSteps,
		Value:      8421,
		RecordedAt: at,
		Source:     model.DefaultMetricSource,
		CreatedAt:  at,
	}

	type row struct {
		ID         string  `db:"id"`
		UserID     string  `db:"user_id"`
		MetricType string  `db:"metric_type"`
		Value      float64 `db:"value"`
		RecordedAt string  `db:"recorded_at"`
		Source     string  `db:"source"`
		CreatedAt  string  `db:"created_at"`
		UpdatedAt  string  `db:"updated_at"`
	}
	read := func() row {
		t.Helper()
		var r row
		err := conn.GetContext(ctx, &r, `SELECT id, user_id, metric_type, value, recorded_at, source, created_at, updated_at
		                                 FROM health_metrics WHERE id = $1`, metric.ID)
		if err != nil {
			t.Fatalf("read row: %v", err)
		}
		return r
	}

	if err := repo.Upsert(ctx, testOwner, metric); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	once := read()

	time.Sleep(5 * time.Millisecond)
	if err := repo.Upsert(ctx, testOwner, metric); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	twice := read()

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("row changed on replay:\n once=%+v\ntwice=%+v", once, twice)
	}
}

func TestFitbitTokenLifecycle(t *testing.T) {
	repo := NewFitbitTokenRepository(newTestDB(t, db.SchemaRelay))
	ctx := context.Background()

	if _, err := repo.Get(ctx, testOwner); err != ErrFitbitTokenNotFound {
		t.Fatalf("Get before connect err = %v", err)
	}

	token := &model.FitbitToken{
		UserID:       testOwner,
		FitbitUserID: "ABC123",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    mustTime(t, "2024-01-15T10:00:00.000Z"),
	}
	if err := repo.Upsert(ctx, token); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	token.AccessToken = "access-2"
	token.RefreshToken = "refresh-2"
	if err := repo.Upsert(ctx, token); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := repo.Get(ctx, testOwner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccessToken != "access-2" || got.RefreshToken != "refresh-2" || got.FitbitUserID != "ABC123" {
		t.Errorf("token = %+v", got)
	}

	if err := repo.Delete(ctx, testOwner); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, testOwner); err != ErrFitbitTokenNotFound {
		t.Errorf("Get after delete err = %v", err)
	}
}
