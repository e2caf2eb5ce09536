package service

import (
	"context"
	"testing"

	"github.com/cherryfit/cherryfit/internal/db"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/repository"
)

func TestFitbitPushOnlySyncedRecords(t *testing.T) {
	conn := newTestDB(t, db.SchemaLocal)
	foodLogs := repository.NewFoodLogRepository(conn)
	ctx := context.Background()

	seeded := seedLogs(t, foodLogs, 2)
	synced, dirty := seeded[0], seeded[1]
	if _, err := foodLogs.MarkSynced(ctx, testOwner, map[string]model.Time{synced.ID: synced.UpdatedAt}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	relay := &fakeRelay{}
	svc := NewFitbitPushService(foodLogs, relay)

	result, err := svc.Push(ctx, testOwner, []string{synced.ID, dirty.ID})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(relay.pushRequests) != 1 || len(relay.pushRequests[0]) != 1 || relay.pushRequests[0][0] != synced.ID {
		t.Fatalf("push requests = %v, want only %s", relay.pushRequests, synced.ID)
	}
	if len(result.Pushed) != 1 || result.Total != 1 {
		t.Errorf("result = %+v", result)
	}

	got, _ := foodLogs.ByID(ctx, testOwner, dirty.ID)
	if got.Pushed {
		t.Error("unsynced record marked pushed")
	}
}

func TestFitbitPushMarksOnlyReturnedIDs(t *testing.T) {
	conn := newTestDB(t, db.SchemaLocal)
	foodLogs := repository.NewFoodLogRepository(conn)
	ctx := context.Background()

	seeded := seedLogs(t, foodLogs, 3)
	versions := map[string]model.Time{}
	for _, log := range seeded {
		versions[log.ID] = log.UpdatedAt
	}
	if _, err := foodLogs.MarkSynced(ctx, testOwner, versions); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	// The first record fails upstream; a prefix-based marker would get this wrong.
	relay := &fakeRelay{fitbitFail: map[string]bool{seeded[0].ID: true}}
	svc := NewFitbitPushService(foodLogs, relay)

	result := svc.Run(ctx, testOwner)
	if len(result.Pushed) != 2 || result.Total != 3 {
		t.Fatalf("result = %+v", result)
	}

	remaining, err := foodLogs.Unpushed(ctx, testOwner, nil, 0)
	if err != nil {
		t.Fatalf("Unpushed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != seeded[0].ID {
		t.Errorf("remaining = %v, want only %s", remaining, seeded[0].ID)
	}
}

func TestFitbitPushTransportFailure(t *testing.T) {
	conn := newTestDB(t, db.SchemaLocal)
	foodLogs := repository.NewFoodLogRepository(conn)
	ctx := context.Background()

	seeded := seedLogs(t, foodLogs, 1)
	if _, err := foodLogs.MarkSynced(ctx, testOwner, map[string]model.Time{seeded[0].ID: seeded[0].UpdatedAt}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	svc := NewFitbitPushService(foodLogs, &fakeRelay{failTransport: true})
	if _, err := svc.Push(ctx, testOwner, nil); err == nil {
		t.Error("expected transport error from Push")
	}

	remaining, _ := foodLogs.Unpushed(ctx, testOwner, nil, 0)
	if len(remaining) != 1 {
		t.Errorf("record lost its eligibility: remaining = %d", len(remaining))
	}
}

func TestFitbitPushNothingEligible(t *testing.T) {
	conn := newTestDB(t, db.SchemaLocal)
	relay := &fakeRelay{}
	svc := NewFitbitPushService(repository.NewFoodLogRepository(conn), relay)

	result := svc.Run(context.Background(), testOwner)
	if result.Total != 0 || len(relay.pushRequests) != 0 {
		t.Errorf("result = %+v, requests = %v", result, relay.pushRequests)
	}
}
