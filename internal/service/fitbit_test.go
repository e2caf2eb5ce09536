package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cherryfit/cherryfit/internal/crypto"
	"github.com/cherryfit/cherryfit/internal/db"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/provider/fitbit"
	"github.com/cherryfit/cherryfit/internal/repository"
	"golang.org/x/oauth2"
)

type fakeFitbitAPI struct {
	mu      sync.Mutex
	fail    map[string]bool
	tokens  []string
	entries []fitbit.FoodLogEntry
}

func (f *fakeFitbitAPI) LogFood(ctx context.Context, accessToken string, entry fitbit.FoodLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, accessToken)
	f.entries = append(f.entries, entry)
	if f.fail[entry.FoodName] {
		return errors.New("fitbit said no")
	}
	return nil
}

// tokenServer answers code and refresh grants. refreshFails makes refresh grants fail.
type tokenServer struct {
	*httptest.Server
	refreshFails bool
	grants       []string
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "client" || pass != "secret" {
			t.Errorf("client credentials not sent in header")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		grant := r.PostForm.Get("grant_type")
		ts.grants = append(ts.grants, grant)

		w.Header().Set("Content-Type", "application/json")
		switch grant {
		case "authorization_code":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-1", "refresh_token": "refresh-1",
				"expires_in": 28800, "token_type": "Bearer", "user_id": "FB123",
			})
		case "refresh_token":
			if ts.refreshFails || r.PostForm.Get("refresh_token") != "refresh-1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-2", "refresh_token": "refresh-2",
				"expires_in": 28800, "token_type": "Bearer", "user_id": "FB123",
			})
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

// countingTransport records the token requests sent through it.
type countingTransport struct {
	mu    sync.Mutex
	paths []string
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.paths = append(c.paths, r.URL.Path)
	c.mu.Unlock()
	return http.DefaultTransport.RoundTrip(r)
}

type fitbitFixture struct {
	svc       *FitbitService
	transport *countingTransport
	api       *fakeFitbitAPI
	tokens    repository.FitbitTokenRepository
	foodLogs  repository.RelayFoodLogRepository
	server    *tokenServer
	cipher    *crypto.TokenCipher
	now       time.Time
}

func newFitbitFixture(t *testing.T) *fitbitFixture {
	t.Helper()
	conn := newTestDB(t, db.SchemaRelay)
	cipher, err := crypto.NewTokenCipher("test-key")
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}

	f := &fitbitFixture{
		api:      &fakeFitbitAPI{},
		tokens:   repository.NewFitbitTokenRepository(conn),
		foodLogs: repository.NewRelayFoodLogRepository(conn),
		server:   newTokenServer(t),
		cipher:   cipher,
		now:      time.Now(),
	}
	f.transport = &countingTransport{}
	f.svc = NewFitbitService(FitbitConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/fitbit/callback",
		StateSecret:  "state-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://www.fitbit.com/oauth2/authorize",
			TokenURL:  f.server.URL + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		HTTPClient: &http.Client{Transport: f.transport, Timeout: 5 * time.Second},
	}, f.tokens, f.foodLogs, cipher, f.api)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fitbitFixture) connect(t *testing.T) {
	t.Helper()
	authURL, err := f.svc.AuthURL(testOwner)
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	u, _ := url.Parse(authURL)
	owner, err := f.svc.Connect(context.Background(), "code-xyz", u.Query().Get("state"))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if owner != testOwner {
		t.Fatalf("Connect owner = %s", owner)
	}
}

func TestFitbitUnconfigured(t *testing.T) {
	conn := newTestDB(t, db.SchemaRelay)
	svc := NewFitbitService(FitbitConfig{}, repository.NewFitbitTokenRepository(conn), repository.NewRelayFoodLogRepository(conn), nil, &fakeFitbitAPI{})

	status, err := svc.Status(context.Background(), testOwner)
	if err != nil || status.State != model.FitbitStateUnconfigured {
		t.Errorf("Status = %+v, %v", status, err)
	}
	if _, err := svc.AuthURL(testOwner); !errors.Is(err, ErrFitbitNotConfigured) {
		t.Errorf("AuthURL err = %v", err)
	}
	if _, err := svc.Push(context.Background(), testOwner, []string{"x"}); !errors.Is(err, ErrFitbitNotConfigured) {
		t.Errorf("Push err = %v", err)
	}
}

func TestFitbitConnectLifecycle(t *testing.T) {
	f := newFitbitFixture(t)
	ctx := context.Background()

	status, _ := f.svc.Status(ctx, testOwner)
	if status.State != model.FitbitStateDisconnected {
		t.Fatalf("initial state = %s", status.State)
	}
	if _, err := f.svc.Push(ctx, testOwner, []string{"x"}); !errors.Is(err, ErrFitbitNotConnected) {
		t.Errorf("Push while disconnected err = %v", err)
	}

	authURL, err := f.svc.AuthURL(testOwner)
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	if !strings.HasPrefix(authURL, "https://www.fitbit.com/oauth2/authorize?") || !strings.Contains(authURL, "scope=nutrition+profile") {
		t.Errorf("auth url = %s", authURL)
	}

	f.connect(t)

	status, _ = f.svc.Status(ctx, testOwner)
	if status.State != model.FitbitStateConnected || status.FitbitUserID != "FB123" {
		t.Errorf("status after connect = %+v", status)
	}

	stored, err := f.tokens.Get(ctx, testOwner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.AccessToken == "access-1" || stored.RefreshToken == "refresh-1" {
		t.Error("tokens stored in plaintext")
	}

	if err := f.svc.Disconnect(ctx, testOwner); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	status, _ = f.svc.Status(ctx, testOwner)
	if status.State != model.FitbitStateDisconnected {
		t.Errorf("state after disconnect = %s", status.State)
	}
}

func TestFitbitStateValidation(t *testing.T) {
	f := newFitbitFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Connect(ctx, "code", "not-a-token"); !errors.Is(err, ErrInvalidOAuthState) {
		t.Errorf("garbage state err = %v", err)
	}

	authURL, _ := f.svc.AuthURL(testOwner)
	u, _ := url.Parse(authURL)
	state := u.Query().Get("state")

	f.now = f.now.Add(11 * time.Minute)
	if _, err := f.svc.Connect(ctx, "code", state); !errors.Is(err, ErrInvalidOAuthState) {
		t.Errorf("expired state err = %v", err)
	}
	if len(f.server.grants) != 0 {
		t.Errorf("code exchanged despite invalid state: %v", f.server.grants)
	}
}

func TestFitbitPushRefreshesExpiredToken(t *testing.T) {
	f := newFitbitFixture(t)
	ctx := context.Background()
	f.connect(t)

	ok := wireLog(t, 420, 1, "2024-01-15T08:00:00.000Z")
	ok.MealType = model.MealBreakfast
	failing := wireLog(t, 300, 1, "2024-01-15T12:00:00.000Z")
	failing.FoodName = "Rejected"
	for _, log := range []*model.FoodLog{ok, failing} {
		if err := f.foodLogs.Upsert(ctx, testOwner, log); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	f.api.fail = map[string]bool{"Rejected": true}

	// Token lifetime is 8h; now == expires_at must already count as expired.
	stored, _ := f.tokens.Get(ctx, testOwner)
	f.now = stored.ExpiresAt.Time

	resp, err := f.svc.Push(ctx, testOwner, []string{ok.ID, failing.ID, "unknown-id"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if resp.Total != 3 || len(resp.Pushed) != 1 || resp.Pushed[0] != ok.ID {
		t.Errorf("resp = %+v", resp)
	}

	if f.server.grants[len(f.server.grants)-1] != "refresh_token" {
		t.Errorf("grants = %v, want a refresh", f.server.grants)
	}
	for _, tok := range f.api.tokens {
		if tok != "access-2" {
			t.Errorf("push used token %q, want refreshed token", tok)
		}
	}
	if f.api.entries[0].MealTypeID != 1 || f.api.entries[0].Date != "2024-01-15" || f.api.entries[0].Calories != 420 {
		t.Errorf("entry = %+v", f.api.entries[0])
	}

	stored, _ = f.tokens.Get(ctx, testOwner)
	refresh, err := f.cipher.Decrypt(stored.RefreshToken)
	if err != nil || refresh != "refresh-2" {
		t.Errorf("persisted refresh token = %q, %v; want refresh-2", refresh, err)
	}
}

func TestFitbitRefreshFailureAbandonsPush(t *testing.T) {
	f := newFitbitFixture(t)
	ctx := context.Background()
	f.connect(t)

	log := wireLog(t, 100, 1, "2024-01-15T08:00:00.000Z")
	if err := f.foodLogs.Upsert(ctx, testOwner, log); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	f.server.refreshFails = true
	f.now = f.now.Add(9 * time.Hour)

	_, err := f.svc.Push(ctx, testOwner, []string{log.ID})
	if !errors.Is(err, ErrFitbitRefresh) {
		t.Fatalf("Push err = %v, want ErrFitbitRefresh", err)
	}
	if len(f.api.entries) != 0 {
		t.Errorf("provider called %d times after refresh failure", len(f.api.entries))
	}
}

func TestFitbitTokenCallsUseConfiguredClient(t *testing.T) {
	f := newFitbitFixture(t)
	ctx := context.Background()
	f.connect(t)

	f.now = f.now.Add(9 * time.Hour)
	if _, err := f.svc.Push(ctx, testOwner, nil); err != nil {
		t.Fatalf("Push: %v", err)
	}

	f.transport.mu.Lock()
	defer f.transport.mu.Unlock()
	if len(f.transport.paths) != 2 {
		t.Fatalf("token requests through client = %v, want exchange and refresh", f.transport.paths)
	}
	for _, path := range f.transport.paths {
		if path != "/oauth2/token" {
			t.Errorf("unexpected request path %s", path)
		}
	}
}

func TestFitbitExchangeHonorsClientTimeout(t *testing.T) {
	release := make(chan struct{})
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer stalled.Close()
	defer close(release)

	conn := newTestDB(t, db.SchemaRelay)
	cipher, _ := crypto.NewTokenCipher("test-key")
	svc := NewFitbitService(FitbitConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		StateSecret:  "state-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://www.fitbit.com/oauth2/authorize",
			TokenURL:  stalled.URL + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		HTTPClient: &http.Client{Timeout: 50 * time.Millisecond},
	}, repository.NewFitbitTokenRepository(conn), repository.NewRelayFoodLogRepository(conn), cipher, &fakeFitbitAPI{})

	authURL, err := svc.AuthURL(testOwner)
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	u, _ := url.Parse(authURL)

	start := time.Now()
	if _, err := svc.Connect(context.Background(), "code-xyz", u.Query().Get("state")); err == nil {
		t.Fatal("Connect succeeded against a stalled token endpoint")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Connect took %s, client timeout not applied", elapsed)
	}
}
