package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cherryfit/cherryfit/internal/crypto"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/provider/fitbit"
	"github.com/cherryfit/cherryfit/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	fitbitStateTTL      = 10 * time.Minute
	fitbitDefaultExpiry = 8 * time.Hour
	fitbitStateAudience = "fitbit-connect"
)

var (
	ErrFitbitNotConfigured = errors.New("fitbit integration is not configured")
	ErrFitbitNotConnected  = errors.New("fitbit account is not connected")
	ErrInvalidOAuthState   = errors.New("invalid or expired oauth state")
	ErrFitbitRefresh       = errors.New("fitbit token refresh failed")
)

// FitbitAPI creates food-log entries on behalf of a connected owner.
type FitbitAPI interface {
	LogFood(ctx context.Context, accessToken string, entry fitbit.FoodLogEntry) error
}

type FitbitConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateSecret  string
	// Endpoint overrides fitbit.Endpoint when set.
	Endpoint oauth2.Endpoint
	// HTTPClient carries token exchanges and refreshes. Defaults to a client
	// bounded by UpstreamTimeout.
	HTTPClient *http.Client
}

// FitbitService holds per-owner Fitbit credentials on the relay and pushes
// food logs with them. Without client credentials it stays unconfigured and
// every operation except Status fails with ErrFitbitNotConfigured.
type FitbitService struct {
	oauth       *oauth2.Config
	stateSecret []byte
	tokens      repository.FitbitTokenRepository
	foodLogs    repository.RelayFoodLogRepository
	cipher      *crypto.TokenCipher
	api         FitbitAPI
	httpClient  *http.Client
	now         func() time.Time
}

func NewFitbitService(
	cfg FitbitConfig,
	tokens repository.FitbitTokenRepository,
	foodLogs repository.RelayFoodLogRepository,
	cipher *crypto.TokenCipher,
	api FitbitAPI,
) *FitbitService {
	s := &FitbitService{
		stateSecret: []byte(cfg.StateSecret),
		tokens:      tokens,
		foodLogs:    foodLogs,
		cipher:      cipher,
		api:         api,
		httpClient:  cfg.HTTPClient,
		now:         time.Now,
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: UpstreamTimeout}
	}

	if cfg.ClientID != "" && cfg.ClientSecret != "" && cipher != nil && len(s.stateSecret) > 0 {
		endpoint := fitbit.Endpoint
		if cfg.Endpoint.TokenURL != "" {
			endpoint = cfg.Endpoint
		}
		s.oauth = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       fitbit.Scopes,
		}
	}

	return s
}

func (s *FitbitService) Configured() bool {
	return s.oauth != nil
}

func (s *FitbitService) Status(ctx context.Context, ownerID string) (*model.FitbitStatus, error) {
	if !s.Configured() {
		return &model.FitbitStatus{State: model.FitbitStateUnconfigured}, nil
	}

	token, err := s.tokens.Get(ctx, ownerID)
	if errors.Is(err, repository.ErrFitbitTokenNotFound) {
		return &model.FitbitStatus{State: model.FitbitStateDisconnected}, nil
	}
	if err != nil {
		return nil, err
	}

	expiresAt := token.ExpiresAt.Time
	return &model.FitbitStatus{
		State:        model.FitbitStateConnected,
		FitbitUserID: token.FitbitUserID,
		ExpiresAt:    &expiresAt,
	}, nil
}

// AuthURL returns the Fitbit consent URL. The state parameter is a signed,
// short-lived token naming the owner, checked again in Connect.
func (s *FitbitService) AuthURL(ownerID string) (string, error) {
	if !s.Configured() {
		return "", ErrFitbitNotConfigured
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   ownerID,
		Audience:  jwt.ClaimStrings{fitbitStateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(fitbitStateTTL)),
		ID:        uuid.New().String(),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.stateSecret)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}

	return s.oauth.AuthCodeURL(state), nil
}

func (s *FitbitService) parseState(state string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(state, claims,
		func(*jwt.Token) (any, error) { return s.stateSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(fitbitStateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Subject == "" {
		return "", ErrInvalidOAuthState
	}
	return claims.Subject, nil
}

// Connect exchanges an authorization code and stores the credential for the
// owner named in state. It returns that owner id.
func (s *FitbitService) Connect(ctx context.Context, code, state string) (string, error) {
	if !s.Configured() {
		return "", ErrFitbitNotConfigured
	}

	ownerID, err := s.parseState(state)
	if err != nil {
		return "", err
	}

	token, err := s.oauth.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return "", fmt.Errorf("fitbit code exchange: %w", err)
	}

	fitbitUserID, _ := token.Extra("user_id").(string)
	if err := s.store(ctx, ownerID, fitbitUserID, token); err != nil {
		return "", err
	}

	slog.Info("fitbit connected", "owner_id", ownerID, "fitbit_user_id", fitbitUserID)
	return ownerID, nil
}

func (s *FitbitService) Disconnect(ctx context.Context, ownerID string) error {
	if !s.Configured() {
		return ErrFitbitNotConfigured
	}
	if err := s.tokens.Delete(ctx, ownerID); err != nil {
		return err
	}
	slog.Info("fitbit disconnected", "owner_id", ownerID)
	return nil
}

// Push logs each requested food log to Fitbit with one call per record and
// returns the ids that succeeded. Ids unknown to the relay count as failures.
func (s *FitbitService) Push(ctx context.Context, ownerID string, ids []string) (*model.FitbitPushResponse, error) {
	if !s.Configured() {
		return nil, ErrFitbitNotConfigured
	}

	accessToken, err := s.accessToken(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	resp := &model.FitbitPushResponse{Pushed: []string{}, Total: len(ids)}
	if len(ids) == 0 {
		return resp, nil
	}

	logs, err := s.foodLogs.ByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}

	for _, log := range logs {
		if err := s.api.LogFood(ctx, accessToken, fitbit.EntryFromLog(log)); err != nil {
			slog.Warn("fitbit food log failed", "id", log.ID, "error", err)
			continue
		}
		resp.Pushed = append(resp.Pushed, log.ID)
	}

	return resp, nil
}

// accessToken returns a usable access token, refreshing and persisting a new
// pair first when the stored one has expired.
func (s *FitbitService) accessToken(ctx context.Context, ownerID string) (string, error) {
	stored, err := s.tokens.Get(ctx, ownerID)
	if errors.Is(err, repository.ErrFitbitTokenNotFound) {
		return "", ErrFitbitNotConnected
	}
	if err != nil {
		return "", err
	}

	if !stored.IsExpired(s.now()) {
		return s.cipher.Decrypt(stored.AccessToken)
	}

	refreshToken, err := s.cipher.Decrypt(stored.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("decrypt refresh token: %w", err)
	}

	fresh, err := s.oauth.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFitbitRefresh, err)
	}

	fitbitUserID, _ := fresh.Extra("user_id").(string)
	if fitbitUserID == "" {
		fitbitUserID = stored.FitbitUserID
	}
	if err := s.store(ctx, ownerID, fitbitUserID, fresh); err != nil {
		return "", err
	}

	slog.Info("fitbit token refreshed", "owner_id", ownerID)
	return fresh.AccessToken, nil
}

// oauthContext routes x/oauth2 token calls through the service's client.
func (s *FitbitService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *FitbitService) store(ctx context.Context, ownerID, fitbitUserID string, token *oauth2.Token) error {
	access, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := s.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}

	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = s.now().Add(fitbitDefaultExpiry)
	}

	return s.tokens.Upsert(ctx, &model.FitbitToken{
		UserID:       ownerID,
		FitbitUserID: fitbitUserID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    model.NewTime(expiry),
	})
}
