package model

import "time"

const (
	FitbitStateUnconfigured = "unconfigured"
	FitbitStateDisconnected = "disconnected"
	FitbitStateConnected    = "connected"
)

// FitbitToken is the OAuth credential pair held by the relay for one owner.
// AccessToken and RefreshToken are stored encrypted.
type FitbitToken struct {
	UserID       string `db:"user_id"`
	FitbitUserID string `db:"fitbit_user_id"`
	AccessToken  string `db:"access_token"`
	RefreshToken string `db:"refresh_token"`
	ExpiresAt    Time   `db:"expires_at"`
	CreatedAt    Time   `db:"created_at"`
	UpdatedAt    Time   `db:"updated_at"`
}

func (t *FitbitToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt.Time)
}

type FitbitStatus struct {
	State        string     `json:"state"`
	FitbitUserID string     `json:"fitbit_user_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}
