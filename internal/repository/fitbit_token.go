package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFitbitTokenNotFound = errors.New("fitbit token not found")
)

// FitbitTokenRepository stores one credential per owner. Token values are
// opaque here; callers encrypt them before Upsert.
type FitbitTokenRepository interface {
	Get(ctx context.Context, ownerID string) (*model.FitbitToken, error)
	Upsert(ctx context.Context, token *model.FitbitToken) error
	Delete(ctx context.Context, ownerID string) error
}

type fitbitTokenRepository struct {
	db *sqlx.DB
}

func NewFitbitTokenRepository(db *sqlx.DB) FitbitTokenRepository {
	return &fitbitTokenRepository{db: db}
}

func (r *fitbitTokenRepository) Get(ctx context.Context, ownerID string) (*model.FitbitToken, error) {
	token := &model.FitbitToken{}
	err := r.db.GetContext(ctx, token, `SELECT * FROM fitbit_tokens WHERE user_id = $1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFitbitTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *fitbitTokenRepository) Upsert(ctx context.Context, token *model.FitbitToken) error {
	now := model.Now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now

	query := `INSERT INTO fitbit_tokens (user_id, fitbit_user_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT(user_id) DO UPDATE SET
			fitbit_user_id = excluded.fitbit_user_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.FitbitUserID,
		token.AccessToken,
		token.RefreshToken,
		token.ExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	return err
}

// Delete removes the owner's credential. Deleting an absent credential is not an error.
func (r *fitbitTokenRepository) Delete(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM fitbit_tokens WHERE user_id = $1`, ownerID)
	return err
}
