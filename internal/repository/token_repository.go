package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepo persists/validates refresh tokens (single 'token_hash' column).
type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

// StoreSession inserts a refresh token hash row.
func (r *SessionRepo) StoreSession(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4)",
		uuid.NewString(), userID, tokenHash, exp.UTC())
	return err
}

// RevokeSession revokes a live token in one statement and returns its user.
// A missing, expired or already revoked token yields ErrSessionInvalid, so
// concurrent callers presenting the same token cannot both succeed.
func (r *SessionRepo) RevokeSession(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`UPDATE sessions SET revoked_at = NOW()
		  WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
		  RETURNING user_id`,
		tokenHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSessionInvalid
		}
		return "", err
	}
	return userID, nil
}

// RevokeAllSessions revokes all of the user's active tokens.
func (r *SessionRepo) RevokeAllSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL",
		userID)
	return err
}
