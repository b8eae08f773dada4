package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/grant-portal/internal/model"
)

const userColumns = "id, email, first_name, last_name, profile_image_url, phone, created_at, updated_at"

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// UpsertUser inserts the user or refreshes its identity claims when the
// subject id already exists.  Phone is application-owned and left untouched.
func (r *UserRepo) UpsertUser(ctx context.Context, in model.UpsertUser) (model.User, error) {
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &e
	}
	const q = `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			profile_image_url = EXCLUDED.profile_image_url,
			updated_at = NOW()
		RETURNING ` + userColumns
	var u model.User
	if err := r.db.GetContext(ctx, &u, q, in.ID, in.Email, in.FirstName, in.LastName, in.ProfileImageURL); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetUser fetches a user by subject id.
func (r *UserRepo) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}
