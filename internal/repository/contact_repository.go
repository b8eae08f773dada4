package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/grant-portal/internal/model"
)

type ContactRepo struct{ db *sqlx.DB }

func NewContactRepo(db *sqlx.DB) *ContactRepo { return &ContactRepo{db: db} }

// CreateContactMessage stores an inquiry with a normalized email.
func (r *ContactRepo) CreateContactMessage(ctx context.Context, m model.ContactMessage) (model.ContactMessage, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	m.CreatedAt = time.Now().UTC()
	const q = `INSERT INTO contact_messages (id, name, email, subject, message, created_at)
	           VALUES (:id, :name, :email, :subject, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, m); err != nil {
		return model.ContactMessage{}, err
	}
	return m, nil
}
