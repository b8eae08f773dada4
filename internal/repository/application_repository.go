package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/grant-portal/internal/model"
)

const applicationColumns = `a.id, a.user_id, a.grant_id, a.first_name, a.last_name, a.email, a.phone,
	a.address, a.reason, a.referral_name, a.has_referral, a.auto_qualified, a.status, a.submitted_at,
	a.reviewed_at, a.selected_at`

// ApplicationRepo encapsulates queries on the applications table.
type ApplicationRepo struct {
	db *sqlx.DB
}

func NewApplicationRepo(db *sqlx.DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

// CreateApplication inserts an application.  A second application for the
// same (user, grant) violates applications_user_grant_key and is reported
// as ErrDuplicateApplication.
func (r *ApplicationRepo) CreateApplication(ctx context.Context, a model.Application) (model.Application, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusPending
	}
	a.SubmittedAt = time.Now().UTC()

	const q = `INSERT INTO applications (id, user_id, grant_id, first_name, last_name, email, phone,
	               address, reason, referral_name, has_referral, auto_qualified, status, submitted_at)
	           VALUES (:id, :user_id, :grant_id, :first_name, :last_name, :email, :phone,
	               :address, :reason, :referral_name, :has_referral, :auto_qualified, :status, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, q, a); err != nil {
		if isUniqueViolation(err, applicationUserGrantKey) {
			return model.Application{}, ErrDuplicateApplication
		}
		return model.Application{}, err
	}
	return a, nil
}

// GetApplication fetches an application with its grant title.
func (r *ApplicationRepo) GetApplication(ctx context.Context, id string) (model.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Application{}, ErrApplicationNotFound
	}
	const q = `SELECT ` + applicationColumns + `, g.title AS grant_title
		FROM applications a
		JOIN grants g ON g.id = a.grant_id
		WHERE a.id = $1`
	var a model.Application
	err := r.db.GetContext(ctx, &a, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Application{}, ErrApplicationNotFound
	}
	return a, err
}

// ListApplicationsByUser returns the user's applications, newest first.
func (r *ApplicationRepo) ListApplicationsByUser(ctx context.Context, userID string) ([]model.Application, error) {
	const q = `SELECT ` + applicationColumns + `, g.title AS grant_title
		FROM applications a
		JOIN grants g ON g.id = a.grant_id
		WHERE a.user_id = $1
		ORDER BY a.submitted_at DESC`
	out := []model.Application{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// HasApplied reports whether the user already applied to the grant.
func (r *ApplicationRepo) HasApplied(ctx context.Context, userID, grantID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM applications WHERE user_id = $1 AND grant_id = $2)", userID, grantID)
	return exists, err
}

// UpdateApplicationStatus sets the status and stamps reviewed_at (for any
// reviewer decision) and selected_at (for selected).
func (r *ApplicationRepo) UpdateApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus) (model.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Application{}, ErrApplicationNotFound
	}
	now := time.Now().UTC()
	var reviewedAt, selectedAt *time.Time
	if status != model.StatusPending {
		reviewedAt = &now
	}
	if status == model.StatusSelected {
		selectedAt = &now
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications
		 SET status = $2,
		     reviewed_at = COALESCE($3, reviewed_at),
		     selected_at = COALESCE($4, selected_at)
		 WHERE id = $1`, id, string(status), reviewedAt, selectedAt)
	if err != nil {
		return model.Application{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Application{}, ErrApplicationNotFound
	}
	return r.GetApplication(ctx, id)
}
