package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/grant-portal/internal/model"
)

const grantColumns = `g.id, g.title, g.description, g.category, g.country_id, g.amount, g.min_amount,
	g.max_amount, g.currency, g.total_spots, g.available_spots, g.deadline, g.status, g.eligibility,
	g.created_at, g.updated_at`

// GrantRepo encapsulates all database queries related to grants.
type GrantRepo struct {
	db *sqlx.DB
}

func NewGrantRepo(db *sqlx.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

// CreateGrant inserts a grant.  Status defaults to active and a missing
// AvailableSpots is initialised from TotalSpots.
func (r *GrantRepo) CreateGrant(ctx context.Context, g model.Grant) (model.Grant, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = model.GrantActive
	}
	if g.AvailableSpots == 0 {
		g.AvailableSpots = g.TotalSpots
	}
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	g.Deadline = g.Deadline.UTC()

	const q = `INSERT INTO grants (id, title, description, category, country_id, amount, min_amount,
	               max_amount, currency, total_spots, available_spots, deadline, status, eligibility,
	               created_at, updated_at)
	           VALUES (:id, :title, :description, :category, :country_id, :amount, :min_amount,
	               :max_amount, :currency, :total_spots, :available_spots, :deadline, :status, :eligibility,
	               :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, g); err != nil {
		return model.Grant{}, err
	}
	return g, nil
}

// GetGrant fetches a grant by id regardless of status.
func (r *GrantRepo) GetGrant(ctx context.Context, id string) (model.Grant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Grant{}, ErrGrantNotFound
	}
	var g model.Grant
	err := r.db.GetContext(ctx, &g, "SELECT "+grantColumns+" FROM grants g WHERE g.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Grant{}, ErrGrantNotFound
	}
	return g, err
}

// ListGrants returns published (non-draft) grants narrowed by the filter,
// soonest deadline first.
func (r *GrantRepo) ListGrants(ctx context.Context, f model.GrantFilter) ([]model.Grant, error) {
	where := []string{"g.status <> 'draft'"}
	args := []any{}

	if country := strings.TrimSpace(f.Country); country != "" {
		where = append(where, "(g.country_id::text = ? OR c.code = ?)")
		args = append(args, country, strings.ToUpper(country))
	}
	if f.Category != "" {
		where = append(where, "g.category = ?")
		args = append(args, string(f.Category))
	}

	q := `SELECT ` + grantColumns + `
		FROM grants g
		JOIN countries c ON c.id = g.country_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY g.deadline ASC, g.created_at DESC`

	out := []model.Grant{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// CountGrants returns the number of grant rows of any status.
func (r *GrantRepo) CountGrants(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM grants")
	return n, err
}

// CloseExpiredGrants moves active grants whose deadline is before now to
// closed and reports how many rows changed.
func (r *GrantRepo) CloseExpiredGrants(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE grants SET status = 'closed', updated_at = $1
		 WHERE status = 'active' AND deadline < $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
