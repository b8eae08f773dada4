package repository

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/grant-portal/internal/model"
)

// AwardRepo covers grant awards and the read-only aggregates built on them.
type AwardRepo struct{ db *sqlx.DB }

func NewAwardRepo(db *sqlx.DB) *AwardRepo { return &AwardRepo{db: db} }

// CreateAward appends an award record.
func (r *AwardRepo) CreateAward(ctx context.Context, a model.GrantAward) (model.GrantAward, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AwardedAt.IsZero() {
		a.AwardedAt = time.Now().UTC()
	}
	const q = `INSERT INTO grant_awards (id, grant_id, application_id, user_id, amount, currency, awarded_at)
	           VALUES (:id, :grant_id, :application_id, :user_id, :amount, :currency, :awarded_at)`
	if _, err := r.db.NamedExecContext(ctx, q, a); err != nil {
		return model.GrantAward{}, err
	}
	return a, nil
}

// ListAwardsByUser returns the user's awards with grant titles, newest first.
func (r *AwardRepo) ListAwardsByUser(ctx context.Context, userID string) ([]model.GrantAward, error) {
	const q = `SELECT ga.id, ga.grant_id, ga.application_id, ga.user_id, ga.amount, ga.currency,
	                  ga.awarded_at, g.title AS grant_title
	           FROM grant_awards ga
	           JOIN grants g ON g.id = ga.grant_id
	           WHERE ga.user_id = $1
	           ORDER BY ga.awarded_at DESC`
	out := []model.GrantAward{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// ReferralExists reports whether any award recipient's "first last" name
// contains name, ignoring case.  Blank input never matches.
func (r *AwardRepo) ReferralExists(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	const q = `SELECT EXISTS (
		SELECT 1
		FROM grant_awards ga
		JOIN users u ON u.id = ga.user_id
		WHERE CONCAT(COALESCE(u.first_name, ''), ' ', COALESCE(u.last_name, '')) ILIKE $1 ESCAPE '\'
	)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, q, "%"+escapeLike(name)+"%")
	return exists, err
}

// GrantStats runs four independent reads; the result is not a snapshot.
func (r *AwardRepo) GrantStats(ctx context.Context) (model.GrantStats, error) {
	var s model.GrantStats
	if err := r.db.GetContext(ctx, &s.TotalAwarded, "SELECT COALESCE(SUM(amount), 0) FROM grant_awards"); err != nil {
		return model.GrantStats{}, err
	}
	if err := r.db.GetContext(ctx, &s.TotalRecipients, "SELECT COUNT(*) FROM grant_awards"); err != nil {
		return model.GrantStats{}, err
	}
	if err := r.db.GetContext(ctx, &s.CountriesServed, "SELECT COUNT(*) FROM countries WHERE is_active = TRUE"); err != nil {
		return model.GrantStats{}, err
	}
	var counts struct {
		Total    int64 `db:"total"`
		Selected int64 `db:"selected"`
	}
	if err := r.db.GetContext(ctx, &counts,
		`SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = 'selected') AS selected FROM applications`); err != nil {
		return model.GrantStats{}, err
	}
	s.SuccessRate = SuccessRate(counts.Selected, counts.Total)
	return s, nil
}

// SuccessRate returns selected/total as a whole percentage, 0 when total is 0.
func SuccessRate(selected, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(selected) / float64(total) * 100))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
