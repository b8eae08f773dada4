package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/grant-portal/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var grantCols = []string{
	"id", "title", "description", "category", "country_id", "amount", "min_amount", "max_amount",
	"currency", "total_spots", "available_spots", "deadline", "status", "eligibility",
	"created_at", "updated_at",
}

func TestReferralExistsEscapesLikeWildcards(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAwardRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("ILIKE $1 ESCAPE")).
		WithArgs(`%jane\_smith 100\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ReferralExists(context.Background(), "  jane_smith 100%  ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralExistsBlankNeverQueries(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAwardRepo(db)

	ok, err := repo.ReferralExists(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAwardRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM grant_awards")).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(12500.5))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM grant_awards")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("FROM countries WHERE is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(14))
	mock.ExpectQuery(regexp.QuoteMeta("FILTER (WHERE status = 'selected')")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "selected"}).AddRow(3, 1))

	st, err := repo.GrantStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.GrantStats{
		TotalAwarded:    12500.5,
		TotalRecipients: 4,
		CountriesServed: 14,
		SuccessRate:     33,
	}, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuccessRate(t *testing.T) {
	cases := []struct {
		selected, total int64
		want            int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 3, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SuccessRate(tc.selected, tc.total), "selected=%d total=%d", tc.selected, tc.total)
	}
}

func TestCreateApplicationMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepo(db)

	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "applications_user_grant_key"})

	_, err := repo.CreateApplication(context.Background(), model.Application{
		UserID:  "user-1",
		GrantID: uuid.NewString(),
		Status:  model.StatusQualified,
	})
	assert.ErrorIs(t, err, ErrDuplicateApplication)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateApplicationKeepsOtherErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepo(db)

	fk := &pq.Error{Code: "23503", Constraint: "applications_grant_id_fkey"}
	mock.ExpectExec("INSERT INTO applications").WillReturnError(fk)

	_, err := repo.CreateApplication(context.Background(), model.Application{UserID: "u", GrantID: uuid.NewString()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateApplication)
}

func TestIsUniqueViolation(t *testing.T) {
	other := &pq.Error{Code: "23505", Constraint: "users_pkey"}
	assert.True(t, isUniqueViolation(other, ""))
	assert.False(t, isUniqueViolation(other, applicationUserGrantKey))
	assert.False(t, isUniqueViolation(assert.AnError, ""))
}

func TestListGrantsBuildsFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	deadline := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	id, countryID := uuid.NewString(), uuid.NewString()
	rows := sqlmock.NewRows(grantCols).AddRow(
		id, "STEM Scholarship", "desc", "education", countryID, 1000.0, nil, nil,
		"KES", 10, 10, deadline, "active", "students", deadline, deadline,
	)
	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE g.status <> 'draft' AND (g.country_id::text = $1 OR c.code = $2) AND g.category = $3")).
		WithArgs("ke", "KE", "education").
		WillReturnRows(rows)

	out, err := repo.ListGrants(context.Background(), model.GrantFilter{Country: "ke", Category: model.CategoryEducation})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, id, out[0].ID)
	assert.Equal(t, model.CategoryEducation, out[0].Category)
	require.NotNil(t, out[0].Amount)
	assert.Equal(t, 1000.0, *out[0].Amount)
	assert.Nil(t, out[0].MinAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGrantsWithoutFilterOnlyHidesDrafts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.status <> 'draft'\n")).
		WillReturnRows(sqlmock.NewRows(grantCols))

	out, err := repo.ListGrants(context.Background(), model.GrantFilter{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetGrantRejectsMalformedID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	_, err := repo.GetGrant(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrGrantNotFound)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetGrantNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	id := uuid.NewString()
	mock.ExpectQuery("FROM grants g WHERE g.id").WithArgs(id).WillReturnRows(sqlmock.NewRows(grantCols))

	_, err := repo.GetGrant(context.Background(), id)
	assert.ErrorIs(t, err, ErrGrantNotFound)
}

func TestCloseExpiredGrants(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGrantRepo(db)

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE grants SET status = 'closed'")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.CloseExpiredGrants(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSessionIsSingleUse(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepo(db)
	revoke := `(?s)UPDATE sessions SET revoked_at = NOW\(\).*revoked_at IS NULL AND expires_at > NOW\(\).*RETURNING user_id`

	mock.ExpectQuery(revoke).
		WithArgs("live").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-1"))
	mock.ExpectQuery(revoke).WithArgs("live").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	uid, err := repo.RevokeSession(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	_, err = repo.RevokeSession(context.Background(), "live")
	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}
