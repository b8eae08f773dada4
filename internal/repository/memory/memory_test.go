package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/grant-portal/internal/model"
	"github.com/iliyamo/grant-portal/internal/repository"
)

func strPtr(s string) *string { return &s }

func seedGrants(t *testing.T, s *Store) (model.Country, model.Country) {
	t.Helper()
	ctx := context.Background()
	ke, err := s.CreateCountry(ctx, model.Country{Name: "Kenya", Code: "KE", Currency: "KES", IsActive: true})
	require.NoError(t, err)
	gh, err := s.CreateCountry(ctx, model.Country{Name: "Ghana", Code: "GH", Currency: "GHS", IsActive: true})
	require.NoError(t, err)

	deadline := time.Now().Add(48 * time.Hour)
	for _, g := range []model.Grant{
		{Title: "KE education", Category: model.CategoryEducation, CountryID: ke.ID, Deadline: deadline},
		{Title: "KE arts", Category: model.CategoryArts, CountryID: ke.ID, Deadline: deadline.Add(time.Hour)},
		{Title: "GH education", Category: model.CategoryEducation, CountryID: gh.ID, Deadline: deadline},
		{Title: "GH draft", Category: model.CategoryEducation, CountryID: gh.ID, Deadline: deadline, Status: model.GrantDraft},
	} {
		_, err := s.CreateGrant(ctx, g)
		require.NoError(t, err)
	}
	return ke, gh
}

func titles(gs []model.Grant) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.Title)
	}
	return out
}

func TestListGrantsFilters(t *testing.T) {
	s := New()
	ke, _ := seedGrants(t, s)
	ctx := context.Background()

	all, err := s.ListGrants(ctx, model.GrantFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.NotContains(t, titles(all), "GH draft")

	edu, err := s.ListGrants(ctx, model.GrantFilter{Category: model.CategoryEducation})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"KE education", "GH education"}, titles(edu))

	byCode, err := s.ListGrants(ctx, model.GrantFilter{Country: "ke"})
	require.NoError(t, err)
	assert.Equal(t, []string{"KE education", "KE arts"}, titles(byCode))

	byID, err := s.ListGrants(ctx, model.GrantFilter{Country: ke.ID, Category: model.CategoryArts})
	require.NoError(t, err)
	assert.Equal(t, []string{"KE arts"}, titles(byID))
}

func TestCreateGrantRequiresCountry(t *testing.T) {
	_, err := New().CreateGrant(context.Background(), model.Grant{Title: "orphan", CountryID: "nope"})
	assert.ErrorIs(t, err, repository.ErrCountryNotFound)
}

func TestCreateApplicationRejectsDuplicatePair(t *testing.T) {
	s := New()
	seedGrants(t, s)
	ctx := context.Background()
	grants, err := s.ListGrants(ctx, model.GrantFilter{Category: model.CategoryArts})
	require.NoError(t, err)
	grantID := grants[0].ID

	first, err := s.CreateApplication(ctx, model.Application{UserID: "u1", GrantID: grantID, Status: model.StatusQualified})
	require.NoError(t, err)
	assert.Equal(t, "KE arts", first.GrantTitle)

	_, err = s.CreateApplication(ctx, model.Application{UserID: "u1", GrantID: grantID})
	assert.ErrorIs(t, err, repository.ErrDuplicateApplication)

	other, err := s.CreateApplication(ctx, model.Application{UserID: "u2", GrantID: grantID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, other.Status)

	applied, err := s.HasApplied(ctx, "u1", grantID)
	require.NoError(t, err)
	assert.True(t, applied)

	_, err = s.CreateApplication(ctx, model.Application{UserID: "u1", GrantID: "missing"})
	assert.ErrorIs(t, err, repository.ErrGrantNotFound)
}

func TestGrantStatsSuccessRate(t *testing.T) {
	s := New()
	seedGrants(t, s)
	ctx := context.Background()

	st, err := s.GrantStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.GrantStats{CountriesServed: 2}, st)

	grants, err := s.ListGrants(ctx, model.GrantFilter{})
	require.NoError(t, err)
	var selectedID string
	for i, g := range grants {
		a, err := s.CreateApplication(ctx, model.Application{UserID: "u", GrantID: g.ID})
		require.NoError(t, err)
		if i == 0 {
			selectedID = a.ID
		}
	}
	updated, err := s.UpdateApplicationStatus(ctx, selectedID, model.StatusSelected)
	require.NoError(t, err)
	assert.NotNil(t, updated.SelectedAt)
	assert.NotNil(t, updated.ReviewedAt)

	_, err = s.CreateAward(ctx, model.GrantAward{GrantID: grants[0].ID, UserID: "u", Amount: 2500})
	require.NoError(t, err)

	st, err = s.GrantStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.GrantStats{TotalAwarded: 2500, TotalRecipients: 1, CountriesServed: 2, SuccessRate: 33}, st)
}

func TestReferralExistsMatchesRecipientNames(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.UpsertUser(ctx, model.UpsertUser{ID: "rec", FirstName: strPtr("Jane"), LastName: strPtr("Smith")})
	require.NoError(t, err)
	_, err = s.UpsertUser(ctx, model.UpsertUser{ID: "nobody", FirstName: strPtr("John"), LastName: strPtr("Doe")})
	require.NoError(t, err)

	ok, err := s.ReferralExists(ctx, "jane smith")
	require.NoError(t, err)
	assert.False(t, ok, "users without awards are not referrers")

	_, err = s.CreateAward(ctx, model.GrantAward{UserID: "rec", Amount: 100})
	require.NoError(t, err)

	for name, want := range map[string]bool{
		"Jane Smith": true,
		"  SMITH ":   true,
		"ane Sm":     true,
		"John Doe":   false,
		"   ":        false,
	} {
		ok, err := s.ReferralExists(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, ok, name)
	}
}

func TestSessionsLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.StoreSession(ctx, "u1", "h1", time.Now().Add(time.Hour)))
	require.NoError(t, s.StoreSession(ctx, "u1", "h2", time.Now().Add(time.Hour)))
	require.NoError(t, s.StoreSession(ctx, "u1", "old", time.Now().Add(-time.Minute)))
	assert.Error(t, s.StoreSession(ctx, "u1", "h1", time.Now().Add(time.Hour)))

	_, err := s.RevokeSession(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrSessionInvalid)

	uid, err := s.RevokeSession(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	_, err = s.RevokeSession(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrSessionInvalid)

	require.NoError(t, s.RevokeAllSessions(ctx, "u1"))
	_, err = s.RevokeSession(ctx, "h2")
	assert.ErrorIs(t, err, repository.ErrSessionInvalid)

	_, err = s.RevokeSession(ctx, "unknown")
	assert.ErrorIs(t, err, repository.ErrSessionInvalid)
}

func TestUpsertUserNormalizesEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.UpsertUser(ctx, model.UpsertUser{ID: "sub", Email: strPtr("  Ada@Example.ORG ")})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", *u.Email)

	again, err := s.UpsertUser(ctx, model.UpsertUser{ID: "sub", FirstName: strPtr("Ada")})
	require.NoError(t, err)
	assert.Nil(t, again.Email)
	assert.Equal(t, u.CreatedAt, again.CreatedAt)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
