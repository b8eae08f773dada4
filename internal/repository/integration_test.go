package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/grant-portal/internal/database"
	"github.com/iliyamo/grant-portal/internal/model"
	"github.com/iliyamo/grant-portal/internal/repository"
	"github.com/iliyamo/grant-portal/internal/seed"
	"github.com/iliyamo/grant-portal/internal/service"
)

type always float64

func (a always) Float64() float64 { return float64(a) }

// TestPostgresSubmissionFlow runs against a real database when
// TEST_DATABASE_URL is set.
func TestPostgresSubmissionFlow(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(dsn, database.Options{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db.DB))

	store := repository.NewStore(db)
	log, _ := test.NewNullLogger()

	seeder, err := seed.New(store, log)
	require.NoError(t, err)
	_, err = seeder.Run(ctx)
	require.NoError(t, err)

	again, err := seeder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.Result{}, again)

	grants, err := store.ListGrants(ctx, model.GrantFilter{Category: model.CategoryEducation})
	require.NoError(t, err)
	require.NotEmpty(t, grants)
	for _, g := range grants {
		assert.Equal(t, model.CategoryEducation, g.Category)
	}
	var open model.Grant
	for _, g := range grants {
		if g.Status == model.GrantActive {
			open = g
			break
		}
	}
	if open.ID == "" {
		t.Skip("no active education grant left in the database")
	}

	userID := "it-" + uuid.NewString()
	_, err = store.UpsertUser(ctx, model.UpsertUser{ID: userID})
	require.NoError(t, err)

	q := service.NewQualifier(store, always(0.9), log)
	sub, err := q.Submit(ctx, userID, service.ApplicationInput{
		GrantID:   open.ID,
		FirstName: "Integration",
		LastName:  "Test",
		Email:     "it@example.org",
		Phone:     "+10000000000",
		Address:   "1 Test Street",
		Reason:    "exercise the PostgreSQL store end to end",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusQualified, sub.Application.Status)

	dup := sub.Application
	dup.ID = ""
	_, err = store.CreateApplication(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicateApplication)

	mine, err := store.ListApplicationsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, open.Title, mine[0].GrantTitle)

	stats, err := store.GrantStats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.CountriesServed, int64(1))
}
