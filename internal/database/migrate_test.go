package database

import (
	"io"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsStartAtVersionOne(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	body, err := io.ReadAll(up)
	require.NoError(t, err)

	schema := string(body)
	for _, table := range []string{"users", "sessions", "countries", "grants", "applications", "contact_messages", "grant_awards"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", "missing table %s", table)
	}
	assert.True(t, strings.Contains(schema, "applications_user_grant_key"), "unique (user_id, grant_id) constraint missing")

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	_ = down.Close()
}
