package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "willow", Password: "secret", Name: "willow"}

	assert.Equal(t, "host=db port=5432 user=willow password=secret dbname=willow sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestOnConflictDoUpdate(t *testing.T) {
	got := OnConflictDoUpdate(
		[]string{"source_memorial_id", "candidate_memorial_id"},
		"score = "+Excluded("score"),
	)

	assert.Equal(t, " ON CONFLICT (source_memorial_id, candidate_memorial_id) DO UPDATE SET score = EXCLUDED.score", got)
}

func TestNewSelectBuilder_PostgresPlaceholders(t *testing.T) {
	sb := NewSelectBuilder()
	sb.Select("id").From("memorials").Where(sb.Equal("canonical_hash", "abc"))

	query, args := sb.Build()

	assert.Equal(t, "SELECT id FROM memorials WHERE canonical_hash = $1", query)
	assert.Equal(t, []any{"abc"}, args)
}

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_memorials.up.sql",
		"000001_create_memorials.down.sql",
		"000002_create_duplicate_candidates.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	version, err := LatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	t.Run("empty folder", func(t *testing.T) {
		_, err := LatestVersion(t.TempDir())
		assert.Error(t, err)
	})
}

func TestLatestVersion_ShippedMigrations(t *testing.T) {
	version, err := LatestVersion(filepath.Join("..", "..", "db", "pg"))
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}
