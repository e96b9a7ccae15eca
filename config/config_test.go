package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/willow/pkg/matching"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.PrettyLogs)
	assert.Equal(t, 10*time.Second, cfg.DatabaseConnMaxLifetime)
	assert.Equal(t, "db/pg", cfg.DatabaseMigrationFolderPath)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "memorial-duplicates", cfg.KafkaTopic)
	assert.Equal(t, 0.5, cfg.MatchThreshold)
	assert.Equal(t, 500, cfg.MatchPoolLimit)
	assert.Equal(t, PoolSourcePostgres, cfg.MatchPoolSource)
	assert.True(t, cfg.ReviewQueueEnabled)
	assert.Equal(t, matching.DefaultWeights(), cfg.Weights())
	assert.Equal(t, matching.DefaultSimilarityConfig(), cfg.SimilarityConfig())

	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("PRETTY_LOGS", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("MATCH_THRESHOLD", "0.75")
	t.Setenv("MATCH_POOL_SOURCE", " Demo ")
	t.Setenv("DB_CONN_MAX_LIFETIME", "1m")
	t.Setenv("MATCH_PLACE_NORMALIZERS", "remove_punctuation, nplace")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Port)
	assert.True(t, cfg.PrettyLogs)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 0.75, cfg.MatchThreshold)
	assert.Equal(t, PoolSourceDemo, cfg.MatchPoolSource)
	assert.False(t, cfg.UsesDatabase())
	assert.Equal(t, time.Minute, cfg.DatabaseConnMaxLifetime)
	assert.Equal(t, matching.Config{Threshold: 0.75, PoolLimit: 500}, cfg.MatchingConfig())
	assert.Equal(t, []string{"remove_punctuation", "nplace"}, cfg.SimilarityConfig().PlaceNormalizers)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "willow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("MATCH_POOL_LIMIT: 50\nLOG_LEVEL: debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MatchPoolLimit)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
	}{
		{"threshold above one", func(cfg *Config) { cfg.MatchThreshold = 1.2 }},
		{"weights do not sum", func(cfg *Config) { cfg.MatchWeightName = 0.9 }},
		{"unknown metric", func(cfg *Config) { cfg.MatchStringMetric = "hamming" }},
		{"unknown place normalizer", func(cfg *Config) { cfg.MatchPlaceNormalizers = []string{"nplace", "geocode"} }},
		{"pool limit", func(cfg *Config) { cfg.MatchPoolLimit = 0 }},
		{"pool source", func(cfg *Config) { cfg.MatchPoolSource = "redis" }},
		{"events without brokers", func(cfg *Config) {
			cfg.EventsEnabled = true
			cfg.KafkaBrokers = nil
		}},
		{"port", func(cfg *Config) { cfg.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)

			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
