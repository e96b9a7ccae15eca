package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Ramsey-B/willow/pkg/matching"
)

const (
	PoolSourcePostgres = "postgres"
	PoolSourceDemo     = "demo"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"willow-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	ShutdownTimeoutSeconds        int      `env:"HTTP_SERVER_SHUTDOWN_TIMEOUT_SECONDS" env-default:"15"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL
	DatabaseHost                  string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                  int           `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"willow"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Kafka producer (duplicate events)
	EventsEnabled     bool     `env:"EVENTS_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaTopic        string   `env:"KAFKA_TOPIC" env-default:"memorial-duplicates"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Matching
	MatchThreshold          float64  `env:"MATCH_THRESHOLD" env-default:"0.5"`
	MatchWeightName         float64  `env:"MATCH_WEIGHT_NAME" env-default:"0.4"`
	MatchWeightBirthDate    float64  `env:"MATCH_WEIGHT_BIRTH_DATE" env-default:"0.2"`
	MatchWeightDeathDate    float64  `env:"MATCH_WEIGHT_DEATH_DATE" env-default:"0.2"`
	MatchWeightBirthPlace   float64  `env:"MATCH_WEIGHT_BIRTH_PLACE" env-default:"0.1"`
	MatchWeightRestingPlace float64  `env:"MATCH_WEIGHT_RESTING_PLACE" env-default:"0.1"`
	MatchStringMetric       string   `env:"MATCH_STRING_METRIC" env-default:"jaro_winkler"`
	MatchPlaceNormalizers   []string `env:"MATCH_PLACE_NORMALIZERS" env-default:"nplace"`
	MatchPoolLimit          int      `env:"MATCH_POOL_LIMIT" env-default:"500"`
	MatchPoolSource         string   `env:"MATCH_POOL_SOURCE" env-default:"postgres"`
	ReviewQueueEnabled      bool     `env:"REVIEW_QUEUE_ENABLED" env-default:"true"`

	// Tracing
	TracingEnabled  bool          `env:"TRACING_ENABLED" env-default:"false"`
	TracingEndpoint string        `env:"TRACING_ENDPOINT" env-default:"localhost:4317"`
	TracingProtocol string        `env:"TRACING_PROTOCOL" env-default:"grpc"`
	TracingInsecure bool          `env:"TRACING_INSECURE" env-default:"true"`
	TracingTimeout  time.Duration `env:"TRACING_TIMEOUT" env-default:"10s"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present, and configFile (yaml) is read when
// not empty. Environment variables take precedence over the file.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	if err := registerKeys(v, reflect.TypeOf(Config{})); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "env"
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.MatchPoolSource = strings.ToLower(strings.TrimSpace(cfg.MatchPoolSource))
	for i, name := range cfg.MatchPlaceNormalizers {
		cfg.MatchPlaceNormalizers[i] = strings.TrimSpace(name)
	}

	return cfg, nil
}

// registerKeys declares every env tagged field with its default so viper
// resolves it from the environment during Unmarshal.
func registerKeys(v *viper.Viper, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("env")
		if key == "" {
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
		v.SetDefault(key, field.Tag.Get("env-default"))
	}
	return nil
}

// Weights returns the configured dimension weights
func (c *Config) Weights() matching.Weights {
	return matching.Weights{
		Name:         c.MatchWeightName,
		BirthDate:    c.MatchWeightBirthDate,
		DeathDate:    c.MatchWeightDeathDate,
		BirthPlace:   c.MatchWeightBirthPlace,
		RestingPlace: c.MatchWeightRestingPlace,
	}
}

// SimilarityConfig builds the scorer configuration
func (c *Config) SimilarityConfig() matching.SimilarityConfig {
	cfg := matching.DefaultSimilarityConfig()
	cfg.Weights = c.Weights()
	cfg.Metric = matching.StringMetric(c.MatchStringMetric)
	cfg.PlaceNormalizers = c.MatchPlaceNormalizers
	return cfg
}

// MatchingConfig builds the service configuration
func (c *Config) MatchingConfig() matching.Config {
	return matching.Config{
		Threshold: c.MatchThreshold,
		PoolLimit: c.MatchPoolLimit,
	}
}

// UsesDatabase reports whether the configured pool source needs PostgreSQL
func (c *Config) UsesDatabase() bool {
	return c.MatchPoolSource == PoolSourcePostgres
}

// Validate checks the settings that would otherwise fail deep inside a request
func (c *Config) Validate() error {
	if err := matching.ValidateThreshold(c.MatchThreshold); err != nil {
		return fmt.Errorf("MATCH_THRESHOLD: %w", err)
	}
	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("MATCH_WEIGHT_*: %w", err)
	}
	if _, err := matching.NewSimilarityScorer(c.SimilarityConfig()); err != nil {
		return fmt.Errorf("MATCH_STRING_METRIC/MATCH_PLACE_NORMALIZERS: %w", err)
	}
	if c.MatchPoolLimit <= 0 {
		return fmt.Errorf("MATCH_POOL_LIMIT must be positive, got %d", c.MatchPoolLimit)
	}

	switch c.MatchPoolSource {
	case PoolSourcePostgres, PoolSourceDemo:
	default:
		return fmt.Errorf("MATCH_POOL_SOURCE must be %q or %q, got %q", PoolSourcePostgres, PoolSourceDemo, c.MatchPoolSource)
	}

	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_ENABLED is set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid port, got %d", c.Port)
	}
	return nil
}
