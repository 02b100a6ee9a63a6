package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"spark_analytics"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string `envconfig:"SPARK_ANALYTICS_ADDRESS" default:":3443"`
	MetricsAddress string `envconfig:"SPARK_ANALYTICS_METRICS_ADDRESS" default:":8080"`
	BaseUrl        string `envconfig:"SPARK_ANALYTICS_BASE_URL" default:"http://localhost:3443"`
	LogLevel       string `envconfig:"SPARK_ANALYTICS_LOG_LEVEL" default:"info"`

	// CacheTTL bounds how long a derived analytics artifact may live in the
	// cache without being touched by invalidation. Seconds.
	CacheTTLSeconds int `envconfig:"SPARK_ANALYTICS_CACHE_TTL_SECONDS" default:"3600"`

	// ProcessIntervalSeconds is the period of the background sweep that
	// picks up jobs with pending event logs.
	ProcessIntervalSeconds int `envconfig:"SPARK_ANALYTICS_PROCESS_INTERVAL_SECONDS" default:"60"`

	// ProcessBatchSize caps how many jobs one sweep enqueues.
	ProcessBatchSize int `envconfig:"SPARK_ANALYTICS_PROCESS_BATCH_SIZE" default:"50"`

	MigrationFolder string `envconfig:"SPARK_ANALYTICS_MIGRATIONS_FOLDER" default:""`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config populated with defaults only, ignoring the
// environment. Used by tests.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type:     "pgsql",
			Hostname: "localhost",
			Port:     5432,
			Name:     "spark_analytics",
			User:     "admin",
			Password: "adminpass",
		},
		Service: &svcConfig{
			Address:                ":3443",
			MetricsAddress:         ":8080",
			BaseUrl:                "http://localhost:3443",
			LogLevel:               "info",
			CacheTTLSeconds:        3600,
			ProcessIntervalSeconds: 60,
			ProcessBatchSize:       50,
		},
	}
}

// NewSqliteDefault returns a config pointing at an in-memory sqlite
// database. Used by store and service tests.
func NewSqliteDefault() *Config {
	cfg := NewDefault()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = ":memory:"
	return cfg
}
