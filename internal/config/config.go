package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

const (
	HistoryPostgres = "postgres"
	HistorySQLite   = "sqlite"
	HistoryNone     = "none"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Model    ModelConfig
	History  HistoryConfig
	Database DatabaseConfig
	Training TrainingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type ModelConfig struct {
	ArtifactPath string
}

type HistoryConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders a postgres connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// TrainingConfig drives the offline trainer.
type TrainingConfig struct {
	DataPath       string
	Samples        int
	Seed           uint64
	TestFraction   float64
	Classifier     string
	Trees          int
	Rounds         int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
	MaxFeatures    int
}

// Load reads configuration from the environment and the optional CONFIG_FILE.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom is Load on a caller-supplied viper instance, so command-line flags
// bound to v take precedence over the environment.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// Defaults
	setDefault(v, "SERVER_HOST", "0.0.0.0")
	setDefault(v, "SERVER_PORT", 8080)
	setDefault(v, "LOGGER_LEVEL", "info")
	setDefault(v, "LOGGER_FORMAT", "json")
	setDefault(v, "MODEL_ARTIFACT_PATH", "rabies_model.json")
	setDefault(v, "HISTORY_DRIVER", HistorySQLite)
	setDefault(v, "HISTORY_SQLITE_PATH", "data/predictions.db")
	setDefault(v, "DATABASE_HOST", "localhost")
	setDefault(v, "DATABASE_PORT", 5432)
	setDefault(v, "DATABASE_USER", "postgres")
	setDefault(v, "DATABASE_PASSWORD", "")
	setDefault(v, "DATABASE_NAME", "rabies")
	setDefault(v, "DATABASE_SSLMODE", "disable")
	setDefault(v, "DATABASE_MAX_OPEN_CONNS", 10)
	setDefault(v, "DATABASE_MAX_IDLE_CONNS", 2)
	setDefault(v, "DATABASE_CONN_MAX_LIFETIME", "30m")
	setDefault(v, "TRAINING_DATA_PATH", "rabies_dataset.csv")
	setDefault(v, "TRAINING_SAMPLES", 3000)
	setDefault(v, "TRAINING_SEED", 42)
	setDefault(v, "TRAINING_TEST_FRACTION", 0.2)
	setDefault(v, "TRAINING_CLASSIFIER", "random_forest")
	setDefault(v, "TRAINING_TREES", 100)
	setDefault(v, "TRAINING_ROUNDS", 100)
	setDefault(v, "TRAINING_LEARNING_RATE", 0.1)
	setDefault(v, "TRAINING_MAX_DEPTH", 0)
	setDefault(v, "TRAINING_MIN_SAMPLES_LEAF", 1)
	setDefault(v, "TRAINING_MAX_FEATURES", 0)

	// Env
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	lifetime, err := time.ParseDuration(v.GetString("DATABASE_CONN_MAX_LIFETIME"))
	if err != nil {
		lifetime = 30 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Model: ModelConfig{
			ArtifactPath: v.GetString("MODEL_ARTIFACT_PATH"),
		},
		History: HistoryConfig{
			Driver:     v.GetString("HISTORY_DRIVER"),
			SQLitePath: v.GetString("HISTORY_SQLITE_PATH"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: lifetime,
		},
		Training: TrainingConfig{
			DataPath:       v.GetString("TRAINING_DATA_PATH"),
			Samples:        v.GetInt("TRAINING_SAMPLES"),
			Seed:           v.GetUint64("TRAINING_SEED"),
			TestFraction:   v.GetFloat64("TRAINING_TEST_FRACTION"),
			Classifier:     v.GetString("TRAINING_CLASSIFIER"),
			Trees:          v.GetInt("TRAINING_TREES"),
			Rounds:         v.GetInt("TRAINING_ROUNDS"),
			LearningRate:   v.GetFloat64("TRAINING_LEARNING_RATE"),
			MaxDepth:       v.GetInt("TRAINING_MAX_DEPTH"),
			MinSamplesLeaf: v.GetInt("TRAINING_MIN_SAMPLES_LEAF"),
			MaxFeatures:    v.GetInt("TRAINING_MAX_FEATURES"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefault leaves keys that already resolve, such as bound flag defaults, alone.
func setDefault(v *viper.Viper, key string, value any) {
	if v.Get(key) == nil {
		v.SetDefault(key, value)
	}
}

func (c *Config) validate() error {
	switch c.History.Driver {
	case HistoryPostgres, HistorySQLite, HistoryNone:
	default:
		return fmt.Errorf("invalid HISTORY_DRIVER %q: want postgres, sqlite or none", c.History.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.Model.ArtifactPath == "" {
		return fmt.Errorf("MODEL_ARTIFACT_PATH is required")
	}
	if c.Training.TestFraction < 0 || c.Training.TestFraction >= 1 {
		return fmt.Errorf("invalid TRAINING_TEST_FRACTION %v: want [0, 1)", c.Training.TestFraction)
	}
	if c.Training.Samples <= 0 {
		return fmt.Errorf("invalid TRAINING_SAMPLES %d", c.Training.Samples)
	}
	return nil
}
