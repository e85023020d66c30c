package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Learning LearningConfig `mapstructure:"learning"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	GRPCPort    int      `mapstructure:"grpc_port"`
	HTTPPort    int      `mapstructure:"http_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LearningConfig holds the categorisation policy.
type LearningConfig struct {
	Timezone        string  `mapstructure:"timezone"`
	DailyBatchSize  int     `mapstructure:"daily_batch_size"`
	QuizBatchSize   int     `mapstructure:"quiz_batch_size"`
	WeakMinAttempts int     `mapstructure:"weak_min_attempts"`
	WeakMaxAccuracy float64 `mapstructure:"weak_max_accuracy"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.grpc_port", 9090)
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vocdrill")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.log_sql", false)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("learning.timezone", "Asia/Tokyo")
	viper.SetDefault("learning.daily_batch_size", 10)
	viper.SetDefault("learning.quiz_batch_size", 10)
	viper.SetDefault("learning.weak_min_attempts", 3)
	viper.SetDefault("learning.weak_max_accuracy", 0.6)

	viper.SetDefault("auth.secret", "change-me")
	viper.SetDefault("auth.issuer", "vocdrill")
	viper.SetDefault("auth.token_ttl", 30*24*time.Hour)
}

// Validate rejects policies the engine cannot run with.
func (c *Config) Validate() error {
	l := c.Learning
	if l.DailyBatchSize <= 0 || l.QuizBatchSize <= 0 {
		return fmt.Errorf("learning batch sizes must be positive")
	}
	if l.WeakMinAttempts < 1 {
		return fmt.Errorf("learning.weak_min_attempts must be at least 1")
	}
	if l.WeakMaxAccuracy < 0 || l.WeakMaxAccuracy > 1 {
		return fmt.Errorf("learning.weak_max_accuracy must be within [0,1]")
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return fmt.Errorf("auth.secret must not be empty")
	}
	return nil
}

// DatabaseDriver returns the normalised sql driver name.
func (c *Config) DatabaseDriver() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "", "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql", "pgx":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

// DatabaseURL returns the connection string for the configured driver.
func (c *Config) DatabaseURL() (string, error) {
	driver, err := c.DatabaseDriver()
	if err != nil {
		return "", err
	}
	if c.Database.DSN != "" {
		return c.Database.DSN, nil
	}
	if driver == "sqlite3" {
		return "file:vocdrill.db?_fk=1&_busy_timeout=5000", nil
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	), nil
}
