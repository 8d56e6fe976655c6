package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port                  string        `mapstructure:"PORT"`
	DBConn                string        `mapstructure:"DB_CONN"`
	StoreDriver           string        `mapstructure:"STORE_DRIVER"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`
	JWTSecret             string        `mapstructure:"JWT_SECRET"`
	JWTExpiration         time.Duration `mapstructure:"JWT_EXPIRATION"`
	ImportFile            string        `mapstructure:"IMPORT_FILE"`
	ImportBatchSize       int           `mapstructure:"IMPORT_BATCH_SIZE"`
	ImportRetrySchedule   string        `mapstructure:"IMPORT_RETRY_SCHEDULE"`
	AdminEmail            string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword         string        `mapstructure:"ADMIN_PASSWORD"`
	AMQPURL               string        `mapstructure:"AMQP_URL"`
	AccountEventsExchange string        `mapstructure:"ACCOUNT_EVENTS_EXCHANGE"`
	SMTPHost              string        `mapstructure:"SMTP_HOST"`
	SMTPPort              string        `mapstructure:"SMTP_PORT"`
	SMTPUsername          string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword          string        `mapstructure:"SMTP_PASSWORD"`
	SenderEmail           string        `mapstructure:"SENDER_EMAIL"`
	ImportReportRecipient string        `mapstructure:"IMPORT_REPORT_RECIPIENT"`
}

var defaults = map[string]any{
	"PORT":                    "8080",
	"DB_CONN":                 "host=localhost port=5436 user=test password=test dbname=accounts sslmode=disable",
	"STORE_DRIVER":            DriverPostgres,
	"LOG_LEVEL":               "INFO",
	"JWT_SECRET":              "secret",
	"JWT_EXPIRATION":          "24h",
	"IMPORT_FILE":             "accounts.txt",
	"IMPORT_BATCH_SIZE":       10,
	"IMPORT_RETRY_SCHEDULE":   "",
	"ADMIN_EMAIL":             "admin@admin.com",
	"ADMIN_PASSWORD":          "password",
	"AMQP_URL":                "",
	"ACCOUNT_EVENTS_EXCHANGE": "account_events",
	"SMTP_HOST":               "",
	"SMTP_PORT":               "587",
	"SMTP_USERNAME":           "",
	"SMTP_PASSWORD":           "",
	"SENDER_EMAIL":            "",
	"IMPORT_REPORT_RECIPIENT": "",
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DBConn == "" {
			return fmt.Errorf("DB_CONN is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive")
	}
	if c.ImportBatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive")
	}
	if c.ImportRetrySchedule != "" {
		if _, err := cron.ParseStandard(c.ImportRetrySchedule); err != nil {
			return fmt.Errorf("IMPORT_RETRY_SCHEDULE is invalid: %w", err)
		}
	}
	return nil
}

// MailEnabled reports whether import reports can be delivered
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SenderEmail != "" && c.ImportReportRecipient != ""
}
