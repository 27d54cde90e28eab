package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/oneboxhq/onebox-backend/internal/models"
	"github.com/oneboxhq/onebox-backend/internal/validator"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server port
	APIPort int

	// IMAP accounts to aggregate
	Accounts []models.Account

	// IMAP behaviour
	IMAPFolder   string
	BackfillDays int
	FreshStart   bool

	// Downstream services
	ClassifierURL   string
	SlackWebhookURL string
	WebhookURL      string

	// Logging
	LogLevel string

	// Security
	AllowedOrigins string
	AppEnv         string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// IMAP_USER_n / IMAP_PASSWORD_n / IMAP_HOST_n / IMAP_PORT_n / IMAP_TLS_n
	accounts, err := loadAccounts()
	if err != nil {
		return nil, err
	}
	cfg.Accounts = accounts

	// IMAP_FOLDER (default: INBOX)
	cfg.IMAPFolder = os.Getenv("IMAP_FOLDER")
	if cfg.IMAPFolder == "" {
		cfg.IMAPFolder = "INBOX"
	}

	// BACKFILL_DAYS (default: 30)
	backfillDays := os.Getenv("BACKFILL_DAYS")
	if backfillDays == "" {
		cfg.BackfillDays = 30
	} else {
		days, err := strconv.Atoi(backfillDays)
		if err != nil {
			return nil, fmt.Errorf("BACKFILL_DAYS must be a valid integer: %w", err)
		}
		cfg.BackfillDays = days
	}

	// FRESH_START (default: false)
	freshStart := os.Getenv("FRESH_START")
	if freshStart == "" {
		cfg.FreshStart = false
	} else {
		enabled, err := strconv.ParseBool(freshStart)
		if err != nil {
			return nil, fmt.Errorf("FRESH_START must be a valid boolean: %w", err)
		}
		cfg.FreshStart = enabled
	}

	// Downstream services (all optional)
	cfg.ClassifierURL = os.Getenv("CLASSIFIER_URL")
	cfg.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	return cfg, nil
}

// loadAccounts collects numbered IMAP account variables starting at
// IMAP_USER_1 and stopping at the first gap.
func loadAccounts() ([]models.Account, error) {
	var accounts []models.Account

	for n := 1; ; n++ {
		user := os.Getenv(fmt.Sprintf("IMAP_USER_%d", n))
		if user == "" {
			break
		}

		password := os.Getenv(fmt.Sprintf("IMAP_PASSWORD_%d", n))
		if password == "" {
			return nil, fmt.Errorf("IMAP_PASSWORD_%d is required for account %s", n, user)
		}

		host := os.Getenv(fmt.Sprintf("IMAP_HOST_%d", n))
		if host == "" {
			return nil, fmt.Errorf("IMAP_HOST_%d is required for account %s", n, user)
		}

		account := models.Account{
			User:     user,
			Password: password,
			Host:     host,
			Port:     993,
			TLS:      true,
		}

		if portVar := os.Getenv(fmt.Sprintf("IMAP_PORT_%d", n)); portVar != "" {
			port, err := strconv.Atoi(portVar)
			if err != nil {
				return nil, fmt.Errorf("IMAP_PORT_%d must be a valid integer: %w", n, err)
			}
			account.Port = port
		}

		if tlsVar := os.Getenv(fmt.Sprintf("IMAP_TLS_%d", n)); tlsVar != "" {
			tls, err := strconv.ParseBool(tlsVar)
			if err != nil {
				return nil, fmt.Errorf("IMAP_TLS_%d must be a valid boolean: %w", n, err)
			}
			account.TLS = tls
		}

		accounts = append(accounts, account)
	}

	return accounts, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one IMAP account must be configured")
	}
	for i, account := range c.Accounts {
		if err := validator.ValidateEmail(account.User); err != nil {
			return fmt.Errorf("IMAP_USER_%d %q: %w", i+1, account.User, err)
		}
		if err := validator.ValidateHost(account.Host); err != nil {
			return fmt.Errorf("IMAP_HOST_%d %q: %w", i+1, account.Host, err)
		}
		if account.Port <= 0 || account.Port > 65535 {
			return fmt.Errorf("IMAP_PORT_%d must be between 1 and 65535", i+1)
		}
	}
	if c.BackfillDays <= 0 {
		return fmt.Errorf("BackfillDays must be positive")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	for i, account := range c.Accounts {
		if !account.TLS {
			return fmt.Errorf("IMAP_TLS_%d=false is not allowed in production", i+1)
		}
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.Int("accounts", len(c.Accounts)),
		slog.String("imap_folder", c.IMAPFolder),
		slog.Int("backfill_days", c.BackfillDays),
		slog.Bool("fresh_start", c.FreshStart),
		slog.Bool("classifier_set", c.ClassifierURL != ""),
		slog.Bool("slack_webhook_set", c.SlackWebhookURL != ""),
		slog.Bool("webhook_set", c.WebhookURL != ""),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
	)
}
