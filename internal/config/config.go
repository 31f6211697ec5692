package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rentstock-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	JWT            JWTConfig            `yaml:"jwt"`
	Log            LogConfig            `yaml:"log"`
	SendGrid       SendGridConfig       `yaml:"sendgrid"`
	Firebase       FirebaseConfig       `yaml:"firebase"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Calendar       CalendarConfig       `yaml:"calendar"`
	Security       SecurityConfig       `yaml:"security"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	HTTPPort int    `yaml:"http_port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains operator token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SendGridConfig contains operator email settings. An empty API key disables email.
type SendGridConfig struct {
	APIKey         string   `yaml:"api_key"`
	From           string   `yaml:"from"`
	FromName       string   `yaml:"from_name"`
	OperatorEmails []string `yaml:"operator_emails"`
}

// FirebaseConfig contains push notification settings. An empty topic disables push.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Topic           string `yaml:"topic"`
}

// SchedulerConfig contains cron schedule settings (seconds precision)
type SchedulerConfig struct {
	ReconcileFailedTransfers string `yaml:"reconcile_failed_transfers"`
	IssuePeriodTransfers     string `yaml:"issue_period_transfers"`
}

// ReconciliationConfig tunes the failed-transfer detector and the worker
type ReconciliationConfig struct {
	GracePeriod   time.Duration `yaml:"grace_period"`
	LedgerRetries int           `yaml:"ledger_retries"`
	SlotDuration  time.Duration `yaml:"slot_duration"`
}

// CalendarConfig holds the organization-independent calendar defaults
type CalendarConfig struct {
	Timezone               string                 `yaml:"timezone"`
	DefaultMinimalDuration domain.MinimalDuration `yaml:"default_minimal_duration"`
}

// SecurityConfig holds the bcrypt hash of the lock override password
type SecurityConfig struct {
	UnlockPasswordHash string `yaml:"unlock_password_hash"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// A .env file next to the binary is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML, applies environment overrides and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SENDGRID_FROM"); val != "" {
		c.SendGrid.From = val
	}

	// Firebase
	if val := os.Getenv("FIREBASE_PROJECT_ID"); val != "" {
		c.Firebase.ProjectID = val
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" && c.Firebase.CredentialsFile == "" {
		c.Firebase.CredentialsFile = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.HTTPPort)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Reconciliation
	if val := os.Getenv("GRACE_PERIOD"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Reconciliation.GracePeriod = d
		}
	}

	// Security
	if val := os.Getenv("UNLOCK_PASSWORD_HASH"); val != "" {
		c.Security.UnlockPasswordHash = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 && !IsSecretRef(c.JWT.Secret) {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// SendGrid validation
	if c.SendGrid.APIKey != "" && c.SendGrid.From == "" {
		return fmt.Errorf("sendgrid from address is required when an api key is set")
	}
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "Rentstock"
	}

	// Reconciliation defaults
	if c.Reconciliation.GracePeriod == 0 {
		c.Reconciliation.GracePeriod = 2 * time.Hour
	}
	if c.Reconciliation.GracePeriod < 0 {
		return fmt.Errorf("grace period must not be negative")
	}
	if c.Reconciliation.LedgerRetries == 0 {
		c.Reconciliation.LedgerRetries = 3
	}
	if c.Reconciliation.SlotDuration == 0 {
		c.Reconciliation.SlotDuration = 50 * time.Minute
	}

	// Calendar defaults
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("invalid calendar timezone %q: %w", c.Calendar.Timezone, err)
	}
	if c.Calendar.DefaultMinimalDuration.Value == 0 {
		c.Calendar.DefaultMinimalDuration = domain.MinimalDuration{Value: 1, Unit: domain.DurationUnitDay}
	}
	if !c.Calendar.DefaultMinimalDuration.Unit.Valid() {
		return fmt.Errorf("invalid default minimal duration unit: %q", c.Calendar.DefaultMinimalDuration.Unit)
	}

	// Scheduler defaults
	if c.Scheduler.ReconcileFailedTransfers == "" {
		c.Scheduler.ReconcileFailedTransfers = "0 0 * * * *" // hourly
	}
	if c.Scheduler.IssuePeriodTransfers == "" {
		c.Scheduler.IssuePeriodTransfers = "0 5 0 * * *" // 00:05 daily
	}

	return nil
}

// Location returns the configured calendar timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetHTTPAddress returns the HTTP listen address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GetGRPCAddress returns the gRPC listen address, empty when gRPC is disabled
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
