package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"shareit/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite3"
	DriverMemory = "memory"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Backup        BackupConfig        `yaml:"backup"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Pagination    PaginationConfig    `yaml:"pagination"`
	Exports       ExportConfig        `yaml:"exports"`
	Seed          SeedConfig          `yaml:"seed"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type APIConfig struct {
	HTTP          APIHTTPConfig          `yaml:"http"`
	GRPC          APIGRPCConfig          `yaml:"grpc"`
	Auth          APIAuthConfig          `yaml:"auth"`
	RateLimit     APIRateLimitConfig     `yaml:"rate_limit"`
	UserRateLimit APIUserRateLimitConfig `yaml:"user_rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

// APIAuthConfig guards the API with static keys. The user identity itself
// still comes from the X-Sharer-User-Id header.
type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// APIUserRateLimitConfig is a fixed-window quota per X-Sharer-User-Id.
type APIUserRateLimitConfig struct {
	Enabled  bool `yaml:"enabled"`
	Requests int  `yaml:"requests"`
	Window   int  `yaml:"window"` // seconds
}

type PaginationConfig struct {
	DefaultSize int `yaml:"default_size"`
}

type ExportConfig struct {
	SheetName string `yaml:"sheet_name"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// NotificationsConfig controls webhook delivery of booking and comment events.
type NotificationsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	WebhookURL   string `yaml:"webhook_url"`
	Timeout      int    `yaml:"timeout"` // seconds
	MaxRetries   int    `yaml:"max_retries"`
	InitialDelay string `yaml:"initial_delay"`
	MaxDelay     string `yaml:"max_delay"`
	QueueSize    int    `yaml:"queue_size"`
}

// SeedConfig lists users and items inserted into an empty store at startup.
// Item owner_id refers to the position-independent user id given here.
type SeedConfig struct {
	Users []models.User `yaml:"users"`
	Items []models.Item `yaml:"items"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Backup.Enabled && c.Database.Driver != DriverSQLite {
		return errors.New("backup requires the sqlite3 driver")
	}

	tls := c.API.GRPC.TLS
	if tls.Enabled && (tls.CertFile == "" || tls.KeyFile == "") {
		return errors.New("grpc tls requires cert_file and key_file")
	}

	if c.API.UserRateLimit.Enabled && c.API.UserRateLimit.Requests <= 0 {
		return errors.New("user_rate_limit.requests must be positive")
	}

	if c.Notifications.Enabled && c.Notifications.WebhookURL == "" {
		return errors.New("notifications require webhook_url")
	}

	return ValidateSeed(c.Seed)
}

// ValidateSeed checks seed ids and references.
func ValidateSeed(seed SeedConfig) error {
	userIDs := make(map[int64]bool)
	emails := make(map[string]bool)
	for _, user := range seed.Users {
		if user.ID == 0 {
			return fmt.Errorf("user '%s' has invalid ID 0", user.Name)
		}
		if userIDs[user.ID] {
			return fmt.Errorf("duplicate user ID found: %d", user.ID)
		}
		email := strings.ToLower(user.Email)
		if emails[email] {
			return fmt.Errorf("duplicate user email found: %s", user.Email)
		}
		userIDs[user.ID] = true
		emails[email] = true
	}

	itemIDs := make(map[int64]bool)
	for _, item := range seed.Items {
		if item.ID == 0 {
			return fmt.Errorf("item '%s' has invalid ID 0", item.Name)
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate item ID found: %d", item.ID)
		}
		if !userIDs[item.OwnerID] {
			return fmt.Errorf("item %d refers to unknown owner %d", item.ID, item.OwnerID)
		}
		itemIDs[item.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shareit"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 9091
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.UserRateLimit.Requests == 0 {
		c.API.UserRateLimit.Requests = models.UserRateLimitRequests
	}
	if c.API.UserRateLimit.Window == 0 {
		c.API.UserRateLimit.Window = models.UserRateLimitWindow
	}
	if c.Pagination.DefaultSize == 0 {
		c.Pagination.DefaultSize = models.DefaultPageSize
	}
	if c.Exports.SheetName == "" {
		c.Exports.SheetName = "Bookings"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
	if c.Notifications.Timeout == 0 {
		c.Notifications.Timeout = 5
	}
	if c.Notifications.QueueSize == 0 {
		c.Notifications.QueueSize = 128
	}
}
