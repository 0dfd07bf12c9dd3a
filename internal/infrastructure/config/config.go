package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the LeafLens gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	API      APIConfig      `yaml:"api"`
	Auth     AuthConfig     `yaml:"auth"`
	MongoDB  MongoDBConfig  `yaml:"mongodb"`
	Database DatabaseConfig `yaml:"database"`
	Audit    AuditConfig    `yaml:"audit"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig contains deployment-specific information.
type SiteConfig struct {
	Name string `yaml:"name"`
	// DashboardURL is where the root route redirects browsers.
	DashboardURL string `yaml:"dashboard_url"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// AuthConfig contains the shared-secret header settings.
type AuthConfig struct {
	// Header is the request header carrying the shared secret.
	Header string `yaml:"header"`
	// Secret is compared verbatim against the header value.
	Secret string `yaml:"secret"`
}

// MongoDBConfig contains document store connection settings.
type MongoDBConfig struct {
	URL string `yaml:"url"`
	// ConnectTimeout bounds connection establishment per request (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`
	// QueryTimeout bounds a single query (seconds).
	QueryTimeout int `yaml:"query_timeout"`
}

// DatabaseConfig contains SQLite settings for the audit trail.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// AuditConfig controls recording of failed authorisation attempts.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
	// Buffer is the capacity of the asynchronous write queue.
	Buffer int `yaml:"buffer"`
}

// MQTTConfig contains MQTT broker settings for audit event publication.
type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB settings for query telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern LEAFLENS_SECTION_KEY. The bare
// PORT, SERV and MONGODB_URL variables are honoured as fallbacks so that
// existing deployments keep working.
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for environment only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// FileExists reports whether a config file is present at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name:         "LeafLens",
			DashboardURL: "https://rk-iot.netlify.app/",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 30,
				Idle:  60,
			},
		},
		Auth: AuthConfig{
			Header: "serv",
		},
		MongoDB: MongoDBConfig{
			ConnectTimeout: 10,
			QueryTimeout:   15,
		},
		Database: DatabaseConfig{
			Path:        "./data/leaflens.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Audit: AuditConfig{
			Enabled: true,
			Buffer:  256,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "leaflens-gateway",
			},
			QoS:         1,
			TopicPrefix: "leaflens",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Legacy deployment variables first so LEAFLENS_* wins when both are set.
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("SERV"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("MONGODB_URL"); v != "" {
		cfg.MongoDB.URL = v
	}

	// API
	if v := os.Getenv("LEAFLENS_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("LEAFLENS_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Auth - the shared secret should always come from the environment
	if v := os.Getenv("LEAFLENS_AUTH_HEADER"); v != "" {
		cfg.Auth.Header = v
	}
	if v := os.Getenv("LEAFLENS_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}

	// MongoDB
	if v := os.Getenv("LEAFLENS_MONGODB_URL"); v != "" {
		cfg.MongoDB.URL = v
	}

	// Database
	if v := os.Getenv("LEAFLENS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("LEAFLENS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LEAFLENS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LEAFLENS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("LEAFLENS_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("LEAFLENS_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("LEAFLENS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if strings.TrimSpace(c.Auth.Header) == "" {
		errs = append(errs, "auth.header is required")
	}
	if c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required (set LEAFLENS_AUTH_SECRET or SERV)")
	}

	if c.MongoDB.URL == "" {
		errs = append(errs, "mongodb.url is required (set LEAFLENS_MONGODB_URL or MONGODB_URL)")
	}
	if c.MongoDB.ConnectTimeout <= 0 {
		errs = append(errs, "mongodb.connect_timeout must be positive")
	}
	if c.MongoDB.QueryTimeout <= 0 {
		errs = append(errs, "mongodb.query_timeout must be positive")
	}

	if c.Audit.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when audit is enabled")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (a APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (a APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (a APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}

// GetConnectTimeout returns the document store connect timeout as a Duration.
func (m MongoDBConfig) GetConnectTimeout() time.Duration {
	return time.Duration(m.ConnectTimeout) * time.Second
}

// GetQueryTimeout returns the document store query timeout as a Duration.
func (m MongoDBConfig) GetQueryTimeout() time.Duration {
	return time.Duration(m.QueryTimeout) * time.Second
}
