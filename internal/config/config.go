package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	clowder "github.com/redhatinsights/app-common-go/pkg/api/v1"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/clients/routescan"
	"routescan-exporter/internal/core/domain"
)

// Defaults for the export parameters; running with an empty environment
// exports this contract.
const (
	DefaultAddress      = "0x1D74317d760f2c72A94386f50E8D10f2C902b899"
	DefaultChainID      = "57073"
	DefaultDateFrom     = "2024-12-28T13:51:06.000Z"
	DefaultLimit        = 63956
	DefaultCSVSeparator = ","
)

// Supported run history backends
const (
	DatabaseNone     = "none"
	DatabaseMemory   = "memory"
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Routescan export service client settings
	ExportService ExportServiceConfig `json:"export_service"`

	// Export holds what gets exported
	Export ExportConfig `json:"export"`

	// OutputDir is where artifacts are written
	OutputDir string `json:"output_dir"`

	// Server configuration for schedule mode (with Clowder integration)
	Server ServerConfig `json:"server"`

	// Database configuration for the run history (uses Clowder when available)
	Database DatabaseConfig `json:"database"`

	// Kafka configuration for completion notifications (uses Clowder when available)
	Kafka KafkaConfig `json:"kafka"`

	// Metrics configuration (uses Clowder when available)
	Metrics MetricsConfig `json:"metrics"`

	// Schedule is the cron expression used by schedule mode
	Schedule string `json:"schedule"`

	LogLevel string `json:"log_level"`
}

// ExportServiceConfig contains export service client settings
type ExportServiceConfig struct {
	// BaseURL for the export service API
	BaseURL string `json:"base_url"`

	// Timeout for creation and status requests
	Timeout time.Duration `json:"timeout"`

	// DownloadTimeout bounds the archive transfer
	DownloadTimeout time.Duration `json:"download_timeout"`

	// PollMaxRetries is the maximum number of times to poll for export completion
	PollMaxRetries int `json:"poll_max_retries"`

	// PollInterval is the duration to wait between polling attempts
	PollInterval time.Duration `json:"poll_interval"`
}

// ExportConfig contains the parameters of the export job
type ExportConfig struct {
	Address      string    `json:"address"`
	ChainID      string    `json:"chain_id"`
	DateFrom     time.Time `json:"date_from"`
	DateTo       time.Time `json:"date_to"`
	Limit        int       `json:"limit"`
	CSVSeparator string    `json:"csv_separator"`
}

// Params converts the configuration into export parameters
func (e ExportConfig) Params() domain.ExportParams {
	return domain.ExportParams{
		Address:      e.Address,
		ChainID:      e.ChainID,
		DateFrom:     e.DateFrom,
		DateTo:       e.DateTo,
		Limit:        e.Limit,
		CSVSeparator: e.CSVSeparator,
	}
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Port is the API server port
	Port int `json:"port"`

	// Host is the server bind address
	Host string `json:"host"`

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration `json:"write_timeout"`

	// ShutdownTimeout for graceful shutdown
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	// Type of run history backend (none, memory, sqlite, postgres)
	Type string `json:"type"`

	// Path to SQLite database file
	Path string `json:"path"`

	// Host for postgres
	Host string `json:"host"`

	// Port for postgres
	Port int `json:"port"`

	// Name of the database
	Name string `json:"name"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication
	Password string `json:"password"`

	// SSLMode for database connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConnections for connection pooling
	MaxOpenConnections int `json:"max_open_connections"`

	// MaxIdleConnections for connection pooling
	MaxIdleConnections int `json:"max_idle_connections"`

	// ConnectionMaxLifetime for connection recycling
	ConnectionMaxLifetime time.Duration `json:"connection_max_lifetime"`
}

// ConnectionString returns a PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Name, d.SSLMode)
}

// KafkaConfig contains Kafka connection settings
type KafkaConfig struct {
	// Enabled indicates if Kafka notifications are active
	Enabled bool `json:"enabled"`

	// Brokers is a list of Kafka broker addresses
	Brokers []string `json:"brokers"`

	// Topic for export completion messages
	Topic string `json:"topic"`

	// ClientID for Kafka producer identification
	ClientID string `json:"client_id"`

	// Timeout for Kafka operations
	Timeout time.Duration `json:"timeout"`

	// Retries for failed message sends
	Retries int `json:"retries"`

	// SASL configuration for authentication
	SASL SASLConfig `json:"sasl"`
}

// SASLConfig contains SASL authentication settings
type SASLConfig struct {
	// Enabled indicates if SASL is active
	Enabled bool `json:"enabled"`

	// Mechanism (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512)
	Mechanism string `json:"mechanism"`

	Username string `json:"username"`
	Password string `json:"password"`
}

// MetricsConfig contains metrics and monitoring settings
type MetricsConfig struct {
	// Port for metrics endpoint in schedule mode
	Port int `json:"port"`

	// Path for metrics endpoint
	Path string `json:"path"`

	// Enabled indicates if metrics are active
	Enabled bool `json:"enabled"`

	// PushgatewayURL receives metrics at the end of a one-shot run
	PushgatewayURL string `json:"pushgateway_url"`

	// JobName groups pushed metrics
	JobName string `json:"job_name"`
}

// LoadConfig loads configuration from app-common-go (Clowder) with fallback to environment variables
func LoadConfig() (*Config, error) {
	var clowderConfig *clowder.AppConfig

	if clowder.IsClowderEnabled() {
		logrus.Info("Clowder configuration detected")

		clowderConfig = clowder.LoadedConfig
		if clowderConfig == nil {
			return nil, fmt.Errorf("failed to load Clowder configuration (nil)")
		}
	}

	config := &Config{}

	config.ExportService = loadExportServiceConfig()

	export, err := loadExportConfig()
	if err != nil {
		return nil, err
	}
	config.Export = export

	config.OutputDir = getEnv("OUTPUT_DIR", ".")
	config.Server = loadServerConfig(clowderConfig)
	config.Database = loadDatabaseConfig(clowderConfig)
	config.Kafka = loadKafkaConfig(clowderConfig)
	config.Metrics = loadMetricsConfig(clowderConfig)
	config.Schedule = getEnv("EXPORT_SCHEDULE", "@daily")
	config.LogLevel = getEnv("LOG_LEVEL", "info")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadExportServiceConfig loads export service configuration from environment
func loadExportServiceConfig() ExportServiceConfig {
	return ExportServiceConfig{
		BaseURL:         getEnv("ROUTESCAN_EXPORT_URL", routescan.DefaultBaseURL),
		Timeout:         getEnvAsDuration("ROUTESCAN_TIMEOUT", 30*time.Second),
		DownloadTimeout: getEnvAsDuration("ROUTESCAN_DOWNLOAD_TIMEOUT", 300*time.Second),
		PollMaxRetries:  getEnvAsInt("ROUTESCAN_POLL_MAX_RETRIES", 60),
		PollInterval:    getEnvAsDuration("ROUTESCAN_POLL_INTERVAL", 5*time.Second),
	}
}

// loadExportConfig loads the export parameters from environment
func loadExportConfig() (ExportConfig, error) {
	dateFrom, err := ParseExportTime(getEnv("EXPORT_DATE_FROM", DefaultDateFrom))
	if err != nil {
		return ExportConfig{}, fmt.Errorf("invalid EXPORT_DATE_FROM: %w", err)
	}

	var dateTo time.Time
	if value := os.Getenv("EXPORT_DATE_TO"); value != "" {
		dateTo, err = ParseExportTime(value)
		if err != nil {
			return ExportConfig{}, fmt.Errorf("invalid EXPORT_DATE_TO: %w", err)
		}
	}

	return ExportConfig{
		Address:      getEnv("EXPORT_ADDRESS", DefaultAddress),
		ChainID:      getEnv("EXPORT_CHAIN_ID", DefaultChainID),
		DateFrom:     dateFrom,
		DateTo:       dateTo,
		Limit:        getEnvAsInt("EXPORT_LIMIT", DefaultLimit),
		CSVSeparator: getEnv("EXPORT_CSV_SEPARATOR", DefaultCSVSeparator),
	}, nil
}

// ParseExportTime accepts RFC3339 timestamps with or without fractional seconds
func ParseExportTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// loadServerConfig loads server configuration with Clowder integration
func loadServerConfig(clowderConfig *clowder.AppConfig) ServerConfig {
	port := getEnvAsInt("PORT", 8000)

	if clowderConfig != nil && clowderConfig.PublicPort != nil {
		port = *clowderConfig.PublicPort
	}

	return ServerConfig{
		Port:            port,
		Host:            getEnv("HOST", "0.0.0.0"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// loadDatabaseConfig loads database configuration with Clowder integration
func loadDatabaseConfig(clowderConfig *clowder.AppConfig) DatabaseConfig {
	dbType := getEnv("DB_TYPE", DatabaseNone)
	host := getEnv("DB_HOST", "localhost")
	port := getEnvAsInt("DB_PORT", 5432)
	name := getEnv("DB_NAME", "routescan_exporter")
	username := getEnv("DB_USERNAME", "")
	password := getEnv("DB_PASSWORD", "")
	sslMode := getEnv("DB_SSL_MODE", "disable")

	if clowderConfig != nil && clowderConfig.Database != nil {
		dbType = DatabasePostgres // Clowder always provides PostgreSQL
		host = clowderConfig.Database.Hostname
		port = clowderConfig.Database.Port
		name = clowderConfig.Database.Name
		username = clowderConfig.Database.Username
		password = clowderConfig.Database.Password
		sslMode = clowderConfig.Database.SslMode
	}

	return DatabaseConfig{
		Type:                  dbType,
		Path:                  getEnv("DB_PATH", "./export_runs.db"),
		Host:                  host,
		Port:                  port,
		Name:                  name,
		Username:              username,
		Password:              password,
		SSLMode:               sslMode,
		MaxOpenConnections:    getEnvAsInt("DB_MAX_OPEN_CONNECTIONS", 5),
		MaxIdleConnections:    getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 2),
		ConnectionMaxLifetime: getEnvAsDuration("DB_CONNECTION_MAX_LIFETIME", 5*time.Minute),
	}
}

// loadKafkaConfig loads Kafka configuration with Clowder integration
func loadKafkaConfig(clowderConfig *clowder.AppConfig) KafkaConfig {
	brokers := getEnvAsStringSlice("KAFKA_BROKERS", []string{})
	topic := getEnv("KAFKA_TOPIC", "routescan.exports.completed")
	enabled := len(brokers) > 0

	saslConfig := SASLConfig{
		Enabled:   getEnvAsBool("KAFKA_SASL_ENABLED", false),
		Mechanism: getEnv("KAFKA_SASL_MECHANISM", "PLAIN"),
		Username:  getEnv("KAFKA_SASL_USERNAME", ""),
		Password:  getEnv("KAFKA_SASL_PASSWORD", ""),
	}

	if clowderConfig != nil && clowderConfig.Kafka != nil {
		enabled = true
		brokers = []string{}

		for _, broker := range clowderConfig.Kafka.Brokers {
			if broker.Port != nil {
				brokers = append(brokers, fmt.Sprintf("%s:%d", broker.Hostname, *broker.Port))
			} else {
				brokers = append(brokers, broker.Hostname)
			}
		}

		for _, topicConfig := range clowderConfig.Kafka.Topics {
			if topicConfig.RequestedName == topic || topicConfig.Name == topic {
				topic = topicConfig.Name
				break
			}
		}

		if len(clowderConfig.Kafka.Brokers) > 0 && clowderConfig.Kafka.Brokers[0].Sasl != nil {
			sasl := clowderConfig.Kafka.Brokers[0].Sasl
			saslConfig.Enabled = true
			if sasl.SaslMechanism != nil {
				saslConfig.Mechanism = *sasl.SaslMechanism
			}
			if sasl.Username != nil {
				saslConfig.Username = *sasl.Username
			}
			if sasl.Password != nil {
				saslConfig.Password = *sasl.Password
			}
		}
	}

	return KafkaConfig{
		Enabled:  enabled,
		Brokers:  brokers,
		Topic:    topic,
		ClientID: getEnv("KAFKA_CLIENT_ID", "routescan-exporter"),
		Timeout:  getEnvAsDuration("KAFKA_TIMEOUT", 30*time.Second),
		Retries:  getEnvAsInt("KAFKA_RETRIES", 5),
		SASL:     saslConfig,
	}
}

// loadMetricsConfig loads metrics configuration with Clowder integration
func loadMetricsConfig(clowderConfig *clowder.AppConfig) MetricsConfig {
	port := getEnvAsInt("METRICS_PORT", 9000)
	path := getEnv("METRICS_PATH", "/metrics")

	if clowderConfig != nil {
		port = clowderConfig.MetricsPort
		path = clowderConfig.MetricsPath
	}

	return MetricsConfig{
		Port:           port,
		Path:           path,
		Enabled:        getEnvAsBool("METRICS_ENABLED", true),
		PushgatewayURL: getEnv("METRICS_PUSHGATEWAY_URL", ""),
		JobName:        getEnv("METRICS_JOB_NAME", "routescan_exporter"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ExportService.BaseURL == "" {
		return fmt.Errorf("export service base URL is required")
	}
	if c.ExportService.PollMaxRetries < 1 {
		return fmt.Errorf("poll max retries must be at least 1, got %d", c.ExportService.PollMaxRetries)
	}
	if c.ExportService.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}

	// All parameters must be present; their format is checked by the remote service
	if c.Export.Address == "" {
		return fmt.Errorf("export address is required")
	}
	if c.Export.ChainID == "" {
		return fmt.Errorf("export chain ID is required")
	}
	if c.Export.Limit < 1 {
		return fmt.Errorf("export limit must be positive, got %d", c.Export.Limit)
	}
	if c.Export.CSVSeparator == "" {
		return fmt.Errorf("export CSV separator is required")
	}
	if !c.Export.DateTo.IsZero() && c.Export.DateTo.Before(c.Export.DateFrom) {
		return fmt.Errorf("export date range is inverted: %s > %s",
			domain.FormatExportTime(c.Export.DateFrom), domain.FormatExportTime(c.Export.DateTo))
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}

	switch c.Database.Type {
	case DatabaseNone, DatabaseMemory:
	case DatabaseSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for SQLite")
		}
	case DatabasePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for %s", c.Database.Type)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
