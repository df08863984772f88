package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Uploads   UploadConfig
	Rental    RentalConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port           int
	ShutdownGrace  time.Duration
	MaxUploadBytes int64
	// AllowedOrigins restricts websocket upgrades. Empty accepts any origin.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL             string
	AutoMigrate     bool
	MigrationsPath  string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// UploadConfig selects where payment proofs go: Cloudinary when
// CloudinaryURL is set, otherwise Dir on local disk.
type UploadConfig struct {
	CloudinaryURL string
	Folder        string
	Dir           string
}

type RentalConfig struct {
	AutoConfirmOnApproval bool
	IdempotencyRetention  time.Duration
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	defaultHTTPPort             = 8080
	defaultShutdownGrace        = 15 * time.Second
	defaultMaxUploadBytes       = 5 << 20
	defaultMigrationsPath       = "migrations"
	defaultAutoMigrate          = true
	defaultMaxConns             = 25
	defaultMinConns             = 5
	defaultMaxConnLifetime      = 5 * time.Minute
	defaultStorageDriver        = DriverPostgres
	defaultSQLitePath           = "cosrent.db"
	defaultTokenTTL             = 24 * time.Hour
	defaultUploadFolder         = "cosrent/proofs"
	defaultUploadDir            = "uploads"
	defaultIdempotencyRetention = 24 * time.Hour
	defaultServiceName          = "cosrent-api"
	defaultServiceVersion       = "0.1.0"
	defaultEnvironment          = "development"
	defaultLogLevel             = "info"
	defaultOTelSampleRate       = 1.0
)

// Load reads configuration from environment variables, applying defaults
// when needed. A .env file in the working directory is loaded first; real
// environment variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}

	storageCfg, err := loadStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("loading storage config: %w", err)
	}

	authCfg, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("loading auth config: %w", err)
	}

	rentalCfg, err := loadRentalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading rental config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:      httpCfg,
		Database:  dbCfg,
		Storage:   storageCfg,
		Auth:      authCfg,
		Uploads:   loadUploadConfig(),
		Rental:    rentalCfg,
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getDurationEnv("API_SHUTDOWN_GRACE", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	maxUpload, err := getIntEnv("API_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return HTTPConfig{}, err
	}
	if maxUpload <= 0 {
		return HTTPConfig{}, fmt.Errorf("invalid API_MAX_UPLOAD_BYTES: must be positive")
	}

	return HTTPConfig{
		Port:           port,
		ShutdownGrace:  shutdownGrace,
		MaxUploadBytes: int64(maxUpload),
		AllowedOrigins: getListEnv("API_ALLOWED_ORIGINS"),
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	maxConns, err := getIntEnv("DB_MAX_CONNS", defaultMaxConns)
	if err != nil {
		return DatabaseConfig{}, err
	}
	minConns, err := getIntEnv("DB_MIN_CONNS", defaultMinConns)
	if err != nil {
		return DatabaseConfig{}, err
	}
	maxLifetime, err := getDurationEnv("DB_MAX_CONN_LIFETIME", defaultMaxConnLifetime)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		URL:             databaseURL,
		AutoMigrate:     getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath:  getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
		MaxConns:        int32(maxConns),
		MinConns:        int32(minConns),
		MaxConnLifetime: maxLifetime,
	}, nil
}

func loadStorageConfig() (StorageConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", defaultStorageDriver))
	switch driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_DRIVER %q", driver)
	}

	return StorageConfig{
		Driver:     driver,
		SQLitePath: getEnvOrDefault("SQLITE_PATH", defaultSQLitePath),
	}, nil
}

func loadAuthConfig() (AuthConfig, error) {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		return AuthConfig{}, errors.New("AUTH_JWT_SECRET is required")
	}

	ttl, err := getDurationEnv("AUTH_TOKEN_TTL", defaultTokenTTL)
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{JWTSecret: secret, TokenTTL: ttl}, nil
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{
		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		Folder:        getEnvOrDefault("UPLOAD_FOLDER", defaultUploadFolder),
		Dir:           getEnvOrDefault("UPLOAD_DIR", defaultUploadDir),
	}
}

func loadRentalConfig() (RentalConfig, error) {
	retention, err := getDurationEnv("IDEMPOTENCY_RETENTION", defaultIdempotencyRetention)
	if err != nil {
		return RentalConfig{}, err
	}

	return RentalConfig{
		AutoConfirmOnApproval: getBoolEnv("RENTAL_AUTO_CONFIRM_ON_APPROVAL", false),
		IdempotencyRetention:  retention,
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logLevel := getEnvOrDefault("LOG_LEVEL", defaultLogLevel)
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	enableTracing := getBoolEnv("OTEL_ENABLE_TRACING", true)
	enableMetrics := getBoolEnv("OTEL_ENABLE_METRICS", true)

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      logLevel,
		OTelEndpoint:  otelEndpoint,
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "cosrent")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbName, sslMode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
