package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-motelhub-secret"

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Images   ImagesConfig   `mapstructure:"images"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Client   ClientConfig   `mapstructure:"client"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BodyLimit    string        `mapstructure:"body_limit"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Driver        string        `mapstructure:"driver"`
	Path          string        `mapstructure:"path"`
	MongoURI      string        `mapstructure:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database"`
	MongoTimeout  time.Duration `mapstructure:"mongo_timeout"`
}

// ImagesConfig holds the image hosting credentials and upload limits
type ImagesConfig struct {
	Account       string `mapstructure:"account"`
	APIKey        string `mapstructure:"api_key"`
	APISecret     string `mapstructure:"api_secret"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MaxSingleSize int64  `mapstructure:"max_single_size"`
	MaxBatchSize  int64  `mapstructure:"max_batch_size"`
	MaxFiles      int    `mapstructure:"max_files"`
	MaxWidth      int    `mapstructure:"max_width"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// AuthConfig controls route protection and the bootstrap administrator
type AuthConfig struct {
	Enforce         bool   `mapstructure:"enforce"`
	DefaultUsername string `mapstructure:"default_username"`
	DefaultPassword string `mapstructure:"default_password"`
	DefaultName     string `mapstructure:"default_name"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ClientConfig is used by the CLI commands that talk to a running server
type ClientConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	MirrorPath string        `mapstructure:"mirror_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "MotelHub")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Server defaults
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.body_limit", "60M")

	// Storage defaults
	viper.SetDefault("storage.driver", "file")
	viper.SetDefault("storage.path", "data.json")
	viper.SetDefault("storage.mongo_uri", "mongodb://localhost:27017")
	viper.SetDefault("storage.mongo_database", "motelhub")
	viper.SetDefault("storage.mongo_timeout", "10s")

	// Images defaults
	viper.SetDefault("images.region", "auto")
	viper.SetDefault("images.max_single_size", 2<<20)
	viper.SetDefault("images.max_batch_size", 5<<20)
	viper.SetDefault("images.max_files", 10)
	viper.SetDefault("images.max_width", 1920)

	// JWT defaults
	viper.SetDefault("jwt.secret", defaultJWTSecret)
	viper.SetDefault("jwt.expires_in", "24h")
	viper.SetDefault("jwt.issuer", "motelhub-api")

	// Auth defaults
	viper.SetDefault("auth.enforce", false)
	viper.SetDefault("auth.default_username", "admin")
	viper.SetDefault("auth.default_password", "admin123")
	viper.SetDefault("auth.default_name", "Administrator")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output", "stdout")

	// Security defaults
	viper.SetDefault("security.cors_allowed_origins", "*")
	viper.SetDefault("security.rate_limit_requests", 100)
	viper.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)

	// Client defaults
	viper.SetDefault("client.base_url", "http://localhost:3001/api")
	viper.SetDefault("client.mirror_path", ".motelhub-mirror.json")
	viper.SetDefault("client.timeout", "15s")
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("app.debug", "APP_DEBUG")

	// Server
	viper.BindEnv("server.port", "PORT", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	viper.BindEnv("server.body_limit", "SERVER_BODY_LIMIT")

	// Storage
	viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	viper.BindEnv("storage.path", "DATA_FILE", "STORAGE_PATH")
	viper.BindEnv("storage.mongo_uri", "MONGO_URI")
	viper.BindEnv("storage.mongo_database", "MONGO_DATABASE")
	viper.BindEnv("storage.mongo_timeout", "MONGO_TIMEOUT")

	// Images
	viper.BindEnv("images.account", "IMAGES_ACCOUNT")
	viper.BindEnv("images.api_key", "IMAGES_API_KEY")
	viper.BindEnv("images.api_secret", "IMAGES_API_SECRET")
	viper.BindEnv("images.region", "IMAGES_REGION")
	viper.BindEnv("images.endpoint", "IMAGES_ENDPOINT")
	viper.BindEnv("images.public_base_url", "IMAGES_PUBLIC_BASE_URL")
	viper.BindEnv("images.max_single_size", "IMAGES_MAX_SINGLE_SIZE")
	viper.BindEnv("images.max_batch_size", "IMAGES_MAX_BATCH_SIZE")
	viper.BindEnv("images.max_files", "IMAGES_MAX_FILES")
	viper.BindEnv("images.max_width", "IMAGES_MAX_WIDTH")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expires_in", "JWT_EXPIRES_IN")
	viper.BindEnv("jwt.issuer", "JWT_ISSUER")

	// Auth
	viper.BindEnv("auth.enforce", "AUTH_ENFORCE")
	viper.BindEnv("auth.default_username", "AUTH_DEFAULT_USERNAME")
	viper.BindEnv("auth.default_password", "AUTH_DEFAULT_PASSWORD")
	viper.BindEnv("auth.default_name", "AUTH_DEFAULT_NAME")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")

	// Security
	viper.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")

	// Metrics
	viper.BindEnv("metrics.enabled", "ENABLE_METRICS")

	// Client
	viper.BindEnv("client.base_url", "MOTELHUB_API_URL")
	viper.BindEnv("client.mirror_path", "MOTELHUB_MIRROR")
	viper.BindEnv("client.timeout", "MOTELHUB_TIMEOUT")
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	switch cfg.Storage.Driver {
	case "file":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file driver")
		}
	case "mongo":
		if cfg.Storage.MongoURI == "" || cfg.Storage.MongoDatabase == "" {
			return fmt.Errorf("mongo uri and database are required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Auth.Enforce && (cfg.JWT.Secret == "" || cfg.JWT.Secret == defaultJWTSecret) {
		return fmt.Errorf("JWT secret must be set and should not use default value when auth is enforced")
	}

	if cfg.Images.MaxFiles < 1 || cfg.Images.MaxFiles > 10 {
		return fmt.Errorf("images max_files must be between 1 and 10")
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}

// Configured reports whether credentials for the image host are present
func (cfg *ImagesConfig) Configured() bool {
	return cfg.Account != "" && cfg.APIKey != "" && cfg.APISecret != ""
}

// Address returns the host:port the HTTP server listens on
func (cfg *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
