package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Session    SessionConfig
	Security   SecurityConfig
	Storage    StorageConfig
	Server     ServerConfig
	Log        LogConfig
	Metrics    MetricsConfig
	SelfHosted bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string //nolint:gosec // G117: DB connection config
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// SessionConfig controls the opaque session token and its cookie.
type SessionConfig struct {
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// SecurityConfig holds the field encryption key and login protection.
type SecurityConfig struct {
	EncryptionKey   string //nolint:gosec // G117: hex AES-256 key config
	LockoutAttempts int
	LockoutDuration time.Duration
	LoginRPS        float64
	LoginBurst      int
	APIRPS          float64
	APIBurst        int
}

// StorageConfig locates uploaded documents.
type StorageConfig struct {
	Dir            string
	MaxUploadBytes int64
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	WebDir       string
}

// LogConfig selects level, encoding and an optional rotating file.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production the
// encryption key and DB password must be set explicitly.
func Load() (*Config, error) {
	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		errs = append(errs, err)
		return v
	}
	int64Var := func(key string, fallback int64) int64 {
		v, err := getEnvInt64(key, fallback)
		errs = append(errs, err)
		return v
	}
	floatVar := func(key string, fallback float64) float64 {
		v, err := getEnvFloat(key, fallback)
		errs = append(errs, err)
		return v
	}
	boolVar := func(key string, fallback bool) bool {
		v, err := getEnvBool(key, fallback)
		errs = append(errs, err)
		return v
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		errs = append(errs, err)
		return v
	}

	db, err := loadDatabase()
	errs = append(errs, err)

	cfg := &Config{
		Database: db,
		Redis: RedisConfig{
			Addr:     getEnv("HRM_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("HRM_REDIS_PASSWORD", ""),
			DB:       intVar("HRM_REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL:          durationVar("HRM_SESSION_TTL", 8*time.Hour),
			CookieName:   getEnv("HRM_SESSION_COOKIE", "hrm_session"),
			CookieSecure: boolVar("HRM_SESSION_COOKIE_SECURE", true),
		},
		Security: SecurityConfig{
			EncryptionKey:   getEnv("HRM_ENCRYPTION_KEY", ""),
			LockoutAttempts: intVar("HRM_LOCKOUT_ATTEMPTS", 5),
			LockoutDuration: durationVar("HRM_LOCKOUT_DURATION", 15*time.Minute),
			LoginRPS:        floatVar("HRM_LOGIN_RATE_RPS", 1),
			LoginBurst:      intVar("HRM_LOGIN_RATE_BURST", 10),
			APIRPS:          floatVar("HRM_API_RATE_RPS", 50),
			APIBurst:        intVar("HRM_API_RATE_BURST", 100),
		},
		Storage: StorageConfig{
			Dir:            getEnv("HRM_UPLOAD_DIR", "./uploads"),
			MaxUploadBytes: int64Var("HRM_UPLOAD_MAX_BYTES", 10<<20),
		},
		Server: ServerConfig{
			Addr:         getEnv("HRM_SERVER_ADDR", ":8080"),
			ReadTimeout:  durationVar("HRM_SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: durationVar("HRM_SERVER_WRITE_TIMEOUT", 60*time.Second),
			CORSOrigins:  getEnvList("HRM_CORS_ORIGINS", []string{"http://localhost:5173"}),
			WebDir:       getEnv("HRM_WEB_DIR", ""),
		},
		Log: LogConfig{
			Level:      getEnv("HRM_LOG_LEVEL", "info"),
			Format:     getEnv("HRM_LOG_FORMAT", "json"),
			File:       getEnv("HRM_LOG_FILE", ""),
			MaxSizeMB:  intVar("HRM_LOG_FILE_MAX_SIZE_MB", 100),
			MaxBackups: intVar("HRM_LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: intVar("HRM_LOG_FILE_MAX_AGE_DAYS", 28),
		},
		Metrics: MetricsConfig{
			Enabled: boolVar("HRM_METRICS_ENABLED", true),
		},
		SelfHosted: boolVar("HRM_SELF_HOSTED", false),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// Encryption key is required (no insecure default).
	if c.Security.EncryptionKey == "" {
		return errors.New("HRM_ENCRYPTION_KEY is required")
	}
	if key, err := hex.DecodeString(c.Security.EncryptionKey); err != nil || len(key) != 32 {
		return errors.New("HRM_ENCRYPTION_KEY must be 64 hex characters (32 bytes)")
	}

	// DB SSL mode warning for non-self-hosted deployments.
	if c.Database.SSLMode == "disable" && !c.SelfHosted {
		log.Warn().Msg("HRM_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}
	if !c.Session.CookieSecure && !c.SelfHosted {
		log.Warn().Msg("HRM_SESSION_COOKIE_SECURE=false sends the session cookie over plain HTTP")
	}

	// Bounds checks.
	if err := c.Database.validate(); err != nil {
		return err
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("HRM_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Session.CookieName == "" {
		return errors.New("HRM_SESSION_COOKIE must not be empty")
	}
	if c.Security.LockoutAttempts < 1 {
		return fmt.Errorf("HRM_LOCKOUT_ATTEMPTS must be >= 1, got %d", c.Security.LockoutAttempts)
	}
	if c.Security.LockoutDuration <= 0 {
		return fmt.Errorf("HRM_LOCKOUT_DURATION must be positive, got %s", c.Security.LockoutDuration)
	}
	if c.Security.LoginRPS <= 0 || c.Security.APIRPS <= 0 {
		return errors.New("HRM_LOGIN_RATE_RPS and HRM_API_RATE_RPS must be positive")
	}
	if c.Security.LoginBurst < 1 || c.Security.APIBurst < 1 {
		return errors.New("HRM_LOGIN_RATE_BURST and HRM_API_RATE_BURST must be >= 1")
	}
	if c.Storage.Dir == "" {
		return errors.New("HRM_UPLOAD_DIR must not be empty")
	}
	if c.Storage.MaxUploadBytes < 1 {
		return fmt.Errorf("HRM_UPLOAD_MAX_BYTES must be >= 1, got %d", c.Storage.MaxUploadBytes)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("HRM_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HRM_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("HRM_LOG_LEVEL: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("HRM_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// LoadDatabase reads only the PostgreSQL settings, for tools such as the
// migration CLI that need nothing else.
func LoadDatabase() (*DatabaseConfig, error) {
	db, err := loadDatabase()
	if err == nil {
		err = db.validate()
	}
	if err != nil {
		return nil, fmt.Errorf("config.LoadDatabase: %w", err)
	}
	return &db, nil
}

func loadDatabase() (DatabaseConfig, error) {
	port, portErr := getEnvInt("HRM_DB_PORT", 5432)
	maxConns, connsErr := getEnvInt("HRM_DB_MAX_CONNS", 25)
	autoMigrate, migrateErr := getEnvBool("HRM_DB_AUTO_MIGRATE", false)

	return DatabaseConfig{
		Host:        getEnv("HRM_DB_HOST", "localhost"),
		Port:        port,
		User:        getEnv("HRM_DB_USER", "hrm"),
		Password:    getEnv("HRM_DB_PASSWORD", ""),
		DBName:      getEnv("HRM_DB_NAME", "hrm_dev"),
		SSLMode:     getEnv("HRM_DB_SSLMODE", "disable"),
		MaxConns:    maxConns,
		AutoMigrate: autoMigrate,
	}, errors.Join(portErr, connsErr, migrateErr)
}

func (c *DatabaseConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("HRM_DB_PORT must be 1-65535, got %d", c.Port)
	}
	if c.MaxConns < 1 || c.MaxConns > math.MaxInt32 {
		return fmt.Errorf("HRM_DB_MAX_CONNS must be 1-%d, got %d", math.MaxInt32, c.MaxConns)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int64: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
