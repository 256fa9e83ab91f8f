package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=seva port=5432 sslmode=disable"

type Config struct {
	Env         string
	HTTPPort    string
	DatabaseDSN string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	JWTSecret  string
	SessionTTL time.Duration
	// Host-level secret for bootstrapping super admins. Empty disables provisioning.
	SetupKey string

	CORSOrigins string

	DocumentStoragePath string
	MaxUploadBytes      int

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PaymentTestMode   bool

	LogLevel        string
	LogFile         string
	ShutdownTimeout time.Duration
}

// Production reports whether cookies should be marked Secure.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads environment variables and .env (if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:         getEnv("DATABASE_DSN", defaultDSN),
		DBMaxOpenConns:      getInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:      getInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime:   getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SessionTTL:          getDuration("SESSION_TTL", 7*24*time.Hour),
		SetupKey:            os.Getenv("SUPER_ADMIN_SETUP_KEY"),
		CORSOrigins:         getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		DocumentStoragePath: getEnv("DOCUMENT_STORAGE_PATH", "./documents"),
		MaxUploadBytes:      getInt("MAX_UPLOAD_BYTES", 10*1024*1024),
		RazorpayKeyID:       os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:   os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:     getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		PaymentTestMode:     getBool("PAYMENT_TEST_MODE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFile:             os.Getenv("LOG_FILE"),
		ShutdownTimeout:     getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the settings the server cannot run safely without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Production() && c.DatabaseDSN == defaultDSN {
		return errors.New("DATABASE_DSN must be set in production")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Plain integers are seconds.
		if secs, convErr := strconv.Atoi(v); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return def
	}
	return d
}
