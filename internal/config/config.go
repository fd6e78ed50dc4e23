// Package config provides configuration loading and validation for the
// API server. It uses koanf to merge environment variables with an
// optional YAML file, environment taking precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty falls back to in-memory stores (development).
	DatabaseURL string `koanf:"database_url"`

	// JWT authentication
	JWTSecret      string `koanf:"jwt_secret"`
	JWTExpiryHours int    `koanf:"jwt_expiry_hours"`

	// SMTP delivery. Empty host disables outbound mail.
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_pass"`

	// Notification routing
	GSOCAlertEmail string `koanf:"gsoc_alert_email"`
	HRAlertEmail   string `koanf:"hr_alert_email"`
	BaseURL        string `koanf:"base_url"`

	// Attachment storage. S3 settings empty means local disk.
	UploadDir         string `koanf:"upload_dir"`
	UploadMaxSizeMB   int    `koanf:"upload_max_size_mb"`
	S3Bucket          string `koanf:"s3_bucket"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3Region          string `koanf:"s3_region"`

	// Rate limiting backend. Empty address keeps the in-memory store.
	RedisAddr string `koanf:"redis_addr"`

	// Bootstrap superadmin, created on startup if missing.
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`

	// CORS allow-list
	CORSOrigins []string `koanf:"cors_origins"`
}

// Configuration validation errors.
var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
	ErrShortJWTSecret   = errors.New("JWT_SECRET must be at least 32 characters")
	ErrInvalidPort      = errors.New("PORT must be between 1 and 65535")
)

// Default values for non-secret configuration.
const (
	DefaultPort            = 3000
	DefaultEnv             = "development"
	DefaultSMTPPort        = 587
	DefaultJWTExpiryHours  = 8
	DefaultUploadDir       = "./uploads"
	DefaultUploadMaxSizeMB = 20
	DefaultGSOCAlertEmail  = "gsoc@gwplsecurity.com"
	DefaultHRAlertEmail    = "hr@gwplsecurity.com"
	DefaultAdminEmail      = "admin@gwplsecurity.com"
	DefaultAdminPassword   = "Admin@Local2025"
)

// Load reads configuration from environment variables and an optional
// YAML file. Environment variables take precedence. Returns the loaded
// config and a slice of validation errors (empty if valid).
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// A malformed integer reports one error and falls back to the
	// default so Validate does not pile on a second complaint.
	port, err := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if err != nil {
		loadErrs = append(loadErrs, err)
		port = DefaultPort
	}
	smtpPort, err := getEnvIntOrDefault("SMTP_PORT", k.Int("smtp_port"), DefaultSMTPPort)
	if err != nil {
		loadErrs = append(loadErrs, err)
		smtpPort = DefaultSMTPPort
	}
	jwtExpiry, err := getEnvIntOrDefault("JWT_EXPIRY_HOURS", k.Int("jwt_expiry_hours"), DefaultJWTExpiryHours)
	if err != nil {
		loadErrs = append(loadErrs, err)
		jwtExpiry = DefaultJWTExpiryHours
	}
	maxUpload, err := getEnvIntOrDefault("UPLOAD_MAX_SIZE_MB", k.Int("upload_max_size_mb"), DefaultUploadMaxSizeMB)
	if err != nil {
		loadErrs = append(loadErrs, err)
		maxUpload = DefaultUploadMaxSizeMB
	}

	cfg := &Config{
		Port: port,
		Env:  getEnvOrDefault("NODE_ENV", k.String("env"), getEnvOrDefault("ENV", "", DefaultEnv)),

		DatabaseURL: getEnvOrKoanf("DATABASE_URL", k, "database_url"),

		JWTSecret:      getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTExpiryHours: jwtExpiry,

		SMTPHost:     getEnvOrKoanf("SMTP_HOST", k, "smtp_host"),
		SMTPPort:     smtpPort,
		SMTPUser:     getEnvOrKoanf("SMTP_USER", k, "smtp_user"),
		SMTPPassword: getEnvOrKoanf("SMTP_PASS", k, "smtp_pass"),

		GSOCAlertEmail: getEnvOrDefault("GSOC_ALERT_EMAIL", k.String("gsoc_alert_email"), DefaultGSOCAlertEmail),
		HRAlertEmail:   getEnvOrDefault("HR_ALERT_EMAIL", k.String("hr_alert_email"), DefaultHRAlertEmail),
		BaseURL:        getEnvOrKoanf("BASE_URL", k, "base_url"),

		UploadDir:         getEnvOrDefault("UPLOAD_DIR", k.String("upload_dir"), DefaultUploadDir),
		UploadMaxSizeMB:   maxUpload,
		S3Bucket:          getEnvOrKoanf("S3_BUCKET", k, "s3_bucket"),
		S3AccessKeyID:     getEnvOrKoanf("S3_ACCESS_KEY_ID", k, "s3_access_key_id"),
		S3SecretAccessKey: getEnvOrKoanf("S3_SECRET_ACCESS_KEY", k, "s3_secret_access_key"),
		S3Endpoint:        getEnvOrKoanf("S3_ENDPOINT", k, "s3_endpoint"),
		S3Region:          getEnvOrKoanf("S3_REGION", k, "s3_region"),

		RedisAddr: getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),

		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", k.String("admin_email"), DefaultAdminEmail),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", k.String("admin_password"), DefaultAdminPassword),

		CORSOrigins: getEnvListOrKoanf("CORS_ORIGINS", k, "cors_origins"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)
	return cfg, errs
}

// Validate checks that required configuration values are present and
// sane. Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, ErrShortJWTSecret)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.UploadMaxSizeMB < 1 {
		errs = append(errs, fmt.Errorf("UPLOAD_MAX_SIZE_MB must be positive (got %d)", c.UploadMaxSizeMB))
	}
	return errs
}

// IsProduction reports whether this process runs with production
// settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LogSummary logs the effective configuration with secrets masked.
func (c *Config) LogSummary(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("port", c.Port),
		slog.String("env", c.Env),
		slog.Bool("database", c.DatabaseURL != ""),
		slog.Bool("smtp", c.SMTPHost != ""),
		slog.Bool("s3", c.S3Bucket != ""),
		slog.Bool("redis", c.RedisAddr != ""),
		slog.String("upload_dir", c.UploadDir),
		slog.Int("upload_max_size_mb", c.UploadMaxSizeMB),
		slog.Int("cors_origins", len(c.CORSOrigins)),
	)
}

// getEnvOrKoanf returns the environment variable value if set,
// otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise the provided koanf value, or the default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set,
// otherwise the koanf value, or the default. Errors when the variable
// is set but not an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvListOrKoanf reads a comma-separated environment variable, or
// the koanf string slice.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
}
