// Package config provides configuration management and environment variable handling for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database     DatabaseConfig     `json:"database"`
	Server       ServerConfig       `json:"server"`
	Security     SecurityConfig     `json:"security"`
	JWT          JWTConfig          `json:"jwt"`
	SMS          SMSConfig          `json:"sms"`
	Email        EmailConfig        `json:"email"`
	Logging      LoggingConfig      `json:"logging"`
	Metrics      MetricsConfig      `json:"metrics"`
	Cache        CacheConfig        `json:"cache"`
	Encryption   EncryptionConfig   `json:"encryption"`
	Verification VerificationConfig `json:"verification"`
	Captcha      CaptchaConfig      `json:"captcha"`
	Media        MediaConfig        `json:"media"`
	Deployment   DeploymentConfig   `json:"deployment"`
	Admin        AdminConfig        `json:"admin"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
	AutoMigrate     bool          `json:"auto_migrate"`
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	EnableDocs      bool          `json:"enable_docs"`
}

// Address returns host:port for the listener
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type SecurityConfig struct {
	AllowedOrigins      []string `json:"allowed_origins"`
	IPBlacklist         []string `json:"ip_blacklist"`
	BcryptCost          int      `json:"bcrypt_cost"`
	LoginCaptchaEnabled bool     `json:"login_captcha_enabled"`
}

type JWTConfig struct {
	SecretKey       string        `json:"secret_key"`
	PrivateKey      string        `json:"private_key"`  // RSA private key in PEM format
	PublicKey       string        `json:"public_key"`   // RSA public key in PEM format
	UseRSAKeys      bool          `json:"use_rsa_keys"` // Whether to use RSA keys instead of secret key
	AccessTokenTTL  time.Duration `json:"access_token_ttl"`
	RefreshTokenTTL time.Duration `json:"refresh_token_ttl"`
	Issuer          string        `json:"issuer"`
	Audience        string        `json:"audience"`
}

// SMSConfig configures the HTTP SMS gateway. ProviderDomain "mock" logs messages instead of sending them.
type SMSConfig struct {
	ProviderDomain string        `json:"provider_domain"`
	APIKey         string        `json:"api_key"`
	SenderName     string        `json:"sender_name"`
	RetryCount     int           `json:"retry_count"`
	ValidityPeriod int           `json:"validity_period"`
	Timeout        time.Duration `json:"timeout"`
}

// IsMock reports whether SMS delivery is simulated
func (s SMSConfig) IsMock() bool {
	return s.ProviderDomain == "" || s.ProviderDomain == "mock"
}

// EmailConfig configures SMTP delivery. Host "mock" logs messages instead of sending them.
type EmailConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

// IsMock reports whether email delivery is simulated
func (e EmailConfig) IsMock() bool {
	return e.Host == "" || e.Host == "mock"
}

type LoggingConfig struct {
	Output     string `json:"output"` // stdout, file or both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // megabytes
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled             bool          `json:"enabled"`
	RedisURL            string        `json:"redis_url"`
	RedisDB             int           `json:"redis_db"`
	RedisPrefix         string        `json:"redis_prefix"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
}

type EncryptionConfig struct {
	FieldKey string `json:"-"` // 32 bytes, raw or base64
}

type VerificationConfig struct {
	ResendCooldown time.Duration `json:"resend_cooldown"`
}

type CaptchaConfig struct {
	TTL       time.Duration `json:"ttl"`
	Padding   int           `json:"padding"`
	ImageSize int           `json:"image_size"`
}

type MediaConfig struct {
	Root string `json:"root"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// AdminConfig describes the bootstrap superuser created at startup
type AdminConfig struct {
	SuperuserUsername string `json:"superuser_username"`
	SuperuserEmail    string `json:"superuser_email"`
	SuperuserPassword string `json:"-"`
}

// LoadProductionConfig loads configuration from the environment, reading a .env file first if one exists
func LoadProductionConfig() (*ProductionConfig, error) {
	if err := loadEnvFile(getEnvString("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "dti_portal"),
			User:            getEnvString("DB_USER", "dti"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", time.Second),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			EnableDocs:      getEnvBool("SERVER_ENABLE_DOCS", false),
		},
		Security: SecurityConfig{
			AllowedOrigins:      getEnvStringSlice("CORS_ALLOWED_ORIGINS", nil),
			IPBlacklist:         getEnvStringSlice("IP_BLACKLIST", nil),
			BcryptCost:          getEnvInt("BCRYPT_COST", 12),
			LoginCaptchaEnabled: getEnvBool("LOGIN_CAPTCHA_ENABLED", false),
		},
		JWT: JWTConfig{
			SecretKey:       getEnvString("JWT_SECRET_KEY", ""),
			PrivateKey:      getEnvString("JWT_PRIVATE_KEY", ""),
			PublicKey:       getEnvString("JWT_PUBLIC_KEY", ""),
			UseRSAKeys:      getEnvBool("JWT_USE_RSA_KEYS", false),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			Issuer:          getEnvString("JWT_ISSUER", "dti-portal"),
			Audience:        getEnvString("JWT_AUDIENCE", "dti-portal-api"),
		},
		SMS: SMSConfig{
			ProviderDomain: getEnvString("SMS_PROVIDER_DOMAIN", "mock"),
			APIKey:         getEnvString("SMS_API_KEY", ""),
			SenderName:     getEnvString("SMS_SENDER_NAME", "DTI"),
			RetryCount:     getEnvInt("SMS_RETRY_COUNT", 3),
			ValidityPeriod: getEnvInt("SMS_VALIDITY_PERIOD", 300),
			Timeout:        getEnvDuration("SMS_TIMEOUT", 30*time.Second),
		},
		Email: EmailConfig{
			Host:      getEnvString("EMAIL_HOST", "mock"),
			Port:      getEnvInt("EMAIL_PORT", 587),
			Username:  getEnvString("EMAIL_USERNAME", ""),
			Password:  getEnvString("EMAIL_PASSWORD", ""),
			FromEmail: getEnvString("EMAIL_FROM_EMAIL", "no-reply@dti.gov.ph"),
			FromName:  getEnvString("EMAIL_FROM_NAME", "DTI Portal"),
		},
		Logging: LoggingConfig{
			Output:     getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:   getEnvString("LOG_FILE_PATH", "/var/log/dti-portal/app.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:             getEnvBool("CACHE_ENABLED", true),
			RedisURL:            getEnvString("REDIS_URL", "redis://localhost:6379"),
			RedisDB:             getEnvInt("REDIS_DB", 0),
			RedisPrefix:         getEnvString("REDIS_PREFIX", "dti"),
			HealthCheckInterval: getEnvDuration("REDIS_HEALTH_CHECK_INTERVAL", 30*time.Second),
		},
		Encryption: EncryptionConfig{
			FieldKey: getEnvString("FIELD_ENCRYPTION_KEY", ""),
		},
		Verification: VerificationConfig{
			ResendCooldown: getEnvDuration("VERIFICATION_RESEND_COOLDOWN", time.Minute),
		},
		Captcha: CaptchaConfig{
			TTL:       getEnvDuration("CAPTCHA_TTL", 2*time.Minute),
			Padding:   getEnvInt("CAPTCHA_PADDING", 8),
			ImageSize: getEnvInt("CAPTCHA_IMAGE_SIZE", 220),
		},
		Media: MediaConfig{
			Root: getEnvString("MEDIA_ROOT", "./media"),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("APP_VERSION", "1.0.0"),
		},
		Admin: AdminConfig{
			SuperuserUsername: getEnvString("ADMIN_SUPERUSER_USERNAME", ""),
			SuperuserEmail:    getEnvString("ADMIN_SUPERUSER_EMAIL", ""),
			SuperuserPassword: getEnvString("ADMIN_SUPERUSER_PASSWORD", ""),
		},
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads key=value pairs into the environment without overriding variables that are already set
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errs []string

	if cfg.Database.Host == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errs = append(errs, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errs = append(errs, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errs = append(errs, "DB_USER is required")
	}

	if cfg.JWT.UseRSAKeys {
		if cfg.JWT.PrivateKey == "" || cfg.JWT.PublicKey == "" {
			errs = append(errs, "JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required when JWT_USE_RSA_KEYS is set")
		}
	} else if len(cfg.JWT.SecretKey) < 32 {
		errs = append(errs, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, "JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.JWT.RefreshTokenTTL <= cfg.JWT.AccessTokenTTL {
		errs = append(errs, "JWT_REFRESH_TOKEN_TTL must be longer than JWT_ACCESS_TOKEN_TTL")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be positive")
	}

	if cfg.Security.BcryptCost < 10 || cfg.Security.BcryptCost > 14 {
		errs = append(errs, "BCRYPT_COST must be between 10 and 14")
	}
	if slices.Contains(cfg.Security.AllowedOrigins, "*") {
		errs = append(errs, "CORS_ALLOWED_ORIGINS cannot contain * because credentials are allowed")
	}

	if !cfg.SMS.IsMock() && cfg.SMS.APIKey == "" {
		errs = append(errs, "SMS_API_KEY is required for SMS provider")
	}
	if !cfg.Email.IsMock() {
		if cfg.Email.Port <= 0 || cfg.Email.Port > 65535 {
			errs = append(errs, "EMAIL_PORT must be between 1 and 65535")
		}
		if cfg.Email.FromEmail == "" {
			errs = append(errs, "EMAIL_FROM_EMAIL is required for SMTP delivery")
		}
	}

	switch cfg.Logging.Output {
	case "stdout", "file", "both":
	default:
		errs = append(errs, "LOG_OUTPUT must be one of stdout, file, both")
	}
	if cfg.Logging.Output != "stdout" && cfg.Logging.FilePath == "" {
		errs = append(errs, "LOG_FILE_PATH is required when logging to a file")
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		errs = append(errs, "REDIS_URL is required when CACHE_ENABLED is set")
	}

	if cfg.Encryption.FieldKey == "" {
		errs = append(errs, "FIELD_ENCRYPTION_KEY is required")
	}

	if cfg.Verification.ResendCooldown < 0 {
		errs = append(errs, "VERIFICATION_RESEND_COOLDOWN must not be negative")
	}

	if cfg.Security.LoginCaptchaEnabled {
		if cfg.Captcha.TTL <= 0 {
			errs = append(errs, "CAPTCHA_TTL must be positive")
		}
		if cfg.Captcha.ImageSize <= 0 {
			errs = append(errs, "CAPTCHA_IMAGE_SIZE must be positive")
		}
	}

	if cfg.Media.Root == "" {
		errs = append(errs, "MEDIA_ROOT is required")
	}

	if cfg.Admin.SuperuserUsername != "" && cfg.Admin.SuperuserPassword == "" {
		errs = append(errs, "ADMIN_SUPERUSER_PASSWORD is required when ADMIN_SUPERUSER_USERNAME is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
