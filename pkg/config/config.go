package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	EmailTransportInProcess = "inprocess"
	EmailTransportRabbitMQ  = "rabbitmq"

	minSecretLength = 32
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	FrontendURL string

	JWT         JWTConfig
	Security    SecurityConfig
	Store       StoreConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Log         LogConfig
	Email       EmailConfig
	Broker      BrokerConfig
	Audit       AuditConfig
	Backup      BackupConfig
	Maintenance MaintenanceConfig
	AI          AIConfig
}

// JWTConfig holds the signing secrets and lifetimes of bearer tokens.
type JWTConfig struct {
	AccessSecret         string
	RefreshSecret        string
	AccessTTL            time.Duration
	RememberMeAccessTTL  time.Duration
	RefreshTTL           time.Duration
	PasswordResetTTL     time.Duration
	EmailVerificationTTL time.Duration
}

// SecurityConfig tunes password hashing and brute-force protection.
type SecurityConfig struct {
	BcryptCost             int
	MaxFailedLoginAttempts int
	LockoutDuration        time.Duration
}

type StoreConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// RateLimitConfig describes the request budgets enforced per client IP.
type RateLimitConfig struct {
	Window            time.Duration
	MaxRequests       int
	AuthWindow        time.Duration
	AuthMaxRequests   int
	ResetWindow       time.Duration
	ResetMaxRequests  int
	VerifyWindow      time.Duration
	VerifyMaxRequests int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EmailConfig selects how notification emails leave the process.
type EmailConfig struct {
	Enabled       bool
	Transport     string
	FromEmail     string
	FromName      string
	MailgunDomain string
	MailgunAPIKey string
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
}

type BrokerConfig struct {
	URL        string
	EmailQueue string
}

// AuditConfig enables the Postgres audit trail when a DSN is set.
type AuditConfig struct {
	DatabaseURL  string
	MaxOpenConns int
	MaxIdleConns int
}

// BackupConfig controls where store snapshots are written.
type BackupConfig struct {
	Dir         string
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// AIConfig selects and tunes the model behind character replies. Without an
// API key replies come from the offline mock.
type AIConfig struct {
	APIKey             string
	Model              string
	MaxTokens          int
	Temperature        float64
	TopP               float64
	MaxContextMessages int
	MaxMessageLength   int
	Timeout            time.Duration
	UseMock            bool
}

type MaintenanceConfig struct {
	CleanupInterval time.Duration
	CleanupOnStart  bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.FrontendURL = strings.TrimRight(v.GetString("FRONTEND_URL"), "/")

	cfg.JWT = JWTConfig{
		AccessSecret:         v.GetString("JWT_SECRET"),
		RefreshSecret:        v.GetString("JWT_REFRESH_SECRET"),
		AccessTTL:            parseDuration(v.GetString("ACCESS_TOKEN_TTL"), 15*time.Minute),
		RememberMeAccessTTL:  parseDuration(v.GetString("REMEMBER_ME_ACCESS_TOKEN_TTL"), 7*24*time.Hour),
		RefreshTTL:           parseDuration(v.GetString("REFRESH_TOKEN_TTL"), 30*24*time.Hour),
		PasswordResetTTL:     parseDuration(v.GetString("PASSWORD_RESET_TTL"), 24*time.Hour),
		EmailVerificationTTL: parseDuration(v.GetString("EMAIL_VERIFICATION_TTL"), 7*24*time.Hour),
	}

	cfg.Security = SecurityConfig{
		BcryptCost:             v.GetInt("BCRYPT_ROUNDS"),
		MaxFailedLoginAttempts: v.GetInt("MAX_FAILED_LOGIN_ATTEMPTS"),
		LockoutDuration:        parseDuration(v.GetString("LOCKOUT_DURATION"), 12*time.Hour),
	}

	cfg.Store = StoreConfig{Path: v.GetString("DB_PATH")}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		CacheTTL: v.GetDuration("CACHE_TTL"),
	}

	cfg.RateLimit = RateLimitConfig{
		Window:            parseDuration(v.GetString("RATE_LIMIT_WINDOW"), 15*time.Minute),
		MaxRequests:       v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		AuthWindow:        parseDuration(v.GetString("AUTH_RATE_LIMIT_WINDOW"), 15*time.Minute),
		AuthMaxRequests:   v.GetInt("AUTH_RATE_LIMIT_MAX_REQUESTS"),
		ResetWindow:       parseDuration(v.GetString("PASSWORD_RESET_RATE_LIMIT_WINDOW"), time.Hour),
		ResetMaxRequests:  v.GetInt("PASSWORD_RESET_RATE_LIMIT_MAX_REQUESTS"),
		VerifyWindow:      parseDuration(v.GetString("EMAIL_VERIFICATION_RATE_LIMIT_WINDOW"), time.Hour),
		VerifyMaxRequests: v.GetInt("EMAIL_VERIFICATION_RATE_LIMIT_MAX_REQUESTS"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("CORS_ORIGIN"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Email = EmailConfig{
		Enabled:       v.GetBool("EMAIL_SERVICE_ENABLED"),
		Transport:     strings.ToLower(v.GetString("EMAIL_TRANSPORT")),
		FromEmail:     v.GetString("FROM_EMAIL"),
		FromName:      v.GetString("FROM_NAME"),
		MailgunDomain: v.GetString("MAILGUN_DOMAIN"),
		MailgunAPIKey: v.GetString("MAILGUN_API_KEY"),
		Workers:       v.GetInt("EMAIL_WORKERS"),
		MaxRetries:    v.GetInt("EMAIL_MAX_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("EMAIL_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Broker = BrokerConfig{
		URL:        v.GetString("RABBITMQ_URL"),
		EmailQueue: v.GetString("RABBITMQ_EMAIL_QUEUE"),
	}

	cfg.Audit = AuditConfig{
		DatabaseURL:  v.GetString("AUDIT_DATABASE_URL"),
		MaxOpenConns: v.GetInt("AUDIT_DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("AUDIT_DB_MAX_IDLE_CONNS"),
	}

	cfg.Backup = BackupConfig{
		Dir:         v.GetString("BACKUP_DIR"),
		S3Bucket:    v.GetString("BACKUP_S3_BUCKET"),
		S3Prefix:    v.GetString("BACKUP_S3_PREFIX"),
		S3Region:    v.GetString("BACKUP_S3_REGION"),
		S3Endpoint:  v.GetString("BACKUP_S3_ENDPOINT"),
		S3AccessKey: v.GetString("BACKUP_S3_ACCESS_KEY"),
		S3SecretKey: v.GetString("BACKUP_S3_SECRET_KEY"),
	}

	cfg.Maintenance = MaintenanceConfig{
		CleanupInterval: parseDuration(v.GetString("TOKEN_CLEANUP_INTERVAL"), time.Hour),
		CleanupOnStart:  v.GetBool("TOKEN_CLEANUP_ON_START"),
	}

	cfg.AI = AIConfig{
		APIKey:             firstNonEmpty(v.GetString("AI_API_KEY"), v.GetString("GEMINI_API_KEY")),
		Model:              v.GetString("AI_MODEL"),
		MaxTokens:          v.GetInt("AI_MAX_TOKENS"),
		Temperature:        v.GetFloat64("AI_TEMPERATURE"),
		TopP:               v.GetFloat64("AI_TOP_P"),
		MaxContextMessages: v.GetInt("AI_MAX_CONTEXT_MESSAGES"),
		MaxMessageLength:   v.GetInt("AI_MAX_MESSAGE_LENGTH"),
		Timeout:            parseDuration(v.GetString("AI_TIMEOUT"), 30*time.Second),
		UseMock:            v.GetBool("USE_MOCK_RESPONSE"),
	}

	return cfg
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var problems []string

	if c.JWT.AccessSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.JWT.AccessSecret) < minSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d characters long", minSecretLength))
	}
	if c.JWT.RefreshSecret == "" {
		problems = append(problems, "JWT_REFRESH_SECRET is required")
	} else if len(c.JWT.RefreshSecret) < minSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_REFRESH_SECRET must be at least %d characters long", minSecretLength))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		problems = append(problems, "JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}
	if c.Security.BcryptCost < 10 || c.Security.BcryptCost > 15 {
		problems = append(problems, "BCRYPT_ROUNDS must be between 10 and 15")
	}
	if c.Security.MaxFailedLoginAttempts <= 0 {
		problems = append(problems, "MAX_FAILED_LOGIN_ATTEMPTS must be positive")
	}
	if c.Store.Path == "" {
		problems = append(problems, "DB_PATH is required")
	}
	switch c.Email.Transport {
	case EmailTransportInProcess:
	case EmailTransportRabbitMQ:
		if c.Broker.URL == "" || c.Broker.EmailQueue == "" {
			problems = append(problems, "RABBITMQ_URL and RABBITMQ_EMAIL_QUEUE are required for the rabbitmq email transport")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown EMAIL_TRANSPORT %q", c.Email.Transport))
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		problems = append(problems, "AI_TEMPERATURE must be between 0 and 2")
	}
	if c.Maintenance.CleanupInterval < 0 {
		problems = append(problems, "TOKEN_CLEANUP_INTERVAL must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MailgunConfigured reports whether real email delivery is possible.
func (c EmailConfig) MailgunConfigured() bool {
	return c.MailgunDomain != "" && c.MailgunAPIKey != ""
}

// Sender renders the From header.
func (c EmailConfig) Sender() string {
	if c.FromName == "" {
		return c.FromEmail
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.FromEmail)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3001)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_REFRESH_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REMEMBER_ME_ACCESS_TOKEN_TTL", "168h")
	v.SetDefault("REFRESH_TOKEN_TTL", "720h")
	v.SetDefault("PASSWORD_RESET_TTL", "24h")
	v.SetDefault("EMAIL_VERIFICATION_TTL", "168h")

	v.SetDefault("BCRYPT_ROUNDS", 12)
	v.SetDefault("MAX_FAILED_LOGIN_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_DURATION", "12h")

	v.SetDefault("DB_PATH", "./data/db.json")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "30s")

	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("AUTH_RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("AUTH_RATE_LIMIT_MAX_REQUESTS", 5)
	v.SetDefault("PASSWORD_RESET_RATE_LIMIT_WINDOW", "1h")
	v.SetDefault("PASSWORD_RESET_RATE_LIMIT_MAX_REQUESTS", 3)
	v.SetDefault("EMAIL_VERIFICATION_RATE_LIMIT_WINDOW", "1h")
	v.SetDefault("EMAIL_VERIFICATION_RATE_LIMIT_MAX_REQUESTS", 5)

	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EMAIL_SERVICE_ENABLED", true)
	v.SetDefault("EMAIL_TRANSPORT", EmailTransportInProcess)
	v.SetDefault("FROM_EMAIL", "noreply@chatzpt.com")
	v.SetDefault("FROM_NAME", "ChatZPT")
	v.SetDefault("MAILGUN_DOMAIN", "")
	v.SetDefault("MAILGUN_API_KEY", "")
	v.SetDefault("EMAIL_WORKERS", 2)
	v.SetDefault("EMAIL_MAX_RETRIES", 3)
	v.SetDefault("EMAIL_RETRY_DELAY", "5s")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EMAIL_QUEUE", "email_jobs")

	v.SetDefault("AUDIT_DATABASE_URL", "")
	v.SetDefault("AUDIT_DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("AUDIT_DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("BACKUP_DIR", "./backups")
	v.SetDefault("BACKUP_S3_BUCKET", "")
	v.SetDefault("BACKUP_S3_PREFIX", "db-backups/")
	v.SetDefault("BACKUP_S3_REGION", "")
	v.SetDefault("BACKUP_S3_ENDPOINT", "")
	v.SetDefault("BACKUP_S3_ACCESS_KEY", "")
	v.SetDefault("BACKUP_S3_SECRET_KEY", "")

	v.SetDefault("TOKEN_CLEANUP_INTERVAL", "1h")
	v.SetDefault("TOKEN_CLEANUP_ON_START", true)

	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("AI_MODEL", "gemini-2.0-flash")
	v.SetDefault("AI_MAX_TOKENS", 1500)
	v.SetDefault("AI_TEMPERATURE", 0.7)
	v.SetDefault("AI_TOP_P", 0.9)
	v.SetDefault("AI_MAX_CONTEXT_MESSAGES", 8)
	v.SetDefault("AI_MAX_MESSAGE_LENGTH", 500)
	v.SetDefault("AI_TIMEOUT", "30s")
	v.SetDefault("USE_MOCK_RESPONSE", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
