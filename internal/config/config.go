package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// Record store: memory, mongo or sqlite
	StoreBackend string
	MongoURI     string
	MongoDbName  string
	SqlitePath   string

	// Redis (mock mail sink and background tasks). Empty address disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret            string
	JwtTTL               time.Duration
	CaptchaTokenTTL      time.Duration
	OperatorPasswordHash string

	// Server
	ApiPort        string
	ServiceApiPort string
	AllowedOrigin  string

	// Cloudflare
	CloudflareTurnstileSiteKey   string
	CloudflareTurnstileSecretKey string
	CloudflareSiteVerifyURL      string

	// Email
	MailProvider        string // resend or smtp
	ResendAPIKey        string
	SmtpHost            string
	SmtpPort            int
	SmtpUsername        string
	SmtpPassword        string
	MailFromAddress     string
	OperatorEmail       string
	ContactEmail        string
	MailSendTimeout     time.Duration
	OperatorSendRetries int
	OperatorRetryDelay  time.Duration
	MockServices        bool
	LogEmailsPath       string
	TemplateLocale      string

	// Storage pricing, whole Chilean pesos
	HourlyRate              int64
	HourlyCap               int64
	DailyRate               int64
	WeeklyRate              int64
	LongStayDays            int
	LongStayDiscountPercent int64

	// Attachments
	AttachmentMaxSizeMB int
	ImageMaxDimension   int

	// AWS S3 (attachment archive). Empty bucket disables archiving.
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string

	// RabbitMQ. Empty URL disables event publication.
	RabbitURL      string
	RabbitExchange string

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitSoftBucketSize   int
	RateLimitSoftRefillRate   int // tokens per second
	RateLimitHardBucketSize   int
	RateLimitHardRefillRate   int // tokens per second
	IntakeRateLimitBucketSize int
	IntakeRateLimitRefillRate int
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return v, nil
	}

	getInt64 := func(key, defaultValue string) (int64, error) {
		v, err := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return v, nil
	}

	getSeconds := func(key, defaultValue string) (time.Duration, error) {
		v, err := getInt64(key, defaultValue)
		if err != nil {
			return 0, err
		}
		return time.Duration(v) * time.Second, nil
	}

	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", "memory"))
	switch cfg.StoreBackend {
	case "memory", "sqlite":
	case "mongo":
		cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", cfg.StoreBackend)
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = getEnv("MONGO_URI", "")
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "andesgo")
	cfg.SqlitePath = getEnv("SQLITE_PATH", "data/requests.db")

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.OperatorPasswordHash = getEnv("OPERATOR_PASSWORD_HASH", "")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.AllowedOrigin = getEnv("ALLOWED_ORIGIN", "*")
	cfg.CloudflareTurnstileSiteKey = getEnv("CLOUDFLARE_TURNSTILE_SITE_KEY", "")
	cfg.CloudflareTurnstileSecretKey = getEnv("CLOUDFLARE_TURNSTILE_SECRET_KEY", "")
	cfg.CloudflareSiteVerifyURL = getEnv("CLOUDFLARE_SITEVERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify")

	cfg.MailProvider = strings.ToLower(getEnv("MAIL_PROVIDER", "smtp"))
	if cfg.MailProvider != "smtp" && cfg.MailProvider != "resend" {
		return nil, fmt.Errorf("invalid MAIL_PROVIDER: %q", cfg.MailProvider)
	}
	cfg.ResendAPIKey = getEnv("RESEND_API_KEY", "")
	if cfg.MailProvider == "resend" && cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("missing required environment variable: RESEND_API_KEY")
	}
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.MailFromAddress = getEnv("MAIL_FROM_ADDRESS", "AndesGO <noreply@andesgo.cl>")
	cfg.OperatorEmail, err = getRequiredEnv("OPERATOR_EMAIL")
	if err != nil {
		return nil, err
	}
	cfg.ContactEmail = getEnv("CONTACT_EMAIL", "contacto@andesgo.com")
	cfg.MockServices = getEnv("MOCK_SERVICES", "") == "true"
	cfg.LogEmailsPath = getEnv("LOG_EMAILS", "")
	cfg.TemplateLocale = getEnv("TEMPLATE_LOCALE", "es-CL")

	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "request_accepted")

	cfg.AppName = getEnv("APP_NAME", "AndesGO")

	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return nil, err
	}
	if cfg.JwtTTL, err = getSeconds("JWT_TTL_SECONDS", "3600"); err != nil {
		return nil, err
	}
	if cfg.CaptchaTokenTTL, err = getSeconds("CAPTCHA_TOKEN_TTL", "1200"); err != nil {
		return nil, err
	}
	if cfg.SmtpPort, err = getInt("SMTP_PORT", "587"); err != nil {
		return nil, err
	}
	if cfg.MailSendTimeout, err = getSeconds("MAIL_SEND_TIMEOUT_SECONDS", "10"); err != nil {
		return nil, err
	}
	if cfg.OperatorSendRetries, err = getInt("MAIL_OPERATOR_RETRIES", "2"); err != nil {
		return nil, err
	}
	if cfg.OperatorSendRetries < 0 {
		return nil, fmt.Errorf("invalid MAIL_OPERATOR_RETRIES: must not be negative")
	}
	retryDelayMs, err := getInt64("MAIL_OPERATOR_RETRY_DELAY_MS", "500")
	if err != nil {
		return nil, err
	}
	cfg.OperatorRetryDelay = time.Duration(retryDelayMs) * time.Millisecond

	// Pricing
	if cfg.HourlyRate, err = getInt64("PRICE_HOURLY_RATE", "1000"); err != nil {
		return nil, err
	}
	if cfg.HourlyCap, err = getInt64("PRICE_HOURLY_CAP", "5000"); err != nil {
		return nil, err
	}
	if cfg.DailyRate, err = getInt64("PRICE_DAILY_RATE", "5000"); err != nil {
		return nil, err
	}
	if cfg.WeeklyRate, err = getInt64("PRICE_WEEKLY_RATE", "28000"); err != nil {
		return nil, err
	}
	if cfg.LongStayDays, err = getInt("PRICE_LONG_STAY_DAYS", "7"); err != nil {
		return nil, err
	}
	if cfg.LongStayDiscountPercent, err = getInt64("PRICE_LONG_STAY_DISCOUNT_PERCENT", "20"); err != nil {
		return nil, err
	}
	if cfg.LongStayDiscountPercent < 0 || cfg.LongStayDiscountPercent > 100 {
		return nil, fmt.Errorf("invalid PRICE_LONG_STAY_DISCOUNT_PERCENT: %d", cfg.LongStayDiscountPercent)
	}

	if cfg.AttachmentMaxSizeMB, err = getInt("ATTACHMENT_MAX_SIZE_MB", "5"); err != nil {
		return nil, err
	}
	if cfg.ImageMaxDimension, err = getInt("IMAGE_MAX_DIMENSION", "2048"); err != nil {
		return nil, err
	}

	// Rate Limiting
	if cfg.RateLimitSoftBucketSize, err = getInt("RATE_LIMIT_SOFT_BUCKET_SIZE", "10"); err != nil {
		return nil, err
	}
	if cfg.RateLimitSoftRefillRate, err = getInt("RATE_LIMIT_SOFT_REFILL_RATE", "2"); err != nil {
		return nil, err
	}
	if cfg.RateLimitHardBucketSize, err = getInt("RATE_LIMIT_HARD_BUCKET_SIZE", "30"); err != nil {
		return nil, err
	}
	if cfg.RateLimitHardRefillRate, err = getInt("RATE_LIMIT_HARD_REFILL_RATE", "8"); err != nil {
		return nil, err
	}
	if cfg.IntakeRateLimitBucketSize, err = getInt("INTAKE_RATE_LIMIT_BUCKET_SIZE", "3"); err != nil {
		return nil, err
	}
	if cfg.IntakeRateLimitRefillRate, err = getInt("INTAKE_RATE_LIMIT_REFILL_RATE", "1"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AttachmentMaxBytes is the decoded size limit for a single uploaded attachment.
func (c *Config) AttachmentMaxBytes() int {
	return c.AttachmentMaxSizeMB * 1024 * 1024
}
