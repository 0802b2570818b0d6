package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Email provider identifiers accepted in EMAIL_PROVIDER.
const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderStub     = "stub"
)

// Lead store backends accepted in LEAD_STORE.
const (
	LeadStoreMemory   = "memory"
	LeadStorePostgres = "postgres"
	LeadStoreDynamo   = "dynamodb"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	CompanyName   string
	FallbackPhone string

	// Email
	EmailProvider       string
	SendGridAPIKey      string
	EmailFromAddress    string
	EmailFromName       string
	NotificationEmail   string
	MailingListID       string
	SESConfigurationSet string
	EmailTimeout      time.Duration

	// Challenge verification
	RecaptchaSecretKey string
	RecaptchaVerifyURL string
	RecaptchaMinScore  float64
	RecaptchaTimeout   time.Duration

	// Spam gate
	MinDwell          time.Duration
	VelocityLimit     int
	VelocityWindow    time.Duration
	DisposableDomains []string

	// Storage
	LeadStore        string
	DatabaseURL      string
	LeadsTable       string
	SubscribersTable string
	StoreTimeout     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// HTTP
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	MaxBodyBytes       int64
	TrustProxyHeaders  bool

	// Side effects
	TaskWorkers int
	TaskTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CompanyName:   getEnv("COMPANY_NAME", "Nevloh Limited"),
		FallbackPhone: getEnv("FALLBACK_PHONE", "+1 (876) 449-5172"),

		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", EmailProviderSendGrid))),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", "noreply@nevloh.com"),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Nevloh Limited"),
		NotificationEmail:   getEnv("NOTIFICATION_EMAIL", ""),
		MailingListID:       getEnv("MAILING_LIST_ID", ""),
		SESConfigurationSet: getEnv("SES_CONFIGURATION_SET", ""),
		EmailTimeout:      getEnvAsDuration("EMAIL_TIMEOUT", 10*time.Second),

		RecaptchaSecretKey: getEnv("RECAPTCHA_SECRET_KEY", ""),
		RecaptchaVerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
		RecaptchaMinScore:  getEnvAsFloat("RECAPTCHA_MIN_SCORE", 0.5),
		RecaptchaTimeout:   getEnvAsDuration("RECAPTCHA_TIMEOUT", 5*time.Second),

		MinDwell:          getEnvAsDuration("MIN_DWELL", 3*time.Second),
		VelocityLimit:     getEnvAsInt("VELOCITY_LIMIT", 5),
		VelocityWindow:    getEnvAsDuration("VELOCITY_WINDOW", time.Hour),
		DisposableDomains: getEnvAsList("DISPOSABLE_DOMAINS"),

		LeadStore:        strings.ToLower(strings.TrimSpace(getEnv("LEAD_STORE", LeadStoreMemory))),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		LeadsTable:       getEnv("LEADS_TABLE", "leads"),
		SubscribersTable: getEnv("SUBSCRIBERS_TABLE", "newsletter_subscribers"),
		StoreTimeout:     getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 0.2),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 5),
		MaxBodyBytes:       int64(getEnvAsInt("MAX_BODY_BYTES", 64*1024)),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),

		TaskWorkers: getEnvAsInt("TASK_WORKERS", 8),
		TaskTimeout: getEnvAsDuration("TASK_TIMEOUT", 15*time.Second),
	}
}

// EmailConfigured reports whether the selected email provider has the
// credentials and destination it needs to deliver the operations notification.
func (c *Config) EmailConfigured() bool {
	if strings.TrimSpace(c.NotificationEmail) == "" {
		return false
	}
	switch c.EmailProvider {
	case EmailProviderSendGrid:
		return strings.TrimSpace(c.SendGridAPIKey) != ""
	case EmailProviderSES:
		return strings.TrimSpace(c.EmailFromAddress) != ""
	case EmailProviderStub:
		return true
	default:
		return false
	}
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// Validate rejects settings the server cannot start with. Missing email
// credentials are not an error: intake fails closed instead.
func (c *Config) Validate() error {
	var errs []error
	switch c.LeadStore {
	case LeadStoreMemory, LeadStoreDynamo:
	case LeadStorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when LEAD_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEAD_STORE %q", c.LeadStore))
	}
	switch c.EmailProvider {
	case EmailProviderSendGrid, EmailProviderSES:
	case EmailProviderStub:
		if c.IsProduction() {
			errs = append(errs, errors.New("EMAIL_PROVIDER=stub is not allowed when ENV=production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider))
	}
	if c.RecaptchaMinScore < 0 || c.RecaptchaMinScore > 1 {
		errs = append(errs, fmt.Errorf("RECAPTCHA_MIN_SCORE must be within [0,1], got %v", c.RecaptchaMinScore))
	}
	if c.VelocityLimit > 0 && c.VelocityWindow <= 0 {
		errs = append(errs, errors.New("VELOCITY_WINDOW must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
