// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// NovaConfig provides settings for the Amazon Nova text-generation service.
type NovaConfig interface {
	GetNovaAPIKey() string
	GetNovaBaseURL() string
	GetNovaModel() string
	GetNovaModelPro() string
	GetNovaTimeout() time.Duration
	IsNovaEnabled() bool
}

// ZohoConfig provides settings for the Zoho CRM integration.
type ZohoConfig interface {
	GetZohoClientID() string
	GetZohoClientSecret() string
	GetZohoRefreshToken() string
	GetZohoAccountsURL() string
	GetZohoCRMAPIURL() string
	IsZohoEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSalesNotifyEmail() string
}

// SchedulerConfig provides settings for the asynq background worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// QualificationConfig provides tunables for the qualification engine.
type QualificationConfig interface {
	GetMaxQualificationTurns() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	JWTAccessSecret  string
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	AppBaseURL       string
	NovaAPIKey       string
	NovaBaseURL      string
	NovaModel        string
	NovaModelPro     string
	NovaTimeout      time.Duration
	ZohoClientID     string
	ZohoClientSecret string
	ZohoRefreshToken string
	ZohoAccountsURL  string
	ZohoCRMAPIURL    string
	EmailEnabled     bool
	EmailFromName    string
	EmailFromAddress string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SalesNotifyEmail string
	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	MaxTurns         int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// NovaConfig implementation
func (c *Config) GetNovaAPIKey() string         { return c.NovaAPIKey }
func (c *Config) GetNovaBaseURL() string        { return c.NovaBaseURL }
func (c *Config) GetNovaModel() string          { return c.NovaModel }
func (c *Config) GetNovaModelPro() string       { return c.NovaModelPro }
func (c *Config) GetNovaTimeout() time.Duration { return c.NovaTimeout }
func (c *Config) IsNovaEnabled() bool           { return c.NovaAPIKey != "" }

// ZohoConfig implementation
func (c *Config) GetZohoClientID() string     { return c.ZohoClientID }
func (c *Config) GetZohoClientSecret() string { return c.ZohoClientSecret }
func (c *Config) GetZohoRefreshToken() string { return c.ZohoRefreshToken }
func (c *Config) GetZohoAccountsURL() string  { return c.ZohoAccountsURL }
func (c *Config) GetZohoCRMAPIURL() string    { return c.ZohoCRMAPIURL }
func (c *Config) IsZohoEnabled() bool {
	return c.ZohoClientID != "" && c.ZohoClientSecret != "" && c.ZohoRefreshToken != ""
}

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetSalesNotifyEmail() string { return c.SalesNotifyEmail }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// QualificationConfig implementation
func (c *Config) GetMaxQualificationTurns() int { return c.MaxTurns }

// Load reads configuration from the environment, with .env as a fallback
// for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:     strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		CORSAllowCreds:   strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:4200"),
		NovaAPIKey:       getEnv("NOVA_API_KEY", ""),
		NovaBaseURL:      getEnv("NOVA_BASE_URL", "https://api.nova.amazon.com/v1"),
		NovaModel:        getEnv("NOVA_MODEL", "nova-2-lite-v1"),
		NovaModelPro:     getEnv("NOVA_MODEL_PRO", "nova-2-pro-v1"),
		NovaTimeout:      mustDuration(getEnv("NOVA_TIMEOUT", "30s")),
		ZohoClientID:     getEnv("ZOHO_CLIENT_ID", ""),
		ZohoClientSecret: getEnv("ZOHO_CLIENT_SECRET", ""),
		ZohoRefreshToken: strings.Trim(getEnv("ZOHO_REFRESH_TOKEN", ""), `'"`),
		ZohoAccountsURL:  getEnv("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.com"),
		ZohoCRMAPIURL:    getEnv("ZOHO_CRM_API_URL", "https://www.zohoapis.com/crm/v3"),
		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "LeadQual"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SalesNotifyEmail: getEnv("SALES_NOTIFY_EMAIL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE_NAME", "leadqual"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10"), 10),
		MaxTurns:         mustInt(getEnv("QUALIFICATION_MAX_TURNS", "6"), 6),
	}

	if cfg.Env != "development" && cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func mustInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
