// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	DBPath          string
	Variant         string // preset name, used when VariantFile is empty
	VariantFile     string
	ChatSessionTTL  time.Duration
	VisitorTTL      time.Duration
	RateLimit       RateLimitConfig
	ConversationLog ConversationLogConfig
	Lead            LeadConfig
}

// RateLimitConfig bounds API requests per visitor.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// LeadConfig selects where accepted leads are delivered. With nothing set
// leads are only acknowledged and logged.
type LeadConfig struct {
	WebhookURL     string
	WebhookTimeout time.Duration
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	NotifyEmail    string
}

// MailEnabled reports whether lead notification mail is configured.
func (l LeadConfig) MailEnabled() bool {
	return l.SMTPHost != "" && l.NotifyEmail != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/softsell.db"),
		Variant:        getEnv("VARIANT", "classic"),
		VariantFile:    getEnv("VARIANT_FILE", ""),
		ChatSessionTTL: getEnvDuration("CHAT_SESSION_TTL", 30*time.Minute),
		VisitorTTL:     getEnvDuration("VISITOR_TTL", 365*24*time.Hour),
		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 10),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:       getEnvBool("CONVERSATION_LOG_ENABLED", false),
			Dir:           getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			GlobalEnabled: getEnvBool("CONVERSATION_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("CONVERSATION_LOG_GLOBAL_PATH", "./data/logs/conversations/all.ndjson"),
			QueueSize:     queueSize,
		},
		Lead: LeadConfig{
			WebhookURL:     getEnv("LEAD_WEBHOOK_URL", ""),
			WebhookTimeout: getEnvDuration("LEAD_WEBHOOK_TIMEOUT", 10*time.Second),
			SMTPHost:       getEnv("SMTP_HOST", ""),
			SMTPPort:       getEnvInt("SMTP_PORT", 587),
			SMTPUsername:   getEnv("SMTP_USERNAME", ""),
			SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:       getEnv("SMTP_FROM", "SoftSell <noreply@softsell.example>"),
			NotifyEmail:    getEnv("LEAD_NOTIFY_EMAIL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ChatSessionTTL <= 0 {
		return fmt.Errorf("CHAT_SESSION_TTL must be > 0")
	}
	if c.VisitorTTL <= 0 {
		return fmt.Errorf("VISITOR_TTL must be > 0")
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	if c.Lead.WebhookURL != "" &&
		!strings.HasPrefix(c.Lead.WebhookURL, "http://") &&
		!strings.HasPrefix(c.Lead.WebhookURL, "https://") {
		return fmt.Errorf("LEAD_WEBHOOK_URL must be an http(s) URL")
	}
	if (c.Lead.SMTPHost == "") != (c.Lead.NotifyEmail == "") {
		return fmt.Errorf("SMTP_HOST and LEAD_NOTIFY_EMAIL must be set together")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
