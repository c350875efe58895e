package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Groq         GroqConfig         `mapstructure:"groq"`
	Email        EmailConfig        `mapstructure:"email"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// MaxBodyBytes caps the size of inbound JSON request bodies
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds cross-origin configuration.
// The browser client is served from a separate origin, so exactly one
// allowed origin is configurable.
type CORSConfig struct {
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// RateLimitingConfig holds the fixed-window rate limiter settings applied to /api
type RateLimitingConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// RedisConfig holds optional Redis configuration. When Addr is empty the
// rate limiter falls back to in-process counters.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis backend is configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// GroqConfig holds the language-model collaborator configuration.
// Model, temperature and max tokens are deployment constants, not tunable
// per request.
type GroqConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Configured reports whether the Groq API key is present
func (c GroqConfig) Configured() bool {
	return c.APIKey != ""
}

// EmailConfig holds mail transport configuration
type EmailConfig struct {
	// Provider selects the mail transport: "smtp" or "gmail"
	Provider string `mapstructure:"provider"`
	// SenderName is the display name used when the request carries none
	SenderName string           `mapstructure:"sender_name"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Gmail      GmailEmailConfig `mapstructure:"gmail"`
}

// SMTPConfig holds SMTP transport configuration
type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

// Addr returns the SMTP server address
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Configured reports whether SMTP credentials are present
func (c SMTPConfig) Configured() bool {
	return c.User != "" && c.Pass != ""
}

// GmailEmailConfig holds Gmail API transport configuration
type GmailEmailConfig struct {
	// CredentialsJSON is the service account credentials JSON content
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID for OAuth2 token-based auth (alternative to service account)
	ClientID string `mapstructure:"client_id"`
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string `mapstructure:"refresh_token"`
	// SenderAddress is the "From" email address
	SenderAddress string `mapstructure:"sender_address"`
}

// Configured reports whether Gmail credentials are present
func (c GmailEmailConfig) Configured() bool {
	if c.CredentialsJSON != "" && c.SenderAddress != "" {
		return true
	}
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != "" && c.SenderAddress != ""
}

// Configured reports whether the selected mail transport has credentials
func (c EmailConfig) Configured() bool {
	if c.Provider == "gmail" {
		return c.Gmail.Configured()
	}
	return c.SMTP.Configured()
}

// SenderAddress returns the address mail is sent from for the selected provider
func (c EmailConfig) SenderAddress() string {
	if c.Provider == "gmail" {
		return c.Gmail.SenderAddress
	}
	return c.SMTP.User
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/maildraft")

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Bind environment variables
	v.SetEnvPrefix("MAILDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindLegacyEnv(v)

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindLegacyEnv maps the unprefixed variable names older .env files carried
// (GROQ_API_KEY, EMAIL_USER, ...) onto their config keys.
func bindLegacyEnv(v *viper.Viper) {
	v.BindEnv("groq.api_key", "MAILDRAFT_GROQ_API_KEY", "GROQ_API_KEY")
	v.BindEnv("email.smtp.user", "MAILDRAFT_EMAIL_SMTP_USER", "EMAIL_USER")
	v.BindEnv("email.smtp.pass", "MAILDRAFT_EMAIL_SMTP_PASS", "EMAIL_PASS")
	v.BindEnv("email.smtp.host", "MAILDRAFT_EMAIL_SMTP_HOST", "SMTP_HOST")
	v.BindEnv("email.smtp.port", "MAILDRAFT_EMAIL_SMTP_PORT", "SMTP_PORT")
	v.BindEnv("cors.allowed_origin", "MAILDRAFT_CORS_ALLOWED_ORIGIN", "FRONTEND_URL")
	v.BindEnv("server.port", "MAILDRAFT_SERVER_PORT", "PORT")
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 10<<20)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// CORS defaults
	v.SetDefault("cors.allowed_origin", "http://localhost:5173")

	// Rate limiting defaults
	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.limit", 100)
	v.SetDefault("rate_limiting.window", "15m")

	// Redis defaults (limiter uses in-process counters unless an address is set)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Groq defaults
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama3-8b-8192")
	v.SetDefault("groq.temperature", 0.7)
	v.SetDefault("groq.max_tokens", 1024)

	// Email defaults
	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.sender_name", "AI Email Sender")
	v.SetDefault("email.smtp.host", "smtp.ethereal.email")
	v.SetDefault("email.smtp.port", 587)
}
