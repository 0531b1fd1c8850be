// Package config loads runtime settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Server    ServerConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Contact   ContactConfig
	Email     EmailConfig
}

type ServerConfig struct {
	Port             int
	Env              string
	LogLevel         string
	DatabasePath     string
	CORSAllowOrigin  string
	TrustedProxies   []string
	IPHashSalt       string
	VisitorRetention time.Duration
}

// Production reports whether the server runs with release settings.
func (s ServerConfig) Production() bool {
	return s.Env == "production"
}

type AdminConfig struct {
	Username     string
	PasswordHash []byte // empty disables the admin area
}

func (a AdminConfig) Enabled() bool {
	return len(a.PasswordHash) > 0
}

type RateLimitConfig struct {
	Store           string
	MaxRequests     int
	Window          time.Duration
	CleanupInterval time.Duration
	Redis           RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ContactConfig struct {
	MinFillTime   time.Duration
	MaxFormAge    time.Duration
	SpamThreshold int
	RulesFile     string
}

type EmailConfig struct {
	Driver       string
	From         string
	FromName     string
	OwnerEmail   string
	OwnerName    string
	BrevoAPIKey  string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	Timeout      time.Duration
	MaxRetries   int
	AutoReply    bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_path", "./data/portfolio.db")
	v.SetDefault("cors_allow_origin", "*")
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("visitor_retention", "8760h")
	v.SetDefault("admin_username", "admin")

	v.SetDefault("rate_limit_store", "memory")
	v.SetDefault("rate_limit_max_requests", "5")
	v.SetDefault("rate_limit_window", "1h")
	v.SetDefault("rate_limit_cleanup_interval", "10m")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", "0")

	v.SetDefault("contact_min_fill_time", "2s")
	v.SetDefault("contact_max_form_age", "24h")
	v.SetDefault("contact_spam_threshold", "3")

	v.SetDefault("email_driver", "log")
	v.SetDefault("email_from_name", "Portfolio")
	v.SetDefault("smtp_port", "587")
	v.SetDefault("email_timeout", "10s")
	v.SetDefault("email_max_retries", "3")
	v.SetDefault("contact_auto_reply", "true")
}

// Load reads configuration from environment variables, applies defaults and
// validates the combination of settings.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	var err error
	cfg := &Config{}

	cfg.Server, err = loadServer(v)
	if err != nil {
		return nil, err
	}
	cfg.Admin, err = loadAdmin(v)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit, err = loadRateLimit(v)
	if err != nil {
		return nil, err
	}
	cfg.Contact, err = loadContact(v)
	if err != nil {
		return nil, err
	}
	cfg.Email, err = loadEmail(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadServer(v *viper.Viper) (ServerConfig, error) {
	port, err := intVar(v, "port")
	if err != nil {
		return ServerConfig{}, err
	}
	retention, err := durationVar(v, "visitor_retention")
	if err != nil {
		return ServerConfig{}, err
	}

	env := strings.ToLower(stringVar(v, "app_env"))
	if env != "development" && env != "production" && env != "test" {
		return ServerConfig{}, fmt.Errorf("APP_ENV must be development, production or test, got %q", env)
	}

	salt := stringVar(v, "ip_hash_salt")
	if salt == "" {
		salt, err = randomHex(16)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("IP_HASH_SALT: %w", err)
		}
	}

	return ServerConfig{
		Port:             port,
		Env:              env,
		LogLevel:         stringVar(v, "log_level"),
		DatabasePath:     stringVar(v, "database_path"),
		CORSAllowOrigin:  stringVar(v, "cors_allow_origin"),
		TrustedProxies:   listVar(v, "trusted_proxies"),
		IPHashSalt:       salt,
		VisitorRetention: retention,
	}, nil
}

func loadAdmin(v *viper.Viper) (AdminConfig, error) {
	cfg := AdminConfig{Username: stringVar(v, "admin_username")}

	if hash := stringVar(v, "admin_password_hash"); hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return AdminConfig{}, fmt.Errorf("ADMIN_PASSWORD_HASH: %w", err)
		}
		cfg.PasswordHash = []byte(hash)
		return cfg, nil
	}

	if password := stringVar(v, "admin_password"); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return AdminConfig{}, fmt.Errorf("ADMIN_PASSWORD: %w", err)
		}
		cfg.PasswordHash = hash
	}
	return cfg, nil
}

func loadRateLimit(v *viper.Viper) (RateLimitConfig, error) {
	maxRequests, err := intVar(v, "rate_limit_max_requests")
	if err != nil {
		return RateLimitConfig{}, err
	}
	if maxRequests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", maxRequests)
	}
	window, err := durationVar(v, "rate_limit_window")
	if err != nil {
		return RateLimitConfig{}, err
	}
	if window <= 0 {
		return RateLimitConfig{}, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", window)
	}
	cleanup, err := durationVar(v, "rate_limit_cleanup_interval")
	if err != nil {
		return RateLimitConfig{}, err
	}
	redisDB, err := intVar(v, "redis_db")
	if err != nil {
		return RateLimitConfig{}, err
	}

	store := strings.ToLower(stringVar(v, "rate_limit_store"))
	switch store {
	case "memory", "cache", "redis":
	default:
		return RateLimitConfig{}, fmt.Errorf("RATE_LIMIT_STORE must be \"memory\", \"cache\" or \"redis\", got %q", store)
	}

	return RateLimitConfig{
		Store:           store,
		MaxRequests:     maxRequests,
		Window:          window,
		CleanupInterval: cleanup,
		Redis: RedisConfig{
			Addr:     stringVar(v, "redis_addr"),
			Password: stringVar(v, "redis_password"),
			DB:       redisDB,
		},
	}, nil
}

func loadContact(v *viper.Viper) (ContactConfig, error) {
	minFill, err := durationVar(v, "contact_min_fill_time")
	if err != nil {
		return ContactConfig{}, err
	}
	maxAge, err := durationVar(v, "contact_max_form_age")
	if err != nil {
		return ContactConfig{}, err
	}
	if maxAge <= minFill {
		return ContactConfig{}, fmt.Errorf("CONTACT_MAX_FORM_AGE (%s) must exceed CONTACT_MIN_FILL_TIME (%s)", maxAge, minFill)
	}
	threshold, err := intVar(v, "contact_spam_threshold")
	if err != nil {
		return ContactConfig{}, err
	}
	if threshold <= 0 {
		return ContactConfig{}, fmt.Errorf("CONTACT_SPAM_THRESHOLD must be positive, got %d", threshold)
	}

	return ContactConfig{
		MinFillTime:   minFill,
		MaxFormAge:    maxAge,
		SpamThreshold: threshold,
		RulesFile:     stringVar(v, "contact_rules_file"),
	}, nil
}

func loadEmail(v *viper.Viper) (EmailConfig, error) {
	smtpPort, err := intVar(v, "smtp_port")
	if err != nil {
		return EmailConfig{}, err
	}
	timeout, err := durationVar(v, "email_timeout")
	if err != nil {
		return EmailConfig{}, err
	}
	retries, err := intVar(v, "email_max_retries")
	if err != nil {
		return EmailConfig{}, err
	}
	if retries < 0 {
		return EmailConfig{}, fmt.Errorf("EMAIL_MAX_RETRIES must not be negative, got %d", retries)
	}

	cfg := EmailConfig{
		Driver:       strings.ToLower(stringVar(v, "email_driver")),
		From:         stringVar(v, "email_from"),
		FromName:     stringVar(v, "email_from_name"),
		OwnerEmail:   stringVar(v, "contact_to_email"),
		OwnerName:    stringVar(v, "contact_to_name"),
		BrevoAPIKey:  stringVar(v, "brevo_api_key"),
		ResendAPIKey: stringVar(v, "resend_api_key"),
		SMTPHost:     stringVar(v, "smtp_host"),
		SMTPPort:     smtpPort,
		SMTPUser:     stringVar(v, "smtp_user"),
		SMTPPass:     stringVar(v, "smtp_pass"),
		Timeout:      timeout,
		MaxRetries:   retries,
		AutoReply:    v.GetBool("contact_auto_reply"),
	}

	switch cfg.Driver {
	case "log":
		return cfg, nil
	case "brevo":
		if cfg.BrevoAPIKey == "" {
			return EmailConfig{}, fmt.Errorf("BREVO_API_KEY is required for the brevo driver")
		}
	case "resend":
		if cfg.ResendAPIKey == "" {
			return EmailConfig{}, fmt.Errorf("RESEND_API_KEY is required for the resend driver")
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			return EmailConfig{}, fmt.Errorf("SMTP_HOST is required for the smtp driver")
		}
	default:
		return EmailConfig{}, fmt.Errorf("EMAIL_DRIVER must be \"brevo\", \"resend\", \"smtp\" or \"log\", got %q", cfg.Driver)
	}

	if cfg.From == "" {
		return EmailConfig{}, fmt.Errorf("EMAIL_FROM is required for the %s driver", cfg.Driver)
	}
	if cfg.OwnerEmail == "" {
		return EmailConfig{}, fmt.Errorf("CONTACT_TO_EMAIL is required for the %s driver", cfg.Driver)
	}
	return cfg, nil
}

func stringVar(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

// listVar splits a comma separated value, dropping empty items.
func listVar(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range strings.Split(stringVar(v, key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func intVar(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(stringVar(v, key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", strings.ToUpper(key), err)
	}
	return n, nil
}

func durationVar(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(stringVar(v, key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", strings.ToUpper(key), err)
	}
	return d, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
