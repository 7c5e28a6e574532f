// Package config loads server settings.
//
// Values come from three layers, later ones winning:
//  1. Defaults()
//  2. an optional YAML file named by CONFIG_FILE
//  3. environment variables
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         int    `yaml:"port"`
	DBPath       string `yaml:"db_path"`
	LogLevel     string `yaml:"log_level"`
	JWTSecret    string `yaml:"jwt_secret"`
	CookieSecure bool   `yaml:"cookie_secure"`

	GitHub   GitHubConfig   `yaml:"github"`
	LLM      LLMConfig      `yaml:"llm"`
	LinkedIn LinkedInConfig `yaml:"linkedin"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`

	// DispatchInterval is how often the outbox of scheduled messages is drained.
	DispatchInterval time.Duration `yaml:"dispatch_interval"`
	// TracingEndpoint is the OTLP/HTTP collector (host:port). Empty disables export.
	TracingEndpoint string `yaml:"tracing_endpoint"`
}

type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

// Enabled reports whether GitHub sign-in should be offered.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	ChatModel   string        `yaml:"chat_model"`
	PromptsFile string        `yaml:"prompts_file"`
	Timeout     time.Duration `yaml:"timeout"`

	// Language, Currency and Jurisdiction are substituted into every prompt.
	Language     string `yaml:"language"`
	Currency     string `yaml:"currency"`
	Jurisdiction string `yaml:"jurisdiction"`
}

type LinkedInConfig struct {
	APIKey   string        `yaml:"api_key"`
	Host     string        `yaml:"host"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type WhatsAppConfig struct {
	Token         string `yaml:"token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	APIURL        string `yaml:"api_url"`
}

// Enabled reports whether messages go to the Cloud API instead of the log.
func (w WhatsAppConfig) Enabled() bool {
	return w.Token != "" && w.PhoneNumberID != ""
}

func Defaults() Config {
	return Config{
		Port:     8080,
		DBPath:   "data/ideas.db",
		LogLevel: "info",
		LLM: LLMConfig{
			Model:        "gpt-4o-mini",
			ChatModel:    "gpt-4o",
			Timeout:      60 * time.Second,
			Language:     "Portuguese",
			Currency:     "BRL",
			Jurisdiction: "Brazil",
		},
		LinkedIn: LinkedInConfig{
			Host:     "linkedin-data-api.p.rapidapi.com",
			CacheTTL: 10 * time.Minute,
		},
		WhatsApp: WhatsAppConfig{
			APIURL: "https://graph.facebook.com/v20.0",
		},
		DispatchInterval: 30 * time.Second,
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	envErr := cfg.applyEnv()

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, errors.Join(envErr, cfg.Validate())
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Port = getEnvInt("PORT", c.Port, &errs)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure, &errs)

	c.GitHub.ClientID = getEnv("GITHUB_CLIENT_ID", c.GitHub.ClientID)
	c.GitHub.ClientSecret = getEnv("GITHUB_CLIENT_SECRET", c.GitHub.ClientSecret)
	c.GitHub.CallbackURL = getEnv("GITHUB_CALLBACK_URL", c.GitHub.CallbackURL)

	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.ChatModel = getEnv("LLM_CHAT_MODEL", c.LLM.ChatModel)
	c.LLM.PromptsFile = getEnv("PROMPTS_FILE", c.LLM.PromptsFile)
	c.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", c.LLM.Timeout, &errs)
	c.LLM.Language = getEnv("RESPONSE_LANGUAGE", c.LLM.Language)
	c.LLM.Currency = getEnv("CURRENCY", c.LLM.Currency)
	c.LLM.Jurisdiction = getEnv("LEGAL_JURISDICTION", c.LLM.Jurisdiction)

	c.LinkedIn.APIKey = getEnv("RAPIDAPI_KEY", c.LinkedIn.APIKey)
	c.LinkedIn.Host = getEnv("LINKEDIN_API_HOST", c.LinkedIn.Host)
	c.LinkedIn.CacheTTL = getEnvDuration("LINKEDIN_CACHE_TTL", c.LinkedIn.CacheTTL, &errs)

	c.WhatsApp.Token = getEnv("WHATSAPP_TOKEN", c.WhatsApp.Token)
	c.WhatsApp.PhoneNumberID = getEnv("WHATSAPP_PHONE_NUMBER_ID", c.WhatsApp.PhoneNumberID)
	c.WhatsApp.APIURL = getEnv("WHATSAPP_API_URL", c.WhatsApp.APIURL)

	c.DispatchInterval = getEnvDuration("DISPATCH_INTERVAL", c.DispatchInterval, &errs)
	c.TracingEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.TracingEndpoint)

	return errors.Join(errs...)
}

// Validate reports every missing or invalid required value at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: port %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("config: DB_PATH is required"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("config: JWT_SECRET must be at least 16 characters"))
	}
	if c.DispatchInterval < time.Second {
		errs = append(errs, errors.New("config: DISPATCH_INTERVAL must be at least 1s"))
	}
	if c.LLM.Model == "" || c.LLM.ChatModel == "" {
		errs = append(errs, errors.New("config: LLM_MODEL and LLM_CHAT_MODEL must not be empty"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return fallback
	}
	return d
}
