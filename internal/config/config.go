package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys: WARDEN_SERVER_HTTP_PORT -> server.http_port.
const EnvPrefix = "WARDEN_"

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config captures runtime configuration sourced from an optional YAML file
// and environment variables.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Log         LogConfig         `koanf:"log"`
	Auth        AuthConfig        `koanf:"auth"`
	LLM         LLMConfig         `koanf:"llm"`
	Policy      PolicyConfig      `koanf:"policy"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
	Mail        MailConfig        `koanf:"mail"`
}

type ServerConfig struct {
	Environment     string        `koanf:"environment"`
	HTTPPort        string        `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Dir   string `koanf:"dir"`
	Debug bool   `koanf:"debug"`
}

// AuthConfig controls JWT authentication. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// LLMConfig selects the completion provider. When Provider is empty the
// provider is chosen by which API key is present, OpenAI first.
type LLMConfig struct {
	Provider        string        `koanf:"provider"`
	OpenAIAPIKey    string        `koanf:"openai_api_key"`
	AnthropicAPIKey string        `koanf:"anthropic_api_key"`
	Model           string        `koanf:"model"`
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	RateLimit       float64       `koanf:"rate_limit"` // requests per second
	Burst           int           `koanf:"burst"`
}

// PolicyConfig holds the overall-success thresholds for the workflows, as a
// fraction of stages that must succeed.
type PolicyConfig struct {
	OnboardingSuccessRatio float64 `koanf:"onboarding_success_ratio"`
	DocumentSuccessRatio   float64 `koanf:"document_success_ratio"`
}

// MaintenanceConfig schedules the maintenance sweep. An empty schedule
// leaves it manual-only.
type MaintenanceConfig struct {
	Schedule string `koanf:"schedule"`
}

// MailConfig carries the shoutrrr SMTP URL used to email vendors.
type MailConfig struct {
	SMTPURL string `koanf:"smtp_url"`
}

// Load reads the YAML file at path (if it exists), overlays WARDEN_*
// environment variables and falls back to defaults so the server can boot
// with zero configuration.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// envKey maps WARDEN_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Server.HTTPPort == "" {
		cfg.Server.HTTPPort = "8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join("data", "warden.db")
	}
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = filepath.Join("data", "logs")
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.LLM.OpenAIAPIKey == "" {
		cfg.LLM.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.AnthropicAPIKey == "" {
		cfg.LLM.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.LLM.RateLimit == 0 {
		cfg.LLM.RateLimit = 2
	}
	if cfg.LLM.Burst == 0 {
		cfg.LLM.Burst = 4
	}
	if cfg.Policy.OnboardingSuccessRatio == 0 {
		cfg.Policy.OnboardingSuccessRatio = 0.75
	}
	if cfg.Policy.DocumentSuccessRatio == 0 {
		cfg.Policy.DocumentSuccessRatio = 0.80
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.HTTPPort == "" {
		return errors.New("server.http_port is required")
	}
	switch c.LLM.Provider {
	case "", ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.RateLimit < 0 || c.LLM.Burst < 0 {
		return errors.New("llm.rate_limit and llm.burst must not be negative")
	}
	for name, ratio := range map[string]float64{
		"policy.onboarding_success_ratio": c.Policy.OnboardingSuccessRatio,
		"policy.document_success_ratio":   c.Policy.DocumentSuccessRatio,
	} {
		if ratio <= 0 || ratio > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, ratio)
		}
	}
	if c.Maintenance.Schedule != "" {
		if _, err := cron.ParseStandard(c.Maintenance.Schedule); err != nil {
			return fmt.Errorf("maintenance.schedule: %w", err)
		}
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// AuthEnabled reports whether API routes require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

// ResolvedProvider returns the provider that will serve completions, or ""
// when no credentials are available.
func (c LLMConfig) ResolvedProvider() string {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey != "" {
			return ProviderOpenAI
		}
		return ""
	case ProviderAnthropic:
		if c.AnthropicAPIKey != "" {
			return ProviderAnthropic
		}
		return ""
	}
	if c.OpenAIAPIKey != "" {
		return ProviderOpenAI
	}
	if c.AnthropicAPIKey != "" {
		return ProviderAnthropic
	}
	return ""
}
