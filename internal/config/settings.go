// Package config loads runtime settings via github.com/spf13/viper, in the
// teacher's style (YAML file plus environment overlay), generalized from
// the teacher's assistant/brain settings to the voice-runtime's carrier,
// model-gateway and rate-limit settings (spec §6: "Environment variables").
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/northlane/voicebridge/internal/voiceerr"
)

// DBConfig configures the opaque MySQL persistence layer (spec §3 "storage
// layout is treated as an opaque persistence interface" -- the DSN builder
// itself stays, unchanged in shape from the teacher's DBConfig.DSN).
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	TLS      bool   `mapstructure:"tls"`
}

func (d DBConfig) DSN() string {
	base := "charset=utf8mb4&parseTime=True&loc=Local"
	if d.TLS {
		base += "&tls=true"
	}
	if d.Password == "" {
		return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s", d.Username, d.Host, d.Port, d.Name, base)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", d.Username, d.Password, d.Host, d.Port, d.Name, base)
}

// RedisConfig configures the sliding-window rate limiter's backing store
// (spec §4.10) and the Campaign Dispatcher's asynq job queue (spec §4.9).
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	Pass string `mapstructure:"pass"`
	DB   int    `mapstructure:"db"`
}

// ModelConfig is the model provider endpoint and credential injected by
// config (spec §6: "Model provider WebSocket -- endpoint and auth token
// injected by config").
type ModelConfig struct {
	WSURL  string `mapstructure:"ws_url"`
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	Voice  string `mapstructure:"voice"`
}

// CarrierCredentials holds one carrier's auth material (spec §6:
// "per-carrier credentials") and the REST base URL the Campaign
// Dispatcher's outbound call initiator places new calls against.
type CarrierCredentials struct {
	AccountID string `mapstructure:"account_id"`
	AuthToken string `mapstructure:"auth_token"`
	CallAPI   string `mapstructure:"call_api"`
}

// RateLimitConfig mirrors the two env vars spec §6 names explicitly:
// RATE_LIMIT_CALLS_PER_MINUTE (default 10), RATE_LIMIT_WINDOW_MS (default
// 60000).
type RateLimitConfig struct {
	CallsPerMinute int   `mapstructure:"calls_per_minute"`
	WindowMs       int64 `mapstructure:"window_ms"`
}

// AuthConfig configures the HTTP control surface's bearer-token check
// (spec §6 "HTTP control surface", adapted from the teacher's AuthConfig).
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Settings is the fully-resolved runtime configuration.
type Settings struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`

	// PublicBaseURL derives the WS URL returned to carriers (spec §6:
	// "PUBLIC_BASE_URL (used to derive the WS URL returned to carriers)").
	PublicBaseURL string `mapstructure:"public_base_url"`

	// FillerDir is the on-disk root of the pre-generated filler clip library
	// (spec §4.5), loaded once at startup via hedge.LoadClipsFromDir.
	FillerDir string `mapstructure:"filler_dir"`

	DB        DBConfig           `mapstructure:"database"`
	Redis     RedisConfig        `mapstructure:"redis"`
	Model     ModelConfig        `mapstructure:"model"`
	CarrierA  CarrierCredentials `mapstructure:"carrier_a"`
	CarrierB  CarrierCredentials `mapstructure:"carrier_b"`
	RateLimit RateLimitConfig    `mapstructure:"rate_limit"`
	Auth      AuthConfig         `mapstructure:"auth"`
}

// Load reads configuration from a YAML file (conventional locations, or
// VOICEBRIDGE_CONFIG if set) and overlays the spec §6 required environment
// variables, then validates it (spec §6: "Exit codes: ... non-zero reserved
// for fatal config errors (missing PUBLIC_BASE_URL, missing model
// credentials)").
func Load() (*Settings, error) {
	if cfgPath := os.Getenv("VOICEBRIDGE_CONFIG"); cfgPath != "" {
		viper.SetConfigFile(cfgPath)
	} else {
		viper.SetConfigName("config_" + genEnv())
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/voicebridge")
	}

	viper.SetDefault("rate_limit.calls_per_minute", 10)
	viper.SetDefault("rate_limit.window_ms", 60000)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("filler_dir", "./fillers")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// applyEnvOverrides lets the spec §6 environment variables win over file
// config, matching the teacher's pattern of treating env as the outermost
// layer.
func applyEnvOverrides(s *Settings) {
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		s.PublicBaseURL = v
	}
	if v := os.Getenv("MODEL_API_KEY"); v != "" {
		s.Model.APIKey = v
	}
	if v := os.Getenv("MODEL_WS_URL"); v != "" {
		s.Model.WSURL = v
	}
	if v := os.Getenv("CARRIER_A_ACCOUNT_ID"); v != "" {
		s.CarrierA.AccountID = v
	}
	if v := os.Getenv("CARRIER_A_AUTH_TOKEN"); v != "" {
		s.CarrierA.AuthToken = v
	}
	if v := os.Getenv("CARRIER_B_ACCOUNT_ID"); v != "" {
		s.CarrierB.AccountID = v
	}
	if v := os.Getenv("CARRIER_B_AUTH_TOKEN"); v != "" {
		s.CarrierB.AuthToken = v
	}
	if v := os.Getenv("RATE_LIMIT_CALLS_PER_MINUTE"); v != "" {
		fmt.Sscanf(v, "%d", &s.RateLimit.CallsPerMinute)
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_MS"); v != "" {
		fmt.Sscanf(v, "%d", &s.RateLimit.WindowMs)
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		s.Auth.JWTSecret = v
	}
}

// Validate enforces the spec §6 fatal-at-startup config requirements.
func (s *Settings) Validate() error {
	if s.PublicBaseURL == "" {
		return voiceerr.New(voiceerr.KindConfig, "config.Validate", fmt.Errorf("PUBLIC_BASE_URL is required"))
	}
	if s.Model.APIKey == "" {
		return voiceerr.New(voiceerr.KindConfig, "config.Validate", fmt.Errorf("model API key is required"))
	}
	if s.RateLimit.CallsPerMinute <= 0 {
		s.RateLimit.CallsPerMinute = 10
	}
	if s.RateLimit.WindowMs <= 0 {
		s.RateLimit.WindowMs = 60000
	}
	return nil
}

func genEnv() string {
	env := viper.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}
