package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"groundstation/internal/models"
)

// Duration wraps time.Duration so YAML values like "1.4s" parse directly
type Duration time.Duration

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	ListenAddr     string   `yaml:"listenAddr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	AllowedIPs     []string `yaml:"allowedIPs"` // empty admits any address
}

// CloudConfig describes the cloud telemetry origin: a per-channel
// last-value endpoint keyed by feed name, authenticated by an API key header
type CloudConfig struct {
	Base      string            `yaml:"base"`
	APIKey    string            `yaml:"apiKey"`
	KeyHeader string            `yaml:"keyHeader"`
	Feeds     map[string]string `yaml:"feeds"` // channel -> feed name override
}

// FeedName resolves the feed key for a channel, defaulting to the channel name
func (c CloudConfig) FeedName(ch models.Channel) string {
	if name, ok := c.Feeds[string(ch)]; ok && name != "" {
		return name
	}
	return string(ch)
}

// LocalConfig describes the local backend origin
type LocalConfig struct {
	Base string `yaml:"base"`
}

// FeedConfig configures the on-board telemetry file reader
type FeedConfig struct {
	TelemFile    string   `yaml:"telemFile"`
	StaleAfter   Duration `yaml:"staleAfter"`
	ReadInterval Duration `yaml:"readInterval"`
}

// UsersConfig configures the credential fallback store
type UsersConfig struct {
	File string `yaml:"file"`
}

// AuthConfig configures session token minting
type AuthConfig struct {
	Secret      string   `yaml:"secret"`
	TokenExpiry Duration `yaml:"tokenExpiry"`
}

// PollingConfig configures the source-arbitration engine
type PollingConfig struct {
	Interval      Duration `yaml:"interval"`
	FetchTimeout  Duration `yaml:"fetchTimeout"`
	BootTimeout   Duration `yaml:"bootTimeout"`
	MaxAge        Duration `yaml:"maxAge"`
	FailThreshold int      `yaml:"failThreshold"`
	HistorySize   int      `yaml:"historySize"`
	Channels      []string `yaml:"channels"`
}

// ChannelSet returns the configured channels in fixed order, falling back
// to the default set when none are configured
func (p PollingConfig) ChannelSet() []models.Channel {
	if len(p.Channels) == 0 {
		return models.DefaultChannels()
	}
	channels := make([]models.Channel, 0, len(p.Channels))
	for _, name := range p.Channels {
		channels = append(channels, models.Channel(name))
	}
	return channels
}

// Config is the full, session-immutable configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cloud   CloudConfig   `yaml:"cloud"`
	Local   LocalConfig   `yaml:"local"`
	Feed    FeedConfig    `yaml:"feed"`
	Users   UsersConfig   `yaml:"users"`
	Auth    AuthConfig    `yaml:"auth"`
	Polling PollingConfig `yaml:"polling"`
}

// Default returns the baseline configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":5050",
		},
		Cloud: CloudConfig{
			KeyHeader: "X-AIO-Key",
		},
		Feed: FeedConfig{
			TelemFile:    "telem.txt",
			StaleAfter:   Duration(120 * time.Second),
			ReadInterval: Duration(time.Second),
		},
		Users: UsersConfig{
			File: "users.json",
		},
		Auth: AuthConfig{
			TokenExpiry: Duration(12 * time.Hour),
		},
		Polling: PollingConfig{
			Interval:      Duration(1400 * time.Millisecond),
			FetchTimeout:  Duration(5 * time.Second),
			BootTimeout:   Duration(2 * time.Second),
			MaxAge:        Duration(30 * time.Second),
			FailThreshold: 3,
			HistorySize:   60,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// GS_* environment overrides, in that order. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies GS_* environment variables on top of the config
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("GS_LISTEN_ADDR"); val != "" {
		cfg.Server.ListenAddr = val
	}
	if val := os.Getenv("GS_CLOUD_BASE"); val != "" {
		cfg.Cloud.Base = val
	}
	if val := os.Getenv("GS_CLOUD_API_KEY"); val != "" {
		cfg.Cloud.APIKey = val
	}
	if val := os.Getenv("GS_CLOUD_KEY_HEADER"); val != "" {
		cfg.Cloud.KeyHeader = val
	}
	if val := os.Getenv("GS_LOCAL_BASE"); val != "" {
		cfg.Local.Base = val
	}
	if val := os.Getenv("GS_TELEM_FILE"); val != "" {
		cfg.Feed.TelemFile = val
	}
	if val := os.Getenv("GS_USERS_FILE"); val != "" {
		cfg.Users.File = val
	}
	if val := os.Getenv("GS_AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("GS_POLL_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			cfg.Polling.Interval = Duration(duration)
		}
	}
	if val := os.Getenv("GS_FETCH_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			cfg.Polling.FetchTimeout = Duration(duration)
		}
	}
	if val := os.Getenv("GS_MAX_AGE"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			cfg.Polling.MaxAge = Duration(duration)
		}
	}
	if val := os.Getenv("GS_FAIL_THRESHOLD"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.Polling.FailThreshold = n
		}
	}
}

// validate rejects configurations the engine cannot run with
func validate(cfg *Config) error {
	if cfg.Polling.Interval.Std() <= 0 {
		return fmt.Errorf("polling interval must be positive")
	}
	if cfg.Polling.FetchTimeout.Std() <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if cfg.Polling.FailThreshold < 1 {
		return fmt.Errorf("fail threshold must be at least 1")
	}
	if cfg.Polling.HistorySize < 1 {
		return fmt.Errorf("history size must be at least 1")
	}
	if cfg.Polling.MaxAge.Std() <= 0 {
		return fmt.Errorf("max sample age must be positive")
	}
	return nil
}
