package store

import (
	"fmt"
	"os"
	"time"

	"sentiment-pulse/internal/types"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Stream struct {
		URL              string `yaml:"url"`
		SourceMarker     string `yaml:"source_marker"`
		HeartbeatSeconds int    `yaml:"heartbeat_seconds"`
		ReconnectSeconds int    `yaml:"reconnect_seconds"`
		FallbackMinutes  int    `yaml:"fallback_minutes"`
	} `yaml:"stream"`
	Queue struct {
		MaxPending            int `yaml:"max_pending"`
		MaxAttempts           int `yaml:"max_attempts"`
		InitialBackoffSeconds int `yaml:"initial_backoff_seconds"`
		CooldownSeconds       int `yaml:"cooldown_seconds"`
	} `yaml:"queue"`
	Feed struct {
		Capacity      int     `yaml:"capacity"`
		HalfLifeHours float64 `yaml:"half_life_hours"`
	} `yaml:"feed"`
	Dedup struct {
		StrictThreshold     float64 `yaml:"strict_threshold"`
		RecentThreshold     float64 `yaml:"recent_threshold"`
		RecentWindowMinutes int     `yaml:"recent_window_minutes"`
	} `yaml:"dedup"`
	Candles struct {
		Points    int    `yaml:"points"`
		Timeframe string `yaml:"timeframe"`
	} `yaml:"candles"`
	Classifier struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"classifier"`
	Persistence struct {
		Path string `yaml:"path"`
	} `yaml:"persistence"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func (c *Config) Validate() error {
	if c.Stream.URL == "" {
		return fmt.Errorf("stream.url cannot be empty")
	}
	if c.Queue.MaxAttempts <= 0 {
		return fmt.Errorf("queue.max_attempts must be positive, got %d", c.Queue.MaxAttempts)
	}
	if c.Dedup.StrictThreshold <= 0 || c.Dedup.StrictThreshold > 1 {
		return fmt.Errorf("dedup.strict_threshold must be in (0,1], got %.2f", c.Dedup.StrictThreshold)
	}
	if c.Dedup.RecentThreshold <= 0 || c.Dedup.RecentThreshold > c.Dedup.StrictThreshold {
		return fmt.Errorf("dedup.recent_threshold must be in (0, strict_threshold], got %.2f", c.Dedup.RecentThreshold)
	}
	if _, ok := types.Timeframe(c.Candles.Timeframe).Interval(); !ok {
		return fmt.Errorf("candles.timeframe '%s' is not a recognized timeframe", c.Candles.Timeframe)
	}
	if c.Classifier.Provider != "GEMINI" && c.Classifier.Provider != "NONE" {
		return fmt.Errorf("classifier.provider must be 'GEMINI' or 'NONE', got '%s'", c.Classifier.Provider)
	}
	return nil
}

// Durations derived from the integer config fields.

func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Stream.HeartbeatSeconds) * time.Second
}
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Stream.ReconnectSeconds) * time.Second
}
func (c *Config) FallbackInterval() time.Duration {
	return time.Duration(c.Stream.FallbackMinutes) * time.Minute
}
func (c *Config) InitialBackoff() time.Duration {
	return time.Duration(c.Queue.InitialBackoffSeconds) * time.Second
}
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Queue.CooldownSeconds) * time.Second
}
func (c *Config) HalfLife() time.Duration {
	return time.Duration(c.Feed.HalfLifeHours * float64(time.Hour))
}
func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.Dedup.RecentWindowMinutes) * time.Minute
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Stream.SourceMarker == "" {
		c.Stream.SourceMarker = "BWENEWS"
	}
	if c.Stream.HeartbeatSeconds == 0 {
		c.Stream.HeartbeatSeconds = 30
	}
	if c.Stream.ReconnectSeconds == 0 {
		c.Stream.ReconnectSeconds = 5
	}
	if c.Stream.FallbackMinutes == 0 {
		c.Stream.FallbackMinutes = 3
	}
	if c.Queue.MaxPending == 0 {
		c.Queue.MaxPending = 30
	}
	if c.Queue.MaxAttempts == 0 {
		c.Queue.MaxAttempts = 5
	}
	if c.Queue.InitialBackoffSeconds == 0 {
		c.Queue.InitialBackoffSeconds = 3
	}
	if c.Queue.CooldownSeconds == 0 {
		c.Queue.CooldownSeconds = 60
	}
	if c.Feed.Capacity == 0 {
		c.Feed.Capacity = 100
	}
	if c.Feed.HalfLifeHours == 0 {
		c.Feed.HalfLifeHours = 6
	}
	if c.Dedup.StrictThreshold == 0 {
		c.Dedup.StrictThreshold = 0.70
	}
	if c.Dedup.RecentThreshold == 0 {
		c.Dedup.RecentThreshold = 0.50
	}
	if c.Dedup.RecentWindowMinutes == 0 {
		c.Dedup.RecentWindowMinutes = 60
	}
	if c.Candles.Points == 0 {
		c.Candles.Points = 41
	}
	if c.Candles.Timeframe == "" {
		c.Candles.Timeframe = string(types.Timeframe1H)
	}
	if c.Classifier.Provider == "" {
		c.Classifier.Provider = "NONE"
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gemini-2.0-flash"
	}
	if c.Classifier.MaxTokens == 0 {
		c.Classifier.MaxTokens = 1024
	}
	if c.Classifier.APIKeyEnv == "" {
		c.Classifier.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Persistence.Path == "" {
		c.Persistence.Path = "data/feed.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8787"
	}
}
