// internal/config/config.go
//
// Client configuration. Sources, lowest precedence first:
//   - built-in defaults,
//   - an optional YAML file (wordle.yaml in the working directory, or an
//     explicit path),
//   - WORDLE_* environment variables, after a `.env` file has been loaded
//     into the environment.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "WORDLE"

// PushMode selects the real-time channel.
type PushMode string

const (
	PushNone      PushMode = "none"
	PushWebSocket PushMode = "websocket"
	PushRedis     PushMode = "redis"
)

type Config struct {
	BaseURL           string        `mapstructure:"base_url"`
	LobbyPollInterval time.Duration `mapstructure:"lobby_poll_interval"`
	RoomPollInterval  time.Duration `mapstructure:"room_poll_interval"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RateLimit         float64       `mapstructure:"rate_limit"` // requests/s, 0 disables
	Push              PushMode      `mapstructure:"push"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	StoragePath       string        `mapstructure:"storage_path"` // empty keeps state in memory
	Username          string        `mapstructure:"username"`
	LogLevel          string        `mapstructure:"log_level"`
	LogPretty         bool          `mapstructure:"log_pretty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("lobby_poll_interval", 2*time.Second)
	v.SetDefault("room_poll_interval", time.Second)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("push", string(PushNone))
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("storage_path", "./data/client.db")
	v.SetDefault("username", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)
}

// Load reads the configuration. file may be empty, in which case a
// wordle.yaml in the working directory is used when present.
func Load(file string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("wordle")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Push = PushMode(strings.ToLower(string(cfg.Push)))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q must be an http(s) URL", c.BaseURL)
	}
	if c.LobbyPollInterval <= 0 {
		return errors.New("lobby_poll_interval must be positive")
	}
	if c.RoomPollInterval <= 0 {
		return errors.New("room_poll_interval must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit cannot be negative")
	}
	switch c.Push {
	case PushNone, PushWebSocket:
	case PushRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required when push is redis")
		}
	default:
		return fmt.Errorf("unknown push mode %q", c.Push)
	}
	return nil
}
