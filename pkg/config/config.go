// Package config loads the adapter configuration: YAML file first, then
// environment variable overrides. The resulting Config is treated as
// immutable once the adapter has started.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from "3s"-style strings in
// both YAML and environment variables.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	OneBot  OneBotConfig  `yaml:"onebot"`
	Log     LogConfig     `yaml:"log"`
}

// GatewayConfig controls the listening side (HTTP webhook + WebSocket server).
type GatewayConfig struct {
	Host string `yaml:"host" env:"ONEBOT_GATEWAY_HOST"`
	Port int    `yaml:"port" env:"ONEBOT_GATEWAY_PORT"`
}

// OneBotConfig carries the protocol-level settings.
//
// Secret enables HMAC-SHA1 signature checking on the HTTP webhook.
// AccessToken enables bearer-token checking on every transport.
// WSUrls lists gateways this adapter dials as a WebSocket client; each
// URL gets its own independent reconnect loop.
type OneBotConfig struct {
	Secret            string   `yaml:"secret" env:"ONEBOT_SECRET"`
	AccessToken       string   `yaml:"access_token" env:"ONEBOT_ACCESS_TOKEN"`
	WSUrls            []string `yaml:"ws_urls" env:"ONEBOT_WS_URLS" envSeparator:","`
	ReconnectInterval Duration `yaml:"reconnect_interval" env:"ONEBOT_RECONNECT_INTERVAL"`
	APITimeout        Duration `yaml:"api_timeout" env:"ONEBOT_API_TIMEOUT"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level        string `yaml:"level" env:"ONEBOT_LOG_LEVEL"`
	File         string `yaml:"file" env:"ONEBOT_LOG_FILE"`
	MaxSize      int    `yaml:"max_size"`
	MaxBackups   int    `yaml:"max_backups"`
	MaxAge       int    `yaml:"max_age"`
	Compress     bool   `yaml:"compress"`
	EnableStdout bool   `yaml:"enable_stdout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		OneBot: OneBotConfig{
			ReconnectInterval: Duration(3 * time.Second),
			APITimeout:        Duration(30 * time.Second),
		},
		Log: LogConfig{
			Level:        "info",
			MaxSize:      20,
			MaxBackups:   3,
			MaxAge:       14,
			EnableStdout: true,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and applies environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env-only configuration
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	if cfg.OneBot.ReconnectInterval <= 0 {
		cfg.OneBot.ReconnectInterval = Duration(3 * time.Second)
	}
	if cfg.OneBot.APITimeout <= 0 {
		cfg.OneBot.APITimeout = Duration(30 * time.Second)
	}

	return cfg, nil
}

// Addr is the host:port the gateway server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
}
