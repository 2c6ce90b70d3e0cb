package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	ReadTimeout    string   `yaml:"readTimeout"`
	IdleTimeout    string   `yaml:"idleTimeout"`
}

// GRPC is the admin listener; an empty addr disables it.
type GRPC struct {
	Addr string `yaml:"addr"`
}

type WS struct {
	ReadLimit  int64  `yaml:"readLimit"`  // bytes per frame
	SendBuffer int    `yaml:"sendBuffer"` // queued frames per connection
	WriteWait  string `yaml:"writeWait"`  // "10s"
}

type Signaling struct {
	QueueSize          int    `yaml:"queueSize"`
	DuplicateLogin     string `yaml:"duplicateLogin"`     // evict|reject
	AuthoritativeSeats bool   `yaml:"authoritativeSeats"` // false: seat events are relayed opaquely
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // voice-signal
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	GRPC      GRPC      `yaml:"grpc"`
	WS        WS        `yaml:"ws"`
	Signaling Signaling `yaml:"signaling"`
	Logging   Logging   `yaml:"logging"`
}

// LoadConfig reads CONFIG_PATH (default ./config/config.yaml). A missing
// default file is not an error: the service runs on defaults. PORT overrides
// http.addr.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "./config/config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.HTTP.Addr = ":" + port
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3000"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.WS.ReadLimit < 0 || c.WS.SendBuffer < 0 || c.Signaling.QueueSize < 0 {
		return errors.New("ws.readLimit, ws.sendBuffer and signaling.queueSize must not be negative")
	}
	if c.WS.ReadLimit == 0 {
		c.WS.ReadLimit = 64 * 1024
	}
	if c.WS.SendBuffer == 0 {
		c.WS.SendBuffer = 256
	}
	if c.Signaling.QueueSize == 0 {
		c.Signaling.QueueSize = 1024
	}

	switch c.Signaling.DuplicateLogin {
	case "":
		c.Signaling.DuplicateLogin = "evict"
	case "evict", "reject":
	default:
		return fmt.Errorf("signaling.duplicateLogin: unknown policy %q", c.Signaling.DuplicateLogin)
	}

	for name, v := range map[string]string{
		"http.readTimeout": c.HTTP.ReadTimeout,
		"http.idleTimeout": c.HTTP.IdleTimeout,
		"ws.writeWait":     c.WS.WriteWait,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}

	// defaults for logging
	if c.Logging.Service == "" {
		c.Logging.Service = "voice-signal"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

func (h HTTP) ReadTimeoutOr(def time.Duration) time.Duration { return parseDurationOr(def, h.ReadTimeout) }
func (h HTTP) IdleTimeoutOr(def time.Duration) time.Duration { return parseDurationOr(def, h.IdleTimeout) }
func (w WS) WriteWaitOr(def time.Duration) time.Duration     { return parseDurationOr(def, w.WriteWait) }

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
