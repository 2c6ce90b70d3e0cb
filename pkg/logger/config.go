package logger

import "log/slog"

type Backend string

const (
	BackendStd Backend = "std" // text in dev, JSON in stage/prod
	BackendZap Backend = "zap" // slog-zap
)

type Config struct {
	// logger metadata
	Service    string
	Version    string
	InstanceID string

	// output
	Level   slog.Level
	Env     Env
	Backend Backend // default: zap for stage/prod, std for dev
	Debug   bool

	// zap sampling
	SampleInitial    int
	SampleThereafter int
	SampleTick       int // seconds

	AddSource bool
}

func (cfg Config) level() slog.Level {
	if cfg.Debug && cfg.Level == 0 {
		return slog.LevelDebug
	}
	return cfg.Level
}
