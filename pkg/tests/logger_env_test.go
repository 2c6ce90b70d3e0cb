package tests

import (
	"testing"

	"github.com/cwrk-planet/voice-signal/pkg/logger"
)

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	if got := logger.DetectEnv(); got != logger.EnvDev {
		t.Fatalf("default should be dev, got %q", got)
	}

	t.Setenv("APP_ENV", "stage")
	if got := logger.DetectEnv(); got != logger.EnvStage {
		t.Fatalf("expected stage, got %q", got)
	}

	t.Setenv("APP_ENV", "prod")
	if got := logger.DetectEnv(); got != logger.EnvProd {
		t.Fatalf("expected prod, got %q", got)
	}
}

func TestParseEnv_Aliases(t *testing.T) {
	cases := map[string]logger.Env{
		"production": logger.EnvProd,
		" PROD ":     logger.EnvProd,
		"staging":    logger.EnvStage,
		"preprod":    logger.EnvStage,
		"local":      logger.EnvDev,
		"":           logger.EnvDev,
	}
	for raw, want := range cases {
		if got := logger.ParseEnv(raw); got != want {
			t.Errorf("ParseEnv(%q) = %q, want %q", raw, got, want)
		}
	}
}
