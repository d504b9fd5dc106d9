package pipeline

import (
	"errors"
	"testing"

	"github.com/rdelcourt/ChequeDataPrep/operations"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.RawDataPath != "data.txt" {
		t.Errorf("unexpected raw data path: %s", config.RawDataPath)
	}
	if config.ProcessedDir != "data/processed" {
		t.Errorf("unexpected processed dir: %s", config.ProcessedDir)
	}
	if config.CastPolicy != operations.CastPolicyStrict {
		t.Errorf("expected strict cast policy by default, got %s", config.CastPolicy)
	}
	if config.Delimiter != ';' {
		t.Errorf("expected semicolon delimiter, got %q", config.Delimiter)
	}
	if config.SplitDate.Year() != 2017 || config.SplitDate.Month() != 9 {
		t.Errorf("unexpected split date: %v", config.SplitDate)
	}
}

func TestLoadConfigEnvOverlay(t *testing.T) {
	t.Setenv("RAW_DATA_PATH", "/srv/extracts/cheques.txt")
	t.Setenv("CAST_POLICY", "lenient")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.RawDataPath != "/srv/extracts/cheques.txt" {
		t.Errorf("env override ignored: %s", config.RawDataPath)
	}
	if config.CastPolicy != operations.CastPolicyLenient {
		t.Errorf("expected lenient cast policy, got %s", config.CastPolicy)
	}
	if config.RedisAddress != "localhost:6379" {
		t.Errorf("expected redis address override, got %s", config.RedisAddress)
	}
}

func TestLoadConfigRejectsUnknownCastPolicy(t *testing.T) {
	t.Setenv("CAST_POLICY", "drop")

	_, err := LoadConfig()
	if !errors.Is(err, operations.ErrUnknownCastPolicy) {
		t.Fatalf("expected ErrUnknownCastPolicy, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	config.Schema = nil
	if err := config.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}

	config = DefaultConfig()
	config.ProcessedDir = ""
	if err := config.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}
