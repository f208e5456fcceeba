package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseConfig_FileOverridesFlags(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bench.toml")
	body := `
affinities = 2
capacity = 512
duration = "250ms"
baseline = "arc"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseConfig([]string{"-cap", "64", "-reads", "90", "-config", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Capacity != 512 || cfg.Affinities != 2 || cfg.Baseline != "arc" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ReadPct != 90 {
		t.Fatalf("flag value lost: reads=%d", cfg.ReadPct)
	}
	if cfg.Duration.Duration != 250*time.Millisecond {
		t.Fatalf("duration = %v", cfg.Duration.Duration)
	}
}

func TestParseConfig_Validation(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"-cap", "0"},
		{"-reads", "101"},
		{"-zipf_s", "1"},
		{"-zipf_v", "0.5"},
		{"-baseline", "lfu"},
	} {
		if _, err := parseConfig(args); err == nil {
			t.Fatalf("args %v must be rejected", args)
		}
	}
}
