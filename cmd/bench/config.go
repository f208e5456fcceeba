package main

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// config holds every bench knob. Flags fill it first; a TOML file given with
// -config overrides any field it sets.
type config struct {
	Affinities int    `toml:"affinities"` // 0 = one per NUMA node, else per allowed CPU
	Capacity   int    `toml:"capacity"`   // per shard
	Pin        bool   `toml:"pin"`
	Baseline   string `toml:"baseline"` // "" or "arc"

	Workers  int      `toml:"workers"`
	Duration duration `toml:"duration"`
	ReadPct  int      `toml:"reads"`
	Keys     int      `toml:"keys"`
	ZipfS    float64  `toml:"zipf_s"`
	ZipfV    float64  `toml:"zipf_v"`
	Seed     int64    `toml:"seed"`
	Preload  int      `toml:"preload"`

	MetricsAddr string `toml:"http"`
	LogFile     string `toml:"log_file"`
	LogLevel    string `toml:"log_level"`
}

// duration lets TOML files say duration = "30s".
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func parseConfig(args []string) (config, error) {
	cfg := config{Duration: duration{10 * time.Second}}
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)

	var path string
	fs.StringVar(&path, "config", "", "TOML file overriding flag values")
	fs.IntVar(&cfg.Affinities, "affinities", 0, "number of affinities/shards (0 = detect NUMA nodes)")
	fs.IntVar(&cfg.Capacity, "cap", 100_000, "per-shard capacity (entries)")
	fs.BoolVar(&cfg.Pin, "pin", false, "allocate each shard pinned to its CPUs")
	fs.StringVar(&cfg.Baseline, "baseline", "", "also run the workload against: arc")

	fs.IntVar(&cfg.Workers, "workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
	fs.DurationVar(&cfg.Duration.Duration, "duration", cfg.Duration.Duration, "benchmark duration")
	fs.IntVar(&cfg.ReadPct, "reads", 80, "read percentage [0..100]")
	fs.IntVar(&cfg.Keys, "keys", 1_000_000, "keyspace size")
	fs.Float64Var(&cfg.ZipfS, "zipf_s", 1.1, "Zipf s > 1 (skew)")
	fs.Float64Var(&cfg.ZipfV, "zipf_v", 1.0, "Zipf v")
	fs.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "random seed")
	fs.IntVar(&cfg.Preload, "preload", 0, "preload entries per shard (0 = cap/2)")

	fs.StringVar(&cfg.MetricsAddr, "http", ":8080", "serve Prometheus metrics at addr (empty = disabled)")
	fs.StringVar(&cfg.LogFile, "log_file", "", "write logs to a rotated file instead of stderr")
	fs.StringVar(&cfg.LogLevel, "log_level", "info", "log level: debug | info")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch {
	case c.Capacity < 1:
		return fmt.Errorf("cap must be >= 1, got %d", c.Capacity)
	case c.Keys < 2:
		return fmt.Errorf("keys must be >= 2, got %d", c.Keys)
	case c.ReadPct < 0 || c.ReadPct > 100:
		return fmt.Errorf("reads must be in [0..100], got %d", c.ReadPct)
	case c.ZipfS <= 1:
		return fmt.Errorf("zipf_s must be > 1, got %v", c.ZipfS)
	case c.ZipfV < 1:
		return fmt.Errorf("zipf_v must be >= 1, got %v", c.ZipfV)
	case c.Baseline != "" && c.Baseline != "arc":
		return fmt.Errorf("unknown baseline %q (use arc)", c.Baseline)
	}
	return nil
}
