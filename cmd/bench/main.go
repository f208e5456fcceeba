// Command bench runs a synthetic zipf workload against the cache, one worker
// group per affinity, and exposes optional Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/numacache/cache"
	"github.com/IvanBrykalov/numacache/internal/util"
	pmet "github.com/IvanBrykalov/numacache/metrics/prom"
	"github.com/IvanBrykalov/numacache/topology"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/arc/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

// kv is the minimal surface the workload needs; both the shard table and the
// ARC baseline are driven through it.
type kv interface {
	get(a cache.Affinity, k string) bool
	set(a cache.Affinity, k, v string)
}

type tableKV struct{ *cache.ShardTable[string, string] }

func (t tableKV) get(a cache.Affinity, k string) bool { _, ok := t.Get(a, k); return ok }
func (t tableKV) set(a cache.Affinity, k, v string)   { t.Insert(a, k, v) }

// arcKV ignores affinities: one global ARC sized to the table's total capacity.
type arcKV struct{ *arc.ARCCache[string, string] }

func (c arcKV) get(_ cache.Affinity, k string) bool { _, ok := c.Get(k); return ok }
func (c arcKV) set(_ cache.Affinity, k, v string)   { c.Add(k, v) }

type result struct {
	ops, reads, writes, hits uint64
	elapsed                  time.Duration
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(2)
	}
	log := newLogger(cfg)

	affs, cpus, err := affinities(cfg.Affinities)
	if err != nil {
		log.Error("topology", "err", err)
		os.Exit(1)
	}

	metrics := pmet.New(nil, "numacache", "bench", nil)
	if cfg.MetricsAddr != "" {
		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Info("metrics: serving", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, r); err != nil {
				log.Error("metrics server", "err", err)
			}
		}()
	}

	opt := cache.Options[string, string]{
		Affinities:       affs,
		CapacityPerShard: cfg.Capacity,
		Metrics:          metrics,
		Logger:           log,
	}
	if cfg.Pin {
		p, err := topology.NewPinner(cpus)
		if err != nil {
			log.Error("pinner", "err", err)
			os.Exit(1)
		}
		opt.Pinner = p
	}

	start := time.Now()
	c, err := cache.New(opt)
	if err != nil {
		log.Error("build cache", "err", err)
		os.Exit(1)
	}
	log.Info("cache built", "shards", c.NumShards(), "took", time.Since(start))

	res, err := run(cfg, affs, tableKV{c})
	if err != nil {
		log.Error("workload", "err", err)
		os.Exit(1)
	}
	report("sieve", cfg, len(affs), res)

	st := c.Stats()
	for _, s := range st.Shards {
		fmt.Printf("  affinity=%d len=%d hits=%d misses=%d evictions=%d\n",
			s.Affinity, s.Len, s.Hits, s.Misses, s.Evictions)
	}
	fmt.Printf("  Len()=%d filter: bits=%d probes=%d fill=%.3f est_fpr=%.5f\n",
		c.Len(), st.FilterBits, st.FilterProbes, st.FilterFillRatio, st.FilterFalsePositiveRate)

	if cfg.Baseline == "arc" {
		a, err := arc.NewARC[string, string](cfg.Capacity * len(affs))
		if err != nil {
			log.Error("arc baseline", "err", err)
			os.Exit(1)
		}
		res, err := run(cfg, affs, arcKV{a})
		if err != nil {
			log.Error("workload", "err", err)
			os.Exit(1)
		}
		report("arc", cfg, len(affs), res)
	}
}

// affinities picks the affinity tokens and their CPU sets: an explicit count
// maps one affinity per allowed CPU (round-robin), 0 detects NUMA nodes and
// falls back to a CPU-count default.
func affinities(n int) ([]cache.Affinity, topology.Map, error) {
	if n <= 0 {
		if nodes, err := topology.Nodes(topology.SysfsNodeRoot); err == nil {
			affs, m := topology.FromNodes(nodes)
			return affs, m, nil
		}
		n = util.ReasonableShardCount()
	}
	allowed, err := topology.Allowed()
	if err != nil {
		return nil, nil, err
	}
	affs, m := topology.PerCPU(n)
	for a := range m {
		m[a] = []int{allowed[int(a)%len(allowed)]}
	}
	return affs, m, nil
}

// run preloads each shard and then drives the workload for cfg.Duration.
// Worker id w is bound to affinity affs[w%len(affs)].
func run(cfg config, affs []cache.Affinity, c kv) (result, error) {
	pl := cfg.Preload
	if pl == 0 {
		pl = cfg.Capacity / 2
	}
	for i := 0; i < pl*len(affs); i++ {
		c.set(affs[i%len(affs)], "k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	keysMax := uint64(cfg.Keys - 1)

	var reads, writes, hits, total atomic.Uint64
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration.Duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		a := affs[w%len(affs)]
		seed := cfg.Seed + int64(w)*9973
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			r := rand.New(rand.NewSource(seed))
			z := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, keysMax)
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				k := "k:" + strconv.FormatUint(z.Uint64(), 10)
				total.Add(1)
				if int(r.Int31n(100)) < cfg.ReadPct {
					reads.Add(1)
					if c.get(a, k) {
						hits.Add(1)
					}
				} else {
					writes.Add(1)
					c.set(a, k, "v"+strconv.Itoa(r.Int()))
				}
			}
		})
	}
	err := g.Wait()
	return result{
		ops:     total.Load(),
		reads:   reads.Load(),
		writes:  writes.Load(),
		hits:    hits.Load(),
		elapsed: time.Since(start),
	}, err
}

func report(name string, cfg config, shards int, r result) {
	hitRate := 0.0
	if r.reads > 0 {
		hitRate = float64(r.hits) / float64(r.reads) * 100
	}
	fmt.Printf("[%s] shards=%d cap/shard=%d workers=%d keys=%d dur=%v seed=%d\n",
		name, shards, cfg.Capacity, cfg.Workers, cfg.Keys, r.elapsed, cfg.Seed)
	fmt.Printf("  ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		r.ops, float64(r.ops)/r.elapsed.Seconds(), r.reads, r.writes)
	fmt.Printf("  hits=%d  misses=%d  hit-rate=%.2f%%\n", r.hits, r.reads-r.hits, hitRate)
}

func newLogger(cfg config) *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(cfg.LogLevel, "debug") {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
