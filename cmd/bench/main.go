// Command bench runs a synthetic memoization workload against the cache
// and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/memocache/memo"
	"github.com/IvanBrykalov/memocache/metrics/prom"
	"github.com/IvanBrykalov/memocache/policy"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var (
		capacity  = flag.Int("cap", 100_000, "cache capacity (entries, fixed policy)")
		polName   = flag.String("policy", "fixed", "eviction trigger: fixed | unbounded | memory")
		threshold = flag.Uint64("reserve", 512<<20, "memory policy: bytes to keep available")
		typed     = flag.Bool("typed", false, "distinguish argument types in keys")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		keys        = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS       = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV       = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		computeCost = flag.Duration("cost", 0, "simulated computation latency per miss")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := prom.New(nil, "memo", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	var pol policy.Policy
	switch *polName {
	case "fixed":
		pol = policy.FixedCapacity(*capacity)
	case "unbounded":
		pol = policy.Unbounded()
	case "memory":
		pol = policy.MemoryPressure(*threshold, nil)
	default:
		log.Fatalf("unknown policy: %q (use fixed, unbounded or memory)", *polName)
	}
	c := memo.New[int](memo.Options[int]{
		Policy:  pol,
		Typed:   *typed,
		Metrics: metrics,
	})

	// ---- Run workload ----
	log.Printf("bench: policy=%s workers=%d keys=%d duration=%v", *polName, *workers, *keys, *duration)
	ctx := context.Background()
	deadline := time.Now().Add(*duration)

	var ops atomic.Int64
	var wg sync.WaitGroup
	wg.Add(*workers)
	for w := 0; w < *workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(*seed + int64(id)*9973))
			zipf := rand.NewZipf(r, *zipfS, *zipfV, uint64(*keys-1))
			for time.Now().Before(deadline) {
				k := int(zipf.Uint64())
				_, err := c.GetOrCompute(ctx, memo.Call{Args: []any{k}}, func(context.Context) (int, error) {
					if *computeCost > 0 {
						time.Sleep(*computeCost)
					}
					return k * k, nil
				})
				if err != nil {
					log.Fatalf("worker %d: %v", id, err)
				}
				ops.Add(1)
			}
		}(w)
	}
	wg.Wait()

	// ---- Report ----
	s := c.Stats()
	total := ops.Load()
	fmt.Printf("ops=%d (%.0f/s)\n", total, float64(total) / (*duration).Seconds())
	fmt.Printf("hits=%d misses=%d size=%d hit-rate=%.1f%%\n",
		s.Hits, s.Misses, s.Size, 100*s.Ratio())
}
