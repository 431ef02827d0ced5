package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sessiongate/sessiongate"
	"github.com/sessiongate/sessiongate/limit"
	"github.com/sessiongate/sessiongate/session"
)

type principalState struct {
	name string
	sid  string
	mu   sync.Mutex
}

func main() {
	var (
		principals  = flag.Int("principals", 10000, "number of distinct principals to drive")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (admit + churn)")
		maxSessions = flag.Int("max-sessions", 1, "per-principal session ceiling")
		strategy    = flag.String("strategy", "evict", "limit strategy: evict or block")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "sg", "session key prefix")
	)
	flag.Parse()

	if *principals <= 0 || *concurrency <= 0 || *ops <= 0 || *maxSessions <= 0 {
		fmt.Fprintln(os.Stderr, "principals, concurrency, ops, and max-sessions must be > 0")
		os.Exit(2)
	}

	var strat limit.Strategy
	switch *strategy {
	case "evict":
		strat = limit.StrategyEvictOldest
	case "block":
		strat = limit.StrategyBlock
	default:
		fmt.Fprintf(os.Stderr, "unknown strategy %q (want evict or block)\n", *strategy)
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := sessiongate.DefaultConfig()
	cfg.Limit.MaxSessions = *maxSessions
	cfg.Limit.Strategy = strat
	cfg.Session.RedisPrefix = *prefix

	engine, err := sessiongate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]principalState, *principals)
	fmt.Printf("seeding %d principals...\n", *principals)
	startSeed := time.Now()
	for i := 0; i < *principals; i++ {
		name := fmt.Sprintf("user-%d", i)
		sess, err := engine.AttemptLogin(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed login failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = principalState{name: name, sid: sess.SessionID}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	admitStats := runAdmitPhase(ctx, engine, states, *ops, *concurrency)
	churnStats := runChurnPhase(ctx, engine, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("admit", admitStats)
	printStats("churn", churnStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("metrics: allowed=%d rejected=%d evicted=%d revoked=%d store_failures=%d\n",
		snap.Counters[sessiongate.MetricAdmitAllowed],
		snap.Counters[sessiongate.MetricAdmitRejected],
		snap.Counters[sessiongate.MetricAdmitEvicted],
		snap.Counters[sessiongate.MetricSessionRevoked],
		snap.Counters[sessiongate.MetricStoreFailure],
	)
}

// runAdmitPhase repeatedly attempts logins for random principals. Under
// the evict strategy every attempt succeeds and displaces the previous
// session; under block most attempts are rejected at the ceiling.
// Rejections are expected behavior and tracked apart from hard failures.
func runAdmitPhase(ctx context.Context, engine *sessiongate.Engine, states []principalState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		rejected  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				t0 := time.Now()
				sess, err := engine.AttemptLogin(ctx, state.name)
				d := time.Since(t0)
				switch {
				case err == nil:
					state.sid = sess.SessionID
				default:
					if _, ok := sessiongate.IsRejection(err); ok {
						atomic.AddInt64(&rejected, 1)
					} else {
						atomic.AddInt64(&failures, 1)
					}
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	stats := computeStats(total, latencies, failures)
	stats.rejected = rejected
	return stats
}

// runChurnPhase revokes the tracked session for a random principal and
// immediately logs in again, exercising the revoke and admit paths
// back to back under contention.
func runChurnPhase(ctx context.Context, engine *sessiongate.Engine, states []principalState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				t0 := time.Now()
				_, err := engine.Revoke(ctx, state.sid)
				if err == nil {
					var sess *session.Session
					sess, err = engine.AttemptLogin(ctx, state.name)
					if err == nil {
						state.sid = sess.SessionID
					}
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	rejected int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d rejected=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.rejected,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
