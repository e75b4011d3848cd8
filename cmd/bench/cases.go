// README: Benchmark test cases derived from the search pipeline's
// end-to-end scenarios (spec §8); includes HTTP, DB, Redis, and performance
// checks against a running platefinder-api instance.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "job store DB reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured (memory job store)"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "L2 cache / push channel reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured (memory cache/channel)"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "API: healthz reachable",
			Focus: "liveness",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/healthz")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != 200 {
					return Result{Status: "FAIL", Latency: time.Since(start), Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},

		// S1 — simple latin, no location service.
		httpCase("Search: simple latin, sync mode (S1)", base+"/api/v1/search", map[string]any{
			"query": "pizza in Ashdod",
			"mode":  "sync",
		}, []int{200}, []int{501, 404}),

		httpCase("Search: missing query -> 400", base+"/api/v1/search", map[string]any{
			"mode": "sync",
		}, []int{400}, []int{501, 404}),

		// S2 — near-me, coordinates provided, async mode.
		httpCase("Search: near-me with coordinates, async (S2)", base+"/api/v1/search", map[string]any{
			"query":        "pizza near me",
			"userLocation": map[string]any{"lat": 32.0853, "lng": 34.7818},
			"mode":         "async",
		}, []int{202}, []int{501, 404}),

		// S3 — near-me, no coordinates -> LOCATION_REQUIRED, still HTTP 200.
		httpCaseExpectBody("Search: near-me without coordinates (S3)", base+"/api/v1/search", map[string]any{
			"query": "מסעדות לידי",
			"mode":  "sync",
		}, "LOCATION_REQUIRED"),

		// S4 — budget filter.
		httpCase("Search: budget filter (S4)", base+"/api/v1/search", map[string]any{
			"query": "cheap pizza in Tel Aviv",
			"mode":  "sync",
		}, []int{200}, []int{501, 404}),

		httpCaseMethod("Search: result polling for unknown job -> 404", http.MethodGet, base+"/api/v1/search/does-not-exist/result", nil, []int{404}, []int{501}),

		manualCase("Search: S5 open-now mixed-hours stats", "needs a provider stub returning 10 candidates (3 open, 2 closed, 5 unknown) to assert stats={before:10,after:8,removed:2,unknownExcluded:0}"),
		manualCase("Search: S6 gate timeout + smart skip", "needs the gate call forced to time out to observe intent_full_skipped"),

		httpCase("Auth: session mint without bearer -> 400", base+"/api/v1/auth/session", map[string]any{}, []int{400}, []int{501, 404}),

		httpCaseMethod("Auth: whoami without credentials -> 401", http.MethodGet, base+"/api/v1/auth/whoami", nil, []int{401}, []int{501, 404}),

		httpCase("Analytics: ingest events", base+"/api/v1/analytics/events", map[string]any{
			"events": []map[string]any{{"name": "result_viewed", "clientTimestamp": time.Now().Unix()}},
		}, []int{202}, []int{501, 404}),

		httpCaseMethod("Photo: malformed reference -> 400", http.MethodGet, base+"/api/v1/photos/not-a-valid-ref", nil, []int{400}, []int{501, 404}),

		manualCase("Photo: credentialed URL never leaks", "grep search responses for `key=` per spec §6/§9 — none should ever appear"),

		{
			Name:  "Concurrency: identical searches dedupe via L0",
			Focus: "spec §8 property 7 — one provider call, one L2 write",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentIdenticalSearch(ctx, r, base+"/api/v1/search")
			},
		},
		manualCase("Concurrency: cache key stability across processes", "property test: permute parameter insertion order, assert identical key hash (spec §8 property 10)"),

		manualCase("Error: provider down -> PROVIDER_ERROR", "needs the provider API key revoked or provider host unreachable"),
		manualCase("Error: shared store required but unreachable -> fail-fast at boot", "needs PLATEFINDER_DB_DSN set to an unreachable host before starting the server"),

		{
			Name:  "Perf: search throughput (sync mode)",
			Focus: "sustained concurrent search requests",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/v1/search", map[string]any{
					"query": "sushi in Haifa",
					"mode":  "sync",
				})
			},
		},
	}
}

func httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return httpCaseMethod(name, http.MethodPost, url, body, okStatuses, pendingStatuses)
}

func httpCaseMethod(name, method, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = strings.NewReader(string(b))
			}
			req, _ := http.NewRequestWithContext(ctx, method, url, reader)
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if contains(pendingStatuses, resp.StatusCode) {
				return Result{Status: "PENDING", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

// httpCaseExpectBody asserts a 200 response whose body contains needle
// (used for scenarios that surface their failure-reason inside a 200
// SearchResponse envelope rather than an HTTP error status — spec §3/§7).
func httpCaseExpectBody(name, url string, body any, needle string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			b, _ := json.Marshal(body)
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)
			latency := time.Since(start)

			if resp.StatusCode != 200 {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if !strings.Contains(string(raw), needle) {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("expected %q in body", needle)}
			}
			return Result{Status: "PASS", Latency: latency}
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Manual",
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

// concurrentIdenticalSearch fires the same query+coordinates concurrently
// and checks every response completed without a transport error; it cannot
// observe the provider's own call count from outside the process, so a true
// L0-dedupe assertion needs the provider mocked — this is the outside-the-box
// half of spec §8 property 7 (every concurrent caller still gets an answer).
func concurrentIdenticalSearch(ctx context.Context, r *Runner, url string) Result {
	payload := map[string]any{
		"query":        "ramen near me",
		"userLocation": map[string]any{"lat": 32.0853, "lng": 34.7818},
		"mode":         "sync",
	}
	b, _ := json.Marshal(payload)
	wg := sync.WaitGroup{}
	ok := 0
	mu := sync.Mutex{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			mu.Lock()
			if resp.StatusCode == 200 {
				ok++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if ok == 0 {
		return Result{Status: "FAIL", Note: "no concurrent request completed"}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("completed=%d/%d", ok, r.cfg.Concurrency)}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}
