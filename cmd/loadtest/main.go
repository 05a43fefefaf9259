// Command loadtest drives concurrent homophone queries against a running
// searcher and reports throughput and latency split by cache hits and
// misses, along with how many responses were truncated or rejected.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

var defaultQueries = []string{
	"ice cream",
	"here",
	"pajamas here",
	"four candles",
	"a nice cold hour",
	"recognize speech",
	"the sons raise meat",
	"some others",
	"night rate",
	"euthanasia",
	"grey day",
	"we'll wait",
	"mint aid",
	"a name",
	"either way",
}

type searchResponse struct {
	CacheHit  bool `json:"cache_hit"`
	Truncated bool `json:"truncated"`
	Total     int  `json:"total"`
}

// sample is one completed request. status is 0 when the transport failed.
type sample struct {
	status  int
	elapsed time.Duration
	body    searchResponse
}

// recorder collects samples from all workers.
type recorder struct {
	mu      sync.Mutex
	samples []sample
}

func (r *recorder) add(s sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

// summary is the report for one load run.
type summary struct {
	Requests   int
	ByStatus   map[int]int
	CacheHit   latencySummary
	CacheMiss  latencySummary
	Truncated  int
	AvgPhrases float64
}

type latencySummary struct {
	Count         int
	P50, P95, Max time.Duration
}

func summarize(samples []sample) summary {
	s := summary{Requests: len(samples), ByStatus: make(map[int]int)}
	var hits, misses []time.Duration
	var phrases int
	for _, sm := range samples {
		s.ByStatus[sm.status]++
		if sm.status != http.StatusOK {
			continue
		}
		if sm.body.CacheHit {
			hits = append(hits, sm.elapsed)
		} else {
			misses = append(misses, sm.elapsed)
		}
		if sm.body.Truncated {
			s.Truncated++
		}
		phrases += sm.body.Total
	}
	if ok := len(hits) + len(misses); ok > 0 {
		s.AvgPhrases = float64(phrases) / float64(ok)
	}
	s.CacheHit = summarizeLatency(hits)
	s.CacheMiss = summarizeLatency(misses)
	return s
}

func summarizeLatency(d []time.Duration) latencySummary {
	if len(d) == 0 {
		return latencySummary{}
	}
	slices.Sort(d)
	return latencySummary{
		Count: len(d),
		P50:   d[(len(d)-1)*50/100],
		P95:   d[(len(d)-1)*95/100],
		Max:   d[len(d)-1],
	}
}

func (s summary) print(w io.Writer, duration time.Duration) {
	fmt.Fprintf(w, "requests: %d (%.1f/s)\n", s.Requests, float64(s.Requests)/duration.Seconds())
	codes := make([]int, 0, len(s.ByStatus))
	for code := range s.ByStatus {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		label := fmt.Sprint(code)
		if code == 0 {
			label = "transport error"
		}
		fmt.Fprintf(w, "  %s: %d\n", label, s.ByStatus[code])
	}
	fmt.Fprintf(w, "truncated: %d, avg phrases: %.1f\n", s.Truncated, s.AvgPhrases)
	for _, row := range []struct {
		name string
		l    latencySummary
	}{{"cache hit", s.CacheHit}, {"cache miss", s.CacheMiss}} {
		fmt.Fprintf(w, "%-10s n=%-7d p50=%-10s p95=%-10s max=%s\n", row.name, row.l.Count, row.l.P50, row.l.P95, row.l.Max)
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	limit := flag.Int("limit", 50, "phrases requested per query")
	queryFile := flag.String("queries", "", "file with one query per line (default: built-in set)")
	flag.Parse()

	queries := defaultQueries
	if *queryFile != "" {
		var err error
		if queries, err = readQueries(*queryFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("load testing %s with %d workers for %s over %d queries\n",
		*baseURL, *concurrency, *duration, len(queries))

	samples := run(*baseURL, *concurrency, *duration, *limit, queries)
	s := summarize(samples)
	s.print(os.Stdout, *duration)
	if s.Requests == 0 || s.ByStatus[0] == s.Requests {
		fmt.Fprintln(os.Stderr, "no request reached the service; is it running?")
		os.Exit(1)
	}
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening queries: %w", err)
	}
	defer f.Close()
	var queries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" && !strings.HasPrefix(q, "#") {
			queries = append(queries, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries in %s", path)
	}
	return queries, nil
}

func run(baseURL string, concurrency int, duration time.Duration, limit int, queries []string) []sample {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	rec := &recorder{}
	var wg sync.WaitGroup
	for worker := range concurrency {
		wg.Go(func() {
			for i := worker; ctx.Err() == nil; i++ {
				q := queries[i%len(queries)]
				target := fmt.Sprintf("%s/api/v1/homophones?q=%s&limit=%d", baseURL, url.QueryEscape(q), limit)
				if s, ok := query(ctx, client, target); ok {
					rec.add(s)
				}
			}
		})
	}
	wg.Wait()
	return rec.samples
}

// query issues one request. ok is false when the run ended mid-request.
func query(ctx context.Context, client *http.Client, target string) (sample, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return sample{}, false
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return sample{}, false
		}
		return sample{elapsed: time.Since(start)}, true
	}
	defer resp.Body.Close()
	s := sample{status: resp.StatusCode}
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&s.body); err != nil && ctx.Err() != nil {
			return sample{}, false
		}
	}
	s.elapsed = time.Since(start)
	return s, true
}
