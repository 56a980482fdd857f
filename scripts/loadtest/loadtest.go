// Loadtest is a concurrent HTTP driver that measures throughput, latency
// percentiles, and backend distribution for the load balancer.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://localhost:8080/api/data -concurrency 10 -requests 1000
//	go run ./scripts/loadtest -url http://localhost:8080 -concurrency 50 -requests 5000 -csv results.csv -out summary.json
//
// Each request carries a fake client address in X-Forwarded-For so the
// ip-hash strategy sees a spread of clients. The backend a request landed
// on is read from the X-Backend-Server response header.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type backendStats struct {
	Count     int64           `json:"count"`
	Success   int64           `json:"success"`
	Failure   int64           `json:"failure"`
	Latencies []time.Duration `json:"-"`
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/api/data", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		method      = flag.String("method", "GET", "HTTP method")
		body        = flag.String("body", "", "Request body")
		contentType = flag.String("content-type", "application/json", "Content-Type header")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
		outCSV      = flag.String("csv", "", "Write per-request CSV to this file (optional)")
		verbose     = flag.Bool("v", false, "Verbose per-request logging to stdout")
	)
	flag.Parse()

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var total, success, failure atomic.Int64

	stats := make(map[string]*backendStats)
	var statsMu sync.Mutex

	var allLatencies []time.Duration
	var latMu sync.Mutex

	statusCodes := make(map[int]int64)
	var statusMu sync.Mutex

	var csvFile *os.File
	var csvWriter *csv.Writer
	var csvMu sync.Mutex
	if *outCSV != "" {
		f, err := os.Create(*outCSV)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create csv file: %v\n", err)
			os.Exit(1)
		}
		csvFile = f
		csvWriter = csv.NewWriter(f)
		csvWriter.Write([]string{"idx", "timestamp", "backend", "status", "duration_ms"})
	}

	testStart := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				total.Add(1)
				start := time.Now()

				req, err := http.NewRequest(*method, *url, bytes.NewBufferString(*body))
				if err != nil {
					failure.Add(1)
					continue
				}
				if *body != "" {
					req.Header.Set("Content-Type", *contentType)
				}

				// Fake a spread of client addresses for affinity testing.
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", (idx%50)+1))

				resp, err := client.Do(req)
				dur := time.Since(start)

				latMu.Lock()
				allLatencies = append(allLatencies, dur)
				latMu.Unlock()

				if err != nil {
					failure.Add(1)
					if *verbose {
						fmt.Printf("[%d] idx=%d error=%v\n", workerID, idx, err)
					}
					continue
				}

				statusMu.Lock()
				statusCodes[resp.StatusCode]++
				statusMu.Unlock()

				ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
				if ok {
					success.Add(1)
				} else {
					failure.Add(1)
				}

				backend := resp.Header.Get("X-Backend-Server")
				if backend == "" {
					backend = "(unknown)"
				}

				statsMu.Lock()
				bs, found := stats[backend]
				if !found {
					bs = &backendStats{}
					stats[backend] = bs
				}
				bs.Count++
				if ok {
					bs.Success++
				} else {
					bs.Failure++
				}
				bs.Latencies = append(bs.Latencies, dur)
				statsMu.Unlock()

				if csvWriter != nil {
					csvMu.Lock()
					csvWriter.Write([]string{
						fmt.Sprintf("%d", idx),
						time.Now().Format(time.RFC3339Nano),
						backend,
						fmt.Sprintf("%d", resp.StatusCode),
						fmt.Sprintf("%.3f", float64(dur.Microseconds())/1000.0),
					})
					csvMu.Unlock()
				}

				if *verbose {
					fmt.Printf("[%d] idx=%d backend=%s status=%d dur=%v\n", workerID, idx, backend, resp.StatusCode, dur)
				}

				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}(i)
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()

	if csvWriter != nil {
		csvWriter.Flush()
		csvFile.Close()
	}

	totalDuration := time.Since(testStart)
	throughput := float64(total.Load()) / totalDuration.Seconds()

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Requests: %d  Concurrency: %d\n", *requests, *concurrency)
	fmt.Printf("Total sent: %d  Success: %d  Failure: %d\n", total.Load(), success.Load(), failure.Load())
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", totalDuration, throughput)

	fmt.Println("\nStatus codes:")
	var scKeys []int
	for k := range statusCodes {
		scKeys = append(scKeys, k)
	}
	sort.Ints(scKeys)
	for _, k := range scKeys {
		fmt.Printf("  %d -> %d\n", k, statusCodes[k])
	}

	fmt.Println("\nBackend distribution & stats:")
	var backendKeys []string
	for k := range stats {
		backendKeys = append(backendKeys, k)
	}
	sort.Strings(backendKeys)
	for _, k := range backendKeys {
		bs := stats[k]
		fmt.Printf("  %s -> total=%d success=%d failure=%d\n", k, bs.Count, bs.Success, bs.Failure)
		if len(bs.Latencies) > 0 {
			sorted := sortedCopy(bs.Latencies)
			fmt.Printf("    latencies: samples=%d min=%v avg=%v max=%v p50=%v p90=%v p95=%v p99=%v\n",
				len(sorted), sorted[0], average(sorted), sorted[len(sorted)-1],
				percentileOf(sorted, 0.50), percentileOf(sorted, 0.90),
				percentileOf(sorted, 0.95), percentileOf(sorted, 0.99))
		}
	}

	if len(allLatencies) > 0 {
		sorted := sortedCopy(allLatencies)
		fmt.Println("\nOverall latencies:")
		fmt.Printf("  samples=%d min=%v avg=%v max=%v p50=%v p90=%v p95=%v p99=%v\n",
			len(sorted), sorted[0], average(sorted), sorted[len(sorted)-1],
			percentileOf(sorted, 0.50), percentileOf(sorted, 0.90),
			percentileOf(sorted, 0.95), percentileOf(sorted, 0.99))
	}

	if *outJSON != "" {
		writeSummary(*outJSON, *url, *requests, *concurrency,
			total.Load(), success.Load(), failure.Load(), totalDuration, throughput, stats, &statsMu)
	}

	if failure.Load() > 0 {
		os.Exit(2)
	}
}

func sortedCopy(latencies []time.Duration) []time.Duration {
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

func average(latencies []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range latencies {
		sum += d
	}
	return sum / time.Duration(len(latencies))
}

func percentileOf(sorted []time.Duration, pct float64) time.Duration {
	idx := int(float64(len(sorted)-1) * pct)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type backendSummary struct {
	Total   int64   `json:"total"`
	Success int64   `json:"success"`
	Failure int64   `json:"failure"`
	P50     float64 `json:"p50_ms"`
	P90     float64 `json:"p90_ms"`
	P95     float64 `json:"p95_ms"`
	P99     float64 `json:"p99_ms"`
}

func writeSummary(
	path, target string,
	requests, concurrency int,
	total, success, failure int64,
	duration time.Duration,
	throughput float64,
	stats map[string]*backendStats,
	statsMu *sync.Mutex,
) {
	report := map[string]any{
		"target":         target,
		"requests":       requests,
		"concurrency":    concurrency,
		"total_sent":     total,
		"success":        success,
		"failure":        failure,
		"duration_ms":    duration.Milliseconds(),
		"throughput_rps": throughput,
	}

	summaries := map[string]backendSummary{}
	statsMu.Lock()
	for k, v := range stats {
		bs := backendSummary{Total: v.Count, Success: v.Success, Failure: v.Failure}
		if len(v.Latencies) > 0 {
			sorted := sortedCopy(v.Latencies)
			bs.P50 = float64(percentileOf(sorted, 0.50).Milliseconds())
			bs.P90 = float64(percentileOf(sorted, 0.90).Milliseconds())
			bs.P95 = float64(percentileOf(sorted, 0.95).Milliseconds())
			bs.P99 = float64(percentileOf(sorted, 0.99).Milliseconds())
		}
		summaries[k] = bs
	}
	statsMu.Unlock()
	report["backends"] = summaries

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.Encode(report)
	fmt.Printf("\nWrote JSON summary to %s\n", path)
}
