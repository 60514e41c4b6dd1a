// Command loadgen drives a running geocell server with a Zipf-skewed
// stream of covering queries and reports latency percentiles.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type Config struct {
	TargetURL       string
	Scheme          string
	Level           string
	Concurrency     int
	Duration        time.Duration
	ZipfS           float64
	ZipfV           float64
	QueryCount      int
	OutputPrefix    string
	RequestTimeout  time.Duration
	AppendTimestamp bool
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.TargetURL, "target", "http://localhost:8090/v1/cover", "Server /v1/cover URL")
	flag.StringVar(&cfg.Scheme, "scheme", "h3", "Grid scheme: s2|h3")
	flag.StringVar(&cfg.Level, "level", "adaptive", "Cell level, or \"adaptive\"")
	flag.IntVar(&cfg.Concurrency, "concurrency", 32, "Concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 60*time.Second, "Test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.QueryCount, "queries", 128, "Distinct queries in pool")
	flag.StringVar(&cfg.OutputPrefix, "out", "results/loadgen", "Output file prefix (JSON/CSV)")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.BoolVar(&cfg.AppendTimestamp, "append-ts", true, "Append timestamp to output prefix")
	flag.Parse()
	return cfg
}

type query struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

func (q query) String() string {
	return fmt.Sprintf("%.5f,%.5f,r=%.2fkm", q.Lat, q.Lng, q.RadiusKm)
}

// creates a mix of "hot" and "cold" query points for testing.
func makeQueries(count int, r *rand.Rand) []query {
	centers := [][2]float64{
		{59.3293, 18.0686}, // Stockholm
		{57.7089, 11.9746}, // Göteborg
		{55.6050, 13.0038}, // Malmö
		{65.5848, 22.1547}, // Luleå
	}
	queries := make([]query, 0, count)

	hotCount := int(math.Max(8, float64(count/4)))

	for i := 0; i < hotCount; i++ {
		c := centers[i%len(centers)]
		dLat, dLng := (r.Float64()-0.5)*0.2, (r.Float64()-0.5)*0.2
		queries = append(queries, query{
			Lat:      c[0] + dLat,
			Lng:      c[1] + dLng,
			RadiusKm: 0.5 + r.Float64()*3,
		})
	}

	// remaining queries random over sweden
	for len(queries) < count {
		queries = append(queries, query{
			Lat:      55 + r.Float64()*(66-55),
			Lng:      11 + r.Float64()*(24-11),
			RadiusKm: 0.5 + r.Float64()*15,
		})
	}
	return queries
}

type sample struct {
	Timestamp time.Time
	Latency   time.Duration
	Status    int
	ErrorMsg  string
	QueryIdx  int
	QueryStr  string
}

type summary struct {
	StartTime     time.Time `json:"start"`
	EndTime       time.Time `json:"end"`
	DurationSec   float64   `json:"duration_sec"`
	TotalRequests int64     `json:"total"`
	SuccessCount  int64     `json:"success"`
	ErrorCount    int64     `json:"errors"`
	ThroughputRPS float64   `json:"throughput_rps"`
	P50Ms         float64   `json:"p50_ms"`
	P95Ms         float64   `json:"p95_ms"`
	P99Ms         float64   `json:"p99_ms"`
	Concurrency   int       `json:"concurrency"`
	ZipfS         float64   `json:"zipf_s"`
	ZipfV         float64   `json:"zipf_v"`
	Queries       int       `json:"queries"`
	TargetURL     string    `json:"target"`
	Scheme        string    `json:"scheme"`
	Level         string    `json:"level"`
}

type aggregatedResult struct {
	total   int64
	success int64
	errors  int64
	latMs   []float64
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func main() {
	cfg := loadConfig()
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0o750); err != nil {
		log.Fatalf("mkdir results: %v", err)
	}

	prefix := cfg.OutputPrefix
	if cfg.AppendTimestamp {
		prefix = fmt.Sprintf("%s_%s", prefix, time.Now().UTC().Format("20060102_150405Z"))
	}

	seed := time.Now().UnixNano()
	r := rand.New(rand.NewSource(seed))

	queries := makeQueries(cfg.QueryCount, r)
	if len(queries) == 0 {
		log.Fatalf("no queries generated")
	}
	log.Printf("using %d synthetic queries", len(queries))

	imax := uint64(len(queries)) - 1

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 4 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:          1024,
			MaxIdleConnsPerHost:   256,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   4 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: cfg.RequestTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	csvPath := prefix + "_samples.csv"
	jsonPath := prefix + "_summary.json"
	csvFile, err := os.Create(filepath.Clean(csvPath))
	if err != nil {
		log.Printf("open csv: %v", err)
		return
	}
	defer func() { _ = csvFile.Close() }()
	csvWriter := csv.NewWriter(csvFile)

	samplesChan := make(chan sample, 4096)
	resultsChan := make(chan aggregatedResult, 1)
	go func() {
		_ = csvWriter.Write([]string{"timestamp", "latency_ms", "status", "error", "query_idx", "query"})
		var total, successCount, errorCount int64
		latencies := make([]float64, 0, 1<<20)
		for s := range samplesChan {
			total++
			if s.ErrorMsg == "" && s.Status >= 200 && s.Status < 300 {
				successCount++
				latencies = append(latencies, float64(s.Latency.Microseconds())/1000.0)
			} else {
				errorCount++
			}
			_ = csvWriter.Write([]string{
				s.Timestamp.UTC().Format(time.RFC3339Nano),
				fmt.Sprintf("%.3f", float64(s.Latency.Microseconds())/1000.0),
				fmt.Sprintf("%d", s.Status),
				s.ErrorMsg,
				fmt.Sprintf("%d", s.QueryIdx),
				s.QueryStr,
			})
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			log.Printf("csv flush error: %v", err)
		}
		resultsChan <- aggregatedResult{total: total, success: successCount, errors: errorCount, latMs: latencies}
	}()

	startTime := time.Now()
	log.Printf("loadgen start target=%s scheme=%s level=%s dur=%s conc=%d zipf(s=%.2f,v=%.2f) queries=%d",
		cfg.TargetURL, cfg.Scheme, cfg.Level, cfg.Duration, cfg.Concurrency, cfg.ZipfS, cfg.ZipfV, cfg.QueryCount)

	var wg sync.WaitGroup
	wg.Add(cfg.Concurrency)
	for workerID := 0; workerID < cfg.Concurrency; workerID++ {
		go func(id int) {
			defer wg.Done()

			rWorker := rand.New(rand.NewSource(seed + int64(id) + 1))
			zipfDist := rand.NewZipf(rWorker, cfg.ZipfS, cfg.ZipfV, imax)
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				v := zipfDist.Uint64()
				if v > uint64(math.MaxInt) {
					continue
				}
				idx := int(v)
				if idx >= len(queries) {
					continue
				}
				qry := queries[idx]

				u, _ := url.Parse(cfg.TargetURL)
				q := u.Query()
				q.Set("scheme", cfg.Scheme)
				q.Set("lat", fmt.Sprintf("%.5f", qry.Lat))
				q.Set("lng", fmt.Sprintf("%.5f", qry.Lng))
				q.Set("radius_km", fmt.Sprintf("%.3f", qry.RadiusKm))
				q.Set("level", strings.TrimSpace(cfg.Level))
				u.RawQuery = q.Encode()

				startReq := time.Now()
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
				req.Header.Set("Accept", "application/json")
				resp, err := httpClient.Do(req)
				latency := time.Since(startReq)

				result := sample{
					Timestamp: startReq,
					Latency:   latency,
					QueryIdx:  idx,
					QueryStr:  qry.String(),
				}

				if err != nil {
					result.ErrorMsg = err.Error()
				} else {
					result.Status = resp.StatusCode
					_, _ = io.Copy(io.Discard, resp.Body)
					_ = resp.Body.Close()
					if resp.StatusCode < 200 || resp.StatusCode >= 300 {
						result.ErrorMsg = fmt.Sprintf("status=%d", resp.StatusCode)
					}
				}

				select {
				case samplesChan <- result:
				case <-ctx.Done():
					return
				}
			}
		}(workerID)
	}

	go func() {
		<-ctx.Done()
		wg.Wait()
		close(samplesChan)
	}()

	aggResult := <-resultsChan
	endTime := time.Now()
	elapsed := endTime.Sub(startTime).Seconds()

	sort.Float64s(aggResult.latMs)

	runSummary := summary{
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		DurationSec:   elapsed,
		TotalRequests: aggResult.total,
		SuccessCount:  aggResult.success,
		ErrorCount:    aggResult.errors,
		ThroughputRPS: float64(aggResult.total) / elapsed,
		P50Ms:         percentile(aggResult.latMs, 50),
		P95Ms:         percentile(aggResult.latMs, 95),
		P99Ms:         percentile(aggResult.latMs, 99),
		Concurrency:   cfg.Concurrency,
		ZipfS:         cfg.ZipfS,
		ZipfV:         cfg.ZipfV,
		Queries:       cfg.QueryCount,
		TargetURL:     cfg.TargetURL,
		Scheme:        cfg.Scheme,
		Level:         cfg.Level,
	}

	jsonFile, err := os.Create(filepath.Clean(jsonPath))
	if err != nil {
		log.Printf("open json: %v", err)
		return
	}
	defer func() { _ = jsonFile.Close() }()
	enc := json.NewEncoder(jsonFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runSummary); err != nil {
		log.Printf("write summary: %v", err)
	}

	log.Printf("done: total=%d success=%d errors=%d rps=%.1f p50=%.2fms p95=%.2fms p99=%.2fms",
		runSummary.TotalRequests, runSummary.SuccessCount, runSummary.ErrorCount,
		runSummary.ThroughputRPS, runSummary.P50Ms, runSummary.P95Ms, runSummary.P99Ms)
}
