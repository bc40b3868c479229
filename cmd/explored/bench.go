package main

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1F47E/geo-explored/pkg/explored"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/1F47E/geo-explored/pkg/store/memory"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type BenchmarkResult struct {
	Backend       string
	Operation     string
	Total         int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	OpsPerSec     float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	TotalResults  int64
}

var (
	benchPoints  int
	benchQueries int
	benchWorkers int
	benchBackend string
	benchBoxSize float64
	benchSpread  float64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the in-memory point sets",
	Long: `Insert random fixes from concurrent workers into a fresh in-memory index,
then run random viewport queries and explored checks against it.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchPoints, "points", "p", 200000, "Number of fixes to insert")
	benchCmd.Flags().IntVarP(&benchQueries, "queries", "q", 10000, "Number of queries to run")
	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")
	benchCmd.Flags().StringVarP(&benchBackend, "backend", "b", "all", "Point set: grid|rtree|all")
	benchCmd.Flags().Float64Var(&benchBoxSize, "box-size", 0.01, "Query box size in degrees")
	benchCmd.Flags().Float64Var(&benchSpread, "spread", 0.5, "Side of the area fixes are drawn from, in degrees")
}

func runBench(cmd *cobra.Command, args []string) error {
	backends := []string{benchBackend}
	if benchBackend == "all" {
		backends = []string{explored.BackendGrid, explored.BackendRTree}
	}
	if benchWorkers < 1 {
		benchWorkers = 1
	}

	out := cmd.OutOrStdout()
	for _, backend := range backends {
		set, err := explored.NewSet(backend)
		if err != nil {
			return err
		}
		index := explored.New(memory.New(), explored.WithSet(set), explored.WithLogger(zerolog.Nop()))

		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%s: inserting %d fixes with %d workers...", backend, benchPoints, benchWorkers)))
		inserts, added, err := benchInsert(cmd.Context(), index)
		if err != nil {
			return err
		}
		inserts.Backend = backend
		printResult(cmd, inserts, [2]string{"Explored points", count(int(added))})

		queries := benchRun(index, "query", func(r *rand.Rand) (int, error) {
			lat := 45 + r.Float64()*(benchSpread-benchBoxSize)
			lon := 10 + r.Float64()*(benchSpread-benchBoxSize)
			points, err := index.Query(context.Background(), models.NewBoundingBox(lat, lon, lat+benchBoxSize, lon+benchBoxSize))
			return len(points), err
		})
		queries.Backend = backend
		printResult(cmd, queries, [2]string{"Avg results", fmt.Sprintf("%.2f", float64(queries.TotalResults)/float64(max(queries.Total, 1)))})

		checks := benchRun(index, "check", func(r *rand.Rand) (int, error) {
			ok, err := index.IsExplored(context.Background(), randomFix(r))
			if ok {
				return 1, err
			}
			return 0, err
		})
		checks.Backend = backend
		printResult(cmd, checks, [2]string{"Hit rate", fmt.Sprintf("%.1f%%", 100*float64(checks.TotalResults)/float64(max(checks.Total, 1)))})

		if err := index.CheckInvariant(); err != nil {
			return err
		}
	}
	return nil
}

func randomFix(r *rand.Rand) models.GeoPoint {
	return models.NewGeoPoint(45+r.Float64()*benchSpread, 10+r.Float64()*benchSpread)
}

// benchInsert splits the fixes between workers, each inserting its share
func benchInsert(ctx context.Context, index *explored.Index) (BenchmarkResult, int64, error) {
	var added atomic.Int64
	batchSize := max(benchPoints/benchWorkers, 1)

	g, _ := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < benchWorkers; w++ {
		from := w * batchSize
		to := from + batchSize
		if w == benchWorkers-1 {
			to = benchPoints
		}
		if from >= to {
			continue
		}
		seed := int64(w)
		g.Go(func() error {
			r := rand.New(rand.NewSource(seed))
			for i := from; i < to; i++ {
				res, err := index.Insert(randomFix(r))
				if err != nil {
					return err
				}
				if res == explored.Added {
					added.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BenchmarkResult{}, 0, err
	}
	total := time.Since(start)

	return BenchmarkResult{
		Operation:     "insert",
		Total:         benchPoints,
		TotalDuration: total,
		AvgDuration:   total / time.Duration(max(benchPoints, 1)),
		OpsPerSec:     float64(benchPoints) / total.Seconds(),
	}, added.Load(), nil
}

// benchRun feeds benchQueries jobs to a worker pool and times each one
func benchRun(index *explored.Index, op string, fn func(r *rand.Rand) (int, error)) BenchmarkResult {
	var (
		totalResults atomic.Int64
		minDuration  = time.Hour
		maxDuration  time.Duration
		sumDuration  time.Duration
		done         int
		mu           sync.Mutex
	)

	startTime := time.Now()

	queryCh := make(chan int, benchQueries)
	var wg sync.WaitGroup

	wg.Add(benchWorkers)
	for w := 0; w < benchWorkers; w++ {
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))

			for range queryCh {
				queryStart := time.Now()
				n, err := fn(r)
				queryDuration := time.Since(queryStart)
				if err != nil {
					continue
				}
				totalResults.Add(int64(n))

				mu.Lock()
				done++
				sumDuration += queryDuration
				minDuration = min(minDuration, queryDuration)
				maxDuration = max(maxDuration, queryDuration)
				mu.Unlock()
			}
		}(int64(1000 + w))
	}

	for i := 0; i < benchQueries; i++ {
		queryCh <- i
	}
	close(queryCh)
	wg.Wait()
	totalDuration := time.Since(startTime)

	result := BenchmarkResult{
		Operation:     op,
		Total:         done,
		TotalDuration: totalDuration,
		OpsPerSec:     float64(done) / totalDuration.Seconds(),
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalResults:  totalResults.Load(),
	}
	if done > 0 {
		result.AvgDuration = sumDuration / time.Duration(done)
	}
	return result
}

func printResult(cmd *cobra.Command, r BenchmarkResult, extra [2]string) {
	rows := [][2]string{
		{"Operations", count(r.Total)},
		{"Total duration", r.TotalDuration.Round(time.Microsecond).String()},
		{"Average", r.AvgDuration.String()},
		{"Ops/second", fmt.Sprintf("%.0f", r.OpsPerSec)},
	}
	if r.MaxDuration > 0 {
		rows = append(rows,
			[2]string{"Min", r.MinDuration.String()},
			[2]string{"Max", r.MaxDuration.String()},
		)
	}
	rows = append(rows, extra)
	fmt.Fprintln(cmd.OutOrStdout(), summary(fmt.Sprintf("%s / %s", r.Backend, r.Operation), rows))
}
