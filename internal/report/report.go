// Package report benchmarks exact A* against hierarchical queries on the
// same endpoints and writes the timings as CSV.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/udisondev/navgrid/internal/geo"
)

const (
	MethodExact        = "astar"
	MethodHierarchical = "hierarchical"

	// DefaultRepetitions matches the reference harness: 100 runs per method.
	DefaultRepetitions = 100

	SamplesFile = "samples.csv"
	SummaryFile = "summary.csv"
)

// Options configures a benchmark run.
type Options struct {
	Start, Target geo.Pos
	Repetitions   int
}

// Sample is one timed query.
type Sample struct {
	Method    string  `csv:"method"`
	Iteration int     `csv:"iteration"`
	Micros    float64 `csv:"micros"`
	Waypoints int     `csv:"waypoints"`
	Cost      float64 `csv:"cost"`
	Outcome   string  `csv:"outcome"`
}

// Summary aggregates the samples of one method. Timings are microseconds.
type Summary struct {
	Method string  `csv:"method"`
	Count  int     `csv:"count"`
	Mean   float64 `csv:"mean_us"`
	StdDev float64 `csv:"stddev_us"`
	Min    float64 `csv:"min_us"`
	Median float64 `csv:"median_us"`
	Max    float64 `csv:"max_us"`
}

// Report is the result of Run.
type Report struct {
	Start, Target geo.Pos
	Cells         int
	Regions       int
	Samples       []Sample
	Summaries     []Summary
}

// Run times opts.Repetitions exact searches and as many hierarchical
// queries between the same endpoints. pf should be precomputed; otherwise
// hierarchical samples record a missing_route outcome.
func Run(ctx context.Context, pf *geo.Pathfinder, opts Options) (*Report, error) {
	if opts.Repetitions <= 0 {
		opts.Repetitions = DefaultRepetitions
	}
	if !pf.Precomputed() {
		slog.Warn("benchmarking without precomputed routes")
	}

	rep := &Report{
		Start:   opts.Start,
		Target:  opts.Target,
		Cells:   pf.Grid().Len(),
		Regions: pf.Regions().Len(),
		Samples: make([]Sample, 0, 2*opts.Repetitions),
	}

	for i := range opts.Repetitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		begin := time.Now()
		exact, err := pf.FindExactPath(opts.Start, opts.Target)
		elapsed := time.Since(begin)
		if err != nil {
			return nil, fmt.Errorf("exact query: %w", err)
		}
		outcome := "found"
		if exact.Empty() {
			outcome = geo.OutcomeUnreachable.String()
		}
		rep.Samples = append(rep.Samples, newSample(MethodExact, i, elapsed, exact, outcome))

		begin = time.Now()
		res, err := pf.Query(opts.Start, opts.Target)
		elapsed = time.Since(begin)
		if err != nil {
			return nil, fmt.Errorf("hierarchical query: %w", err)
		}
		rep.Samples = append(rep.Samples, newSample(MethodHierarchical, i, elapsed, res.Path, res.Outcome.String()))
	}

	rep.Summaries = []Summary{
		Summarize(MethodExact, rep.micros(MethodExact)),
		Summarize(MethodHierarchical, rep.micros(MethodHierarchical)),
	}
	return rep, nil
}

func newSample(method string, i int, d time.Duration, p geo.Path, outcome string) Sample {
	return Sample{
		Method:    method,
		Iteration: i,
		Micros:    float64(d.Nanoseconds()) / 1e3,
		Waypoints: len(p),
		Cost:      p.Cost(),
		Outcome:   outcome,
	}
}

func (r *Report) micros(method string) []float64 {
	var out []float64
	for _, s := range r.Samples {
		if s.Method == method {
			out = append(out, s.Micros)
		}
	}
	return out
}

// Summarize computes descriptive statistics over values.
func Summarize(method string, values []float64) Summary {
	s := Summary{Method: method, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		s.StdDev = 0
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// Summary returns the summary for method.
func (r *Report) Summary(method string) (Summary, bool) {
	for _, s := range r.Summaries {
		if s.Method == method {
			return s, true
		}
	}
	return Summary{}, false
}

// Speedup is the ratio of mean exact time to mean hierarchical time.
func (r *Report) Speedup() float64 {
	exact, ok1 := r.Summary(MethodExact)
	hier, ok2 := r.Summary(MethodHierarchical)
	if !ok1 || !ok2 || hier.Mean == 0 {
		return 0
	}
	return exact.Mean / hier.Mean
}

// Log prints the averages.
func (r *Report) Log() {
	for _, s := range r.Summaries {
		slog.Info("benchmark", "method", s.Method, "runs", s.Count,
			"mean_us", s.Mean, "stddev_us", s.StdDev, "median_us", s.Median)
	}
	slog.Info("benchmark speedup", "start", r.Start, "target", r.Target, "speedup", r.Speedup())
}

// WriteSamples writes every sample as CSV with a header row.
func (r *Report) WriteSamples(w io.Writer) error {
	if err := gocsv.Marshal(r.Samples, w); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return nil
}

// WriteSummaries writes the per-method summaries as CSV with a header row.
func (r *Report) WriteSummaries(w io.Writer) error {
	if err := gocsv.Marshal(r.Summaries, w); err != nil {
		return fmt.Errorf("writing summaries: %w", err)
	}
	return nil
}

// Save writes SamplesFile and SummaryFile into dir, creating it if needed.
func (r *Report) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := writeFile(filepath.Join(dir, SamplesFile), r.WriteSamples); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, SummaryFile), r.WriteSummaries)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return write(f)
}
