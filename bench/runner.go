package bench

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
	"github.com/squareup/blockexec/exec"
)

// Summary holds the measured iterations of one benchmark
type Summary struct {
	Name       string
	Iterations []*IterationResult
}

func (s *Summary) Mean() time.Duration {
	if len(s.Iterations) == 0 {
		return 0
	}
	var total time.Duration
	for _, it := range s.Iterations {
		total += it.Elapsed
	}
	return total / time.Duration(len(s.Iterations))
}

func (s *Summary) Min() time.Duration {
	var res time.Duration
	for i, it := range s.Iterations {
		if i == 0 || it.Elapsed < res {
			res = it.Elapsed
		}
	}
	return res
}

func (s *Summary) Max() time.Duration {
	var res time.Duration
	for _, it := range s.Iterations {
		if it.Elapsed > res {
			res = it.Elapsed
		}
	}
	return res
}

// Rows returns the input and output rows of an iteration, they are the same for every iteration
func (s *Summary) Rows() (int64, int64) {
	if len(s.Iterations) == 0 {
		return 0, 0
	}
	return s.Iterations[0].InputRows, s.Iterations[0].OutputRows
}

// RowsPerSecond is the input rate of the mean iteration
func (s *Summary) RowsPerSecond() float64 {
	mean := s.Mean()
	if mean == 0 {
		return 0
	}
	inputRows, _ := s.Rows()
	return float64(inputRows) / mean.Seconds()
}

// Runner runs benchmarks by name. Every benchmark runs the configured number of warmup iterations, which are
// not reported, followed by the measured iterations.
type Runner struct {
	lock      sync.Mutex
	env       *Environment
	factories map[string]BenchmarkFactory
}

func NewRunner(env *Environment) *Runner {
	r := &Runner{env: env, factories: make(map[string]BenchmarkFactory)}
	r.registerBenchmarks()
	return r
}

func (r *Runner) registerBenchmarks() {
	r.RegisterBenchmark(&HashAggBenchmarkFactory{})
	r.RegisterBenchmark(&PricingSummaryBenchmarkFactory{})
	r.RegisterBenchmark(&AlignmentBenchmarkFactory{})
}

func (r *Runner) RegisterBenchmark(factory BenchmarkFactory) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.factories[factory.Name()] = factory
}

// Names returns the registered benchmark names in sorted order
func (r *Runner) Names() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run runs the named benchmarks in order and writes the summaries to every writer
func (r *Runner) Run(names []string, writers ...ResultWriter) ([]*Summary, error) {
	summaries := make([]*Summary, 0, len(names))
	for _, name := range names {
		summary, err := r.runBenchmark(name)
		if err != nil {
			return nil, maybeConvertError(err)
		}
		summaries = append(summaries, summary)
	}
	for _, writer := range writers {
		if err := writer.Write(summaries); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// PrintResults runs the named benchmark once more and writes its output rows, ordered by its group columns
func (r *Runner) PrintResults(name string, out io.Writer) error {
	factory, err := r.factory(name)
	if err != nil {
		return err
	}
	benchmark, err := factory.CreateBenchmark(r.env)
	if err != nil {
		return maybeConvertError(err)
	}
	opBenchmark, ok := benchmark.(*operatorBenchmark)
	if !ok {
		return errors.NewIllegalStateError(fmt.Sprintf("benchmark %s does not produce rows", name))
	}
	stats, err := r.env.NewStats(name)
	if err != nil {
		return err
	}
	pages, err := exec.CollectPages(opBenchmark.op, stats)
	if err != nil {
		return maybeConvertError(err)
	}
	writeRows(out, opBenchmark.columns, exec.SortRows(pages, opBenchmark.sortChannels...))
	return nil
}

func (r *Runner) factory(name string) (BenchmarkFactory, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.NewUnknownBenchmarkError(name)
	}
	return factory, nil
}

func (r *Runner) runBenchmark(name string) (*Summary, error) {
	factory, err := r.factory(name)
	if err != nil {
		return nil, err
	}
	cfg := r.env.Config
	log.Infof("Running benchmark %s with %d warmup and %d measured iterations", name, cfg.WarmupIterations,
		cfg.MeasuredIterations)
	summary := &Summary{Name: name}
	for i := 0; i < cfg.WarmupIterations+cfg.MeasuredIterations; i++ {
		res, err := r.runIteration(factory)
		if err != nil {
			log.Errorf("benchmark %s failed %v", name, err)
			return nil, err
		}
		if i >= cfg.WarmupIterations {
			summary.Iterations = append(summary.Iterations, res)
		}
		log.Debugf("benchmark %s iteration %d took %s", name, i, res.Elapsed)
	}
	log.Infof("Benchmark %s completed, mean %s", name, summary.Mean())
	return summary, nil
}

func (r *Runner) runIteration(factory BenchmarkFactory) (*IterationResult, error) {
	start := time.Now()
	benchmark, err := factory.CreateBenchmark(r.env)
	if err != nil {
		return nil, err
	}
	res, err := benchmark.Run()
	if err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func maybeConvertError(err error) error {
	var execErr errors.ExecError
	if errors.As(err, &execErr) {
		return execErr
	}
	return common.LogInternalError(err)
}
