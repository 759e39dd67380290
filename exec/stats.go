package exec

import (
	"fmt"

	"github.com/squareup/blockexec/metrics"
	"github.com/uber-go/atomic"
)

// OperatorStats receives counters from a running PageIterator. Implementations must be safe to read from other
// goroutines while the iterator is being driven.
type OperatorStats interface {
	AddInput(positions int, dataSize int)

	AddOutput(page *Page)

	Finish()
}

// InMemoryOperatorStats keeps the counters in memory
type InMemoryOperatorStats struct {
	inputPositions  atomic.Int64
	inputDataSize   atomic.Int64
	outputPositions atomic.Int64
	outputPages     atomic.Int64
	finished        atomic.Bool
}

func NewInMemoryOperatorStats() *InMemoryOperatorStats {
	return &InMemoryOperatorStats{}
}

func (s *InMemoryOperatorStats) AddInput(positions int, dataSize int) {
	s.inputPositions.Add(int64(positions))
	s.inputDataSize.Add(int64(dataSize))
}

func (s *InMemoryOperatorStats) AddOutput(page *Page) {
	s.outputPositions.Add(int64(page.PositionCount()))
	s.outputPages.Inc()
}

func (s *InMemoryOperatorStats) Finish() {
	s.finished.Store(true)
}

func (s *InMemoryOperatorStats) InputPositions() int64 {
	return s.inputPositions.Load()
}

func (s *InMemoryOperatorStats) InputDataSize() int64 {
	return s.inputDataSize.Load()
}

func (s *InMemoryOperatorStats) OutputPositions() int64 {
	return s.outputPositions.Load()
}

func (s *InMemoryOperatorStats) OutputPages() int64 {
	return s.outputPages.Load()
}

func (s *InMemoryOperatorStats) IsFinished() bool {
	return s.finished.Load()
}

func (s *InMemoryOperatorStats) String() string {
	return fmt.Sprintf("input_positions=%d input_bytes=%d output_positions=%d output_pages=%d finished=%t",
		s.InputPositions(), s.InputDataSize(), s.OutputPositions(), s.OutputPages(), s.IsFinished())
}

// MetricsOperatorStats keeps the in memory counters and also reports them to a metrics.Factory, one counter
// series per operator name
type MetricsOperatorStats struct {
	*InMemoryOperatorStats
	inputPositions  metrics.Counter
	inputDataSize   metrics.Counter
	outputPositions metrics.Counter
	outputPages     metrics.Counter
	finished        metrics.Counter
}

func NewMetricsOperatorStats(factory metrics.Factory, operatorName string) (*MetricsOperatorStats, error) {
	s := &MetricsOperatorStats{InMemoryOperatorStats: NewInMemoryOperatorStats()}
	counters := []struct {
		counter *metrics.Counter
		name    string
		help    string
	}{
		{&s.inputPositions, "input_positions_total", "positions read by the operator"},
		{&s.inputDataSize, "input_bytes_total", "value bytes read by the operator"},
		{&s.outputPositions, "output_positions_total", "positions produced by the operator"},
		{&s.outputPages, "output_pages_total", "pages produced by the operator"},
		{&s.finished, "completed_total", "iterations run to completion"},
	}
	for _, c := range counters {
		counter, err := factory.CreateCounter(fmt.Sprintf("blockexec_%s_%s", operatorName, c.name), c.help)
		if err != nil {
			return nil, err
		}
		*c.counter = counter
	}
	return s, nil
}

func (s *MetricsOperatorStats) AddInput(positions int, dataSize int) {
	s.InMemoryOperatorStats.AddInput(positions, dataSize)
	s.inputPositions.Add(float64(positions))
	s.inputDataSize.Add(float64(dataSize))
}

func (s *MetricsOperatorStats) AddOutput(page *Page) {
	s.InMemoryOperatorStats.AddOutput(page)
	s.outputPositions.Add(float64(page.PositionCount()))
	s.outputPages.Inc()
}

func (s *MetricsOperatorStats) Finish() {
	s.InMemoryOperatorStats.Finish()
	s.finished.Inc()
}
