package metrics

type Counter interface {
	Inc()

	Add(delta float64)
}

// Factory creates named counters. Creating a counter with a name that already exists returns the existing
// counter, so operators that are built repeatedly report into the same series.
type Factory interface {
	CreateCounter(name string, description string) (Counter, error)

	Start() error

	Stop() error
}
