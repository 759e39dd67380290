package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/conf"
	"github.com/squareup/blockexec/errors"
	"github.com/squareup/blockexec/metrics"
)

type Factory struct {
	config     conf.Config
	lock       sync.Mutex
	registry   *prometheus.Registry
	counters   map[string]*Counter
	httpServer *http.Server
	started    bool
}

func NewFactory(config conf.Config) *Factory {
	return &Factory{
		config:   config,
		registry: prometheus.NewRegistry(),
		counters: make(map[string]*Counter),
	}
}

func (f *Factory) CreateCounter(name string, description string) (metrics.Counter, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.started {
		return nil, errors.New("not started")
	}
	if counter, ok := f.counters[name]; ok {
		return counter, nil
	}
	pCounter := promauto.With(f.registry).NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: description,
	})
	counter := &Counter{pCounter: pCounter}
	f.counters[name] = counter
	return counter, nil
}

// Gather returns the current value of every counter, keyed by name
func (f *Factory) Gather() (map[string]float64, error) {
	families, err := f.registry.Gather()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	res := make(map[string]float64, len(families))
	for _, family := range families {
		for _, m := range family.GetMetric() {
			if c := m.GetCounter(); c != nil {
				res[family.GetName()] += c.GetValue()
			}
		}
	}
	return res, nil
}

func (f *Factory) Start() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.started {
		return errors.New("already started")
	}
	metricsListenAddr := conf.DefaultMetricsHTTPListenAddr
	if f.config.MetricsHTTPListenAddr != "" {
		metricsListenAddr = f.config.MetricsHTTPListenAddr
	}
	f.started = true
	if !f.config.MetricsEnabled {
		return nil
	}
	f.httpServer = &http.Server{Addr: metricsListenAddr, Handler: promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})}
	go func(srv *http.Server) {
		log.Debugf("starting prometheus http server on address %s", metricsListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("prometheus http export server failed to listen %v", err)
		}
	}(f.httpServer)
	return nil
}

func (f *Factory) Stop() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.started {
		return errors.New("not started")
	}
	f.started = false
	if f.httpServer != nil {
		err := f.httpServer.Close()
		f.httpServer = nil
		return errors.WithStack(err)
	}
	return nil
}

type Counter struct {
	pCounter prometheus.Counter
}

func (c *Counter) Inc() {
	c.pCounter.Inc()
}

func (c *Counter) Add(delta float64) {
	c.pCounter.Add(delta)
}
