package observability

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/contextplus/pkg/cache"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/events"
	"github.com/aretw0/contextplus/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "contextplus"

// StatsFunc reports the current statistics of a cache.
type StatsFunc func() cache.Stats

// Metrics holds the collectors of a site.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Events      *prometheus.CounterVec

	mu     sync.RWMutex
	caches map[string]StatsFunc

	hitsDesc   *prometheus.Desc
	missesDesc *prometheus.Desc
	sizeDesc   *prometheus.Desc
}

// New creates the collectors and registers them with reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "workflow_transitions_total",
				Help:      "Total number of completed workflow transitions",
			},
			[]string{"action", "from", "to"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "events_total",
				Help:      "Total number of events seen by the metrics handler",
			},
			[]string{"event"},
		),
		caches: make(map[string]StatsFunc),
		hitsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "hits_total"),
			"Cache hits", []string{"cache"}, nil),
		missesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "misses_total"),
			"Cache misses", []string{"cache"}, nil),
		sizeDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "entries"),
			"Entries currently cached", []string{"cache"}, nil),
	}

	for _, c := range []prometheus.Collector{m.Transitions, m.Events, m} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WatchCache reports the statistics of a cache under name.
func (m *Metrics) WatchCache(name string, stats StatsFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = stats
}

// Registration returns a handler counting every event and every completed
// workflow transition. Declare it on the root so every descendant reaches it.
func (m *Metrics) Registration() events.Registration {
	return events.On(m.observe)
}

func (m *Metrics) observe(_ context.Context, _ domain.Node, e *domain.Event) error {
	m.Events.WithLabelValues(e.Name()).Inc()
	if !strings.HasPrefix(e.Name(), domain.EventWorkflowAfterPrefix) {
		return nil
	}
	data := e.Data()
	action, _ := data[workflow.KeyAction].(string)
	from, _ := data[workflow.KeyFromState].(string)
	to, _ := data[workflow.KeyToState].(string)
	m.Transitions.WithLabelValues(action, from, to).Inc()
	return nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.hitsDesc
	ch <- m.missesDesc
	ch <- m.sizeDesc
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, stats := range m.caches {
		s := stats()
		ch <- prometheus.MustNewConstMetric(m.hitsDesc, prometheus.CounterValue, float64(s.Hits), name)
		ch <- prometheus.MustNewConstMetric(m.missesDesc, prometheus.CounterValue, float64(s.Misses), name)
		ch <- prometheus.MustNewConstMetric(m.sizeDesc, prometheus.GaugeValue, float64(s.Len), name)
	}
}
