package repository

import (
	"github.com/motelhub/directory/internal/domain/idgen"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a store
type Option func(*storeOptions)

type storeOptions struct {
	ids     *idgen.Generator
	metrics *storeMetrics
}

// WithIDGenerator shares an id generator between stores
func WithIDGenerator(g *idgen.Generator) Option {
	return func(o *storeOptions) { o.ids = g }
}

// WithMetrics registers the store write counter on reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *storeOptions) { o.metrics = newStoreMetrics(reg) }
}

func applyOptions(opts []Option) storeOptions {
	o := storeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ids == nil {
		o.ids = idgen.New()
	}
	return o
}

type storeMetrics struct {
	writes *prometheus.CounterVec
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	writes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_writes_total",
			Help: "Total number of persisted store mutations",
		},
		[]string{"collection", "op", "status"},
	)
	if reg != nil {
		if err := reg.Register(writes); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				writes = are.ExistingCollector.(*prometheus.CounterVec)
			}
		}
	}
	return &storeMetrics{writes: writes}
}

// observe is safe on a nil receiver so stores without metrics skip it.
func (m *storeMetrics) observe(collection, op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.writes.WithLabelValues(collection, op, status).Inc()
}
