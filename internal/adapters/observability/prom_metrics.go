package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ghalamif/perftrace/internal/ports"
)

type PromObs struct {
	logger   *zap.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the perftrace metrics on reg. A nil reg uses the
// default registerer and a nil logger discards logs.
func NewPromObs(reg prometheus.Registerer, logger *zap.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	constructed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricEventsConstructed,
		Help: "Performance events successfully constructed from a property bag.",
	})
	constructFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricConstructFailures,
		Help: "Property bags that failed to decode into a performance event.",
	})
	stored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricEventsStored,
		Help: "Performance events written to the event store.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricEventsRejected,
		Help: "Journal entries skipped because they could not be decoded.",
	})
	journalGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricJournalSize,
		Help: "Size of the event journal on disk.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricStoreLatency,
		Help:    "Latency of a single event store write.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	reg.MustRegister(constructed, constructFailures, stored, rejected, journalGauge, latency)

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			ports.MetricEventsConstructed: constructed,
			ports.MetricConstructFailures: constructFailures,
			ports.MetricEventsStored:      stored,
			ports.MetricEventsRejected:    rejected,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricJournalSize: journalGauge,
		},
		histos: map[string]prometheus.Observer{
			ports.MetricStoreLatency: latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, zapFields(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordRejected(id ports.EntryID, err error) {
	p.IncCounter(ports.MetricEventsRejected, 1)
	p.logger.Warn("journal entry rejected", zap.Uint64("entry_id", uint64(id)), zap.Error(err))
}

func zapFields(fields []ports.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
