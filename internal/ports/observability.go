package ports

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)

	// RecordRejected notes a journal entry that could not be decoded.
	RecordRejected(id EntryID, err error)
}

type Field struct {
	Key   string
	Value any
}

// Metric names shared by the recorder and the observability adapters.
const (
	MetricEventsConstructed = "perftrace_events_constructed_total"
	MetricConstructFailures = "perftrace_construct_failures_total"
	MetricEventsStored      = "perftrace_events_stored_total"
	MetricEventsRejected    = "perftrace_events_rejected_total"
	MetricJournalSize       = "perftrace_journal_size_bytes"
	MetricStoreLatency      = "perftrace_store_latency_seconds"
)
