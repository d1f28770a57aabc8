package domain

import (
	"encoding/json"
	"time"
)

// PerformanceTrace is the fixed discriminator carried by every PerformanceEvent.
const PerformanceTrace = "mobile_performance_trace"

// CreatedLayout renders `created` as yyyy-MM-dd'T'HH:mm:ss.SSS±HHMM.
const CreatedLayout = "2006-01-02T15:04:05.000-0700"

// StringAttribute is a named piece of free-form textual metadata.
type StringAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NumericAttribute is a named counter.
type NumericAttribute struct {
	Name  string `json:"name"`
	Value Number `json:"value"`
}

// PerformanceEvent is the immutable record handed to a telemetry sink.
// Build one with codec.Construct or codec.Decode.
type PerformanceEvent struct {
	event      string
	created    string
	sessionID  string
	attributes []StringAttribute
	counters   []NumericAttribute
}

// NewPerformanceEvent assembles an event from already validated parts. The
// sequences are copied; nil sequences become empty ones.
func NewPerformanceEvent(event, created, sessionID string, attrs []StringAttribute, counters []NumericAttribute) PerformanceEvent {
	return PerformanceEvent{
		event:      event,
		created:    created,
		sessionID:  sessionID,
		attributes: CopyAttributes(attrs),
		counters:   CopyCounters(counters),
	}
}

func (e PerformanceEvent) Event() string     { return e.event }
func (e PerformanceEvent) Created() string   { return e.created }
func (e PerformanceEvent) SessionID() string { return e.sessionID }

// CreatedTime parses the created stamp back into a time.Time.
func (e PerformanceEvent) CreatedTime() (time.Time, error) {
	return time.Parse(CreatedLayout, e.created)
}

// Attributes returns a copy of the string-valued attributes in order.
func (e PerformanceEvent) Attributes() []StringAttribute {
	return CopyAttributes(e.attributes)
}

// Counters returns a copy of the numeric-valued attributes in order.
func (e PerformanceEvent) Counters() []NumericAttribute {
	return CopyCounters(e.counters)
}

// Equal reports field-wise equality, including sequence order and the numeric
// kind of every counter.
func (e PerformanceEvent) Equal(o PerformanceEvent) bool {
	if e.event != o.event || e.created != o.created || e.sessionID != o.sessionID {
		return false
	}
	if len(e.attributes) != len(o.attributes) || len(e.counters) != len(o.counters) {
		return false
	}
	for i := range e.attributes {
		if e.attributes[i] != o.attributes[i] {
			return false
		}
	}
	for i := range e.counters {
		if e.counters[i].Name != o.counters[i].Name || !e.counters[i].Value.Equal(o.counters[i].Value) {
			return false
		}
	}
	return true
}

func CopyAttributes(src []StringAttribute) []StringAttribute {
	dst := make([]StringAttribute, len(src))
	copy(dst, src)
	return dst
}

func CopyCounters(src []NumericAttribute) []NumericAttribute {
	dst := make([]NumericAttribute, len(src))
	copy(dst, src)
	return dst
}

type eventView struct {
	Event      string             `json:"event"`
	Created    string             `json:"created"`
	SessionID  string             `json:"sessionId"`
	Attributes []StringAttribute  `json:"attributes"`
	Counters   []NumericAttribute `json:"counters"`
}

// MarshalJSON renders a read-only JSON view of the event.
func (e PerformanceEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventView{
		Event:      e.event,
		Created:    e.created,
		SessionID:  e.sessionID,
		Attributes: CopyAttributes(e.attributes),
		Counters:   CopyCounters(e.counters),
	})
}
