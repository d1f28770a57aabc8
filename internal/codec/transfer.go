package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ghalamif/perftrace/internal/domain"
)

// Transfer-form field names, in wire order.
const (
	FieldEvent      = "event"
	FieldCreated    = "created"
	FieldSessionID  = "sessionId"
	FieldAttributes = KeyAttributes
	FieldCounters   = KeyCounters
)

var transferFields = [...]string{FieldEvent, FieldCreated, FieldSessionID, FieldAttributes, FieldCounters}

// field format: [1 byte tag][4 bytes len][len bytes]; tags are 1..5 in order.
const fieldHeaderLen = 5

// Encode writes the five event fields in their fixed order. The attribute
// and counter fields hold the same JSON encoding Construct reads.
func Encode(e domain.PerformanceEvent) ([]byte, error) {
	attrs, err := EncodeAttributes(e.Attributes())
	if err != nil {
		return nil, err
	}
	counters, err := EncodeCounters(e.Counters())
	if err != nil {
		return nil, err
	}
	values := [...]string{e.Event(), e.Created(), e.SessionID(), attrs, counters}

	size := 0
	for _, v := range values {
		if uint64(len(v)) > math.MaxUint32 {
			return nil, fmt.Errorf("codec: field too large: %d bytes", len(v))
		}
		size += fieldHeaderLen + len(v)
	}

	var buf bytes.Buffer
	buf.Grow(size)
	for i, v := range values {
		var hdr [fieldHeaderLen]byte
		hdr[0] = byte(i + 1)
		binary.BigEndian.PutUint32(hdr[1:], uint32(len(v)))
		buf.Write(hdr[:])
		buf.WriteString(v)
	}
	return buf.Bytes(), nil
}

// Decode is the inverse of Encode. It rejects truncated input, fields out of
// order, trailing bytes, an unknown discriminator, a malformed created stamp
// and malformed attribute sequences.
func Decode(data []byte) (domain.PerformanceEvent, error) {
	r := bytes.NewReader(data)
	var values [len(transferFields)]string
	for i, name := range transferFields {
		v, err := readField(r, byte(i+1), name)
		if err != nil {
			return domain.PerformanceEvent{}, err
		}
		values[i] = v
	}
	if r.Len() > 0 {
		return domain.PerformanceEvent{}, malformed(FieldCounters, "%d trailing bytes", r.Len())
	}

	if values[0] != domain.PerformanceTrace {
		return domain.PerformanceEvent{}, malformed(FieldEvent, "unknown discriminator %q", values[0])
	}
	if _, err := time.Parse(domain.CreatedLayout, values[1]); err != nil {
		return domain.PerformanceEvent{}, &DecodeError{Field: FieldCreated, Err: err}
	}
	attrs, err := DecodeAttributes(values[3])
	if err != nil {
		return domain.PerformanceEvent{}, err
	}
	counters, err := DecodeCounters(values[4])
	if err != nil {
		return domain.PerformanceEvent{}, err
	}
	return domain.NewPerformanceEvent(values[0], values[1], values[2], attrs, counters), nil
}

func readField(r *bytes.Reader, tag byte, name string) (string, error) {
	var hdr [fieldHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return "", missing(name)
		}
		return "", malformed(name, "truncated header: %w", err)
	}
	if hdr[0] != tag {
		return "", malformed(name, "field out of order: got tag %d, want %d", hdr[0], tag)
	}
	n := binary.BigEndian.Uint32(hdr[1:])
	if int64(n) > int64(r.Len()) {
		return "", malformed(name, "truncated body: want %d bytes, have %d", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", malformed(name, "truncated body: %w", err)
	}
	return string(b), nil
}
