package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/ghalamif/perftrace/internal/domain"
)

// Property-bag keys holding the encoded attribute sequences.
const (
	KeyAttributes = "attributes"
	KeyCounters   = "counters"
)

// rawAttribute keeps both members optional so absence can be told apart
// from a zero value.
type rawAttribute struct {
	Name  *string         `json:"name"`
	Value json.RawMessage `json:"value"`
}

// EncodeAttributes renders string-valued attributes as a JSON array of
// {"name","value"} objects. An empty or nil slice encodes as []. Names and
// values must be valid UTF-8.
func EncodeAttributes(attrs []domain.StringAttribute) (string, error) {
	for i, a := range attrs {
		if err := checkName(a.Name); err != nil {
			return "", fmt.Errorf("codec: attributes[%d]: %w", i, err)
		}
		if !utf8.ValidString(a.Value) {
			return "", fmt.Errorf("codec: attributes[%d] value: %w", i, ErrInvalidUTF8)
		}
	}
	b, err := json.Marshal(domain.CopyAttributes(attrs))
	if err != nil {
		return "", fmt.Errorf("codec: encode attributes: %w", err)
	}
	return string(b), nil
}

// EncodeCounters renders numeric-valued attributes. Integer counters are
// written without a fraction, float counters always with one.
func EncodeCounters(counters []domain.NumericAttribute) (string, error) {
	for i, c := range counters {
		if err := checkName(c.Name); err != nil {
			return "", fmt.Errorf("codec: counters[%d]: %w", i, err)
		}
	}
	b, err := json.Marshal(domain.CopyCounters(counters))
	if err != nil {
		return "", fmt.Errorf("codec: encode counters: %w", err)
	}
	return string(b), nil
}

func checkName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !utf8.ValidString(name) {
		return ErrInvalidUTF8
	}
	return nil
}

// DecodeAttributes parses a string-valued attribute sequence. The result is
// never nil.
func DecodeAttributes(data string) ([]domain.StringAttribute, error) {
	raws, err := decodeRaw(KeyAttributes, data)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StringAttribute, 0, len(raws))
	for i, r := range raws {
		name, err := rawName(KeyAttributes, i, r)
		if err != nil {
			return nil, err
		}
		var v string
		if err := json.Unmarshal(r.Value, &v); err != nil {
			return nil, malformed(KeyAttributes, "element %d: value is not a string: %w", i, err)
		}
		out = append(out, domain.StringAttribute{Name: name, Value: v})
	}
	return out, nil
}

// DecodeCounters parses a numeric-valued attribute sequence. Values may be
// integers or floats; each keeps its kind.
func DecodeCounters(data string) ([]domain.NumericAttribute, error) {
	raws, err := decodeRaw(KeyCounters, data)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NumericAttribute, 0, len(raws))
	for i, r := range raws {
		name, err := rawName(KeyCounters, i, r)
		if err != nil {
			return nil, err
		}
		var v domain.Number
		if err := v.UnmarshalJSON(r.Value); err != nil {
			return nil, malformed(KeyCounters, "element %d: %w", i, err)
		}
		out = append(out, domain.NumericAttribute{Name: name, Value: v})
	}
	return out, nil
}

func decodeRaw(field, data string) ([]rawAttribute, error) {
	trimmed := bytes.TrimSpace([]byte(data))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, malformed(field, "expected a JSON array, got %q", data)
	}
	var raws []rawAttribute
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, &DecodeError{Field: field, Err: err}
	}
	return raws, nil
}

func rawName(field string, i int, r rawAttribute) (string, error) {
	if r.Name == nil {
		return "", malformed(field, "element %d: missing name", i)
	}
	if *r.Name == "" {
		return "", malformed(field, "element %d: %w", i, ErrEmptyName)
	}
	if len(r.Value) == 0 || bytes.Equal(bytes.TrimSpace(r.Value), []byte("null")) {
		return "", malformed(field, "element %d: missing value", i)
	}
	return *r.Name, nil
}
