// Package sink forwards flat key/value records to the external
// record-keeping endpoint.
//
// The sink is an audit trail, not a consistency-critical dependency.
// Callers treat submission failures as best-effort losses.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// Record is one flat row destined for the sink.
//
// The "id" key selects the target sheet (for example "IncomingOrders"
// or "OrdersDispatched").
type Record map[string]string

// A Sink accepts records.
//
// Submit should bound its own network work; callers may also impose a
// deadline via ctx.
type Sink interface {
	Submit(ctx context.Context, rec Record) error
}

// Copy returns a fresh Record with the same entries.
func (r Record) Copy() Record {
	acc := make(Record, len(r))
	for k, v := range r {
		acc[k] = v
	}
	return acc
}

// ParseRecord decodes one serialized record (as found in an
// inventory goal's entry list) into a Record.
//
// The input must be a single JSON object whose values are strings,
// numbers, or booleans.  Nested values and non-objects are rejected.
// Input is parsed as data, never evaluated.
func ParseRecord(s string) (Record, error) {
	d := json.NewDecoder(bytes.NewReader([]byte(s)))
	d.UseNumber()

	var m map[string]interface{}
	if err := d.Decode(&m); err != nil {
		return nil, &BadRecord{Reason: err.Error()}
	}
	if d.More() {
		return nil, &BadRecord{Reason: "trailing data after record"}
	}
	if m == nil {
		return nil, &BadRecord{Reason: "not a record"}
	}

	acc := make(Record, len(m))
	for k, v := range m {
		switch x := v.(type) {
		case string:
			acc[k] = x
		case json.Number:
			acc[k] = x.String()
		case bool:
			acc[k] = strconv.FormatBool(x)
		default:
			return nil, &BadRecord{Reason: `key "` + k + `" has a non-scalar value`}
		}
	}

	return acc, nil
}

// BadRecord occurs when a serialized record can't be parsed as a flat
// key/value mapping.
type BadRecord struct {
	Reason string
}

func (e *BadRecord) Error() string {
	return "bad record: " + e.Reason
}

// Unavailable occurs when a submission fails at the network or HTTP
// level.  Submissions are best-effort, so callers usually log an
// Unavailable and move on.
type Unavailable struct {
	Status int
	Err    error
}

func (e *Unavailable) Error() string {
	if e.Err != nil {
		return "sink unavailable: " + e.Err.Error()
	}
	return "sink unavailable: HTTP status " + strconv.Itoa(e.Status)
}
