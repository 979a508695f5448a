// Package order provides strict parsing of in-bound order payloads
// and the in-memory order registry.
package order

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Record is the parsed representation of one in-bound order message.
//
// A Record is immutable once constructed.  The registry hands out
// shared pointers, so nothing should write to a Record's fields after
// Parse returns it.
type Record struct {
	OrderID   string  `json:"order_id"`
	OrderTime string  `json:"order_time"`
	Item      string  `json:"item"`
	Qty       int     `json:"qty"`
	City      string  `json:"city"`
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
}

// requiredKeys are the keys an order payload must provide.
var requiredKeys = []string{"order_id", "order_time", "item", "qty", "city", "lon", "lat"}

// Parse decodes one in-bound order payload.
//
// The payload must be a single JSON object with at least the required
// order keys.  Anything else fails with a MalformedMessage.  Payloads
// are only ever parsed as data; they are never evaluated.
//
// Numeric fields tolerate both JSON numbers and numeric strings since
// upstream publishers disagree about quoting.
func Parse(payload []byte) (*Record, error) {
	d := json.NewDecoder(bytes.NewReader(payload))
	d.UseNumber()

	var m map[string]interface{}
	if err := d.Decode(&m); err != nil {
		return nil, &MalformedMessage{Reason: "not a well-formed record: " + err.Error()}
	}
	if d.More() {
		return nil, &MalformedMessage{Reason: "trailing data after record"}
	}

	for _, k := range requiredKeys {
		if _, have := m[k]; !have {
			return nil, &MalformedMessage{Reason: `missing key "` + k + `"`}
		}
	}

	r := &Record{}
	var err error

	if r.OrderID, err = asString(m, "order_id"); err != nil {
		return nil, err
	}
	if r.OrderTime, err = asString(m, "order_time"); err != nil {
		return nil, err
	}
	if r.Item, err = asString(m, "item"); err != nil {
		return nil, err
	}
	if r.City, err = asString(m, "city"); err != nil {
		return nil, err
	}
	if r.Qty, err = asInt(m, "qty"); err != nil {
		return nil, err
	}
	if r.Lon, err = asFloat(m, "lon"); err != nil {
		return nil, err
	}
	if r.Lat, err = asFloat(m, "lat"); err != nil {
		return nil, err
	}

	if r.OrderID == "" {
		return nil, &MalformedMessage{Reason: "empty order_id"}
	}

	return r, nil
}

func asString(m map[string]interface{}, k string) (string, error) {
	s, is := m[k].(string)
	if !is {
		return "", &MalformedMessage{Reason: `key "` + k + `" is not a string`}
	}
	return s, nil
}

func asInt(m map[string]interface{}, k string) (int, error) {
	switch v := m[k].(type) {
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, &MalformedMessage{Reason: `key "` + k + `" is not an integer`}
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &MalformedMessage{Reason: `key "` + k + `" is not an integer`}
		}
		return n, nil
	}
	return 0, &MalformedMessage{Reason: `key "` + k + `" is not an integer`}
}

func asFloat(m map[string]interface{}, k string) (float64, error) {
	switch v := m[k].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, &MalformedMessage{Reason: `key "` + k + `" is not a number`}
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, &MalformedMessage{Reason: `key "` + k + `" is not a number`}
		}
		return f, nil
	}
	return 0, &MalformedMessage{Reason: `key "` + k + `" is not a number`}
}

// MalformedMessage occurs when an in-bound payload isn't a
// well-formed order record.  The message is dropped.
type MalformedMessage struct {
	Reason string
}

func (e *MalformedMessage) Error() string {
	return "malformed message: " + e.Reason
}

// NotFound occurs when a registry lookup names an order id that was
// never ingested.
type NotFound struct {
	OrderID string
}

func (e *NotFound) Error() string {
	return `order "` + e.OrderID + `" not found`
}
