// Package catalog provides the static item table used to price and
// prioritize orders.
package catalog

import "time"

// Entry gives the fixed cost, priority code, and delivery lead time
// for one kind of item.
type Entry struct {
	// Cost is the unit cost reported to the sink.
	Cost int

	// Priority is the priority code ("HP", "MP", or "LP").
	Priority string

	// LeadDays is the number of days from dispatch to estimated
	// delivery.
	LeadDays int
}

// Items is the fixed item table.  Its keys are the only item names
// the bridge accepts.
var Items = map[string]Entry{
	"Clothes":  {Cost: 150, Priority: "LP", LeadDays: 5},
	"Medicine": {Cost: 450, Priority: "HP", LeadDays: 1},
	"Food":     {Cost: 250, Priority: "MP", LeadDays: 3},
}

// Lookup finds the Entry for the given item name.
func Lookup(item string) (Entry, error) {
	e, have := Items[item]
	if !have {
		return Entry{}, &UnknownItem{Item: item}
	}
	return e, nil
}

// Delivery computes the estimated delivery date for an item
// dispatched at the given time.
func (e Entry) Delivery(dispatched time.Time) time.Time {
	return dispatched.AddDate(0, 0, e.LeadDays)
}

// UnknownItem occurs when an order names an item that's not in the
// table.
type UnknownItem struct {
	Item string
}

func (e *UnknownItem) Error() string {
	return `unknown item "` + e.Item + `"`
}
