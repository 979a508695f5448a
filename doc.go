// Package vargibots provides a bridge between an MQTT order feed, a
// goal-processing server, and a spreadsheet-like HTTP record sink.
//
// The core code is in packages 'order', 'sink', and 'bridge', and the
// daemon is in 'cmd/iotbridge'.
package vargibots
