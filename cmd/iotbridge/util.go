package main

import (
	"encoding/json"
	"fmt"
	"log"
)

// Verbose turns on chatty logging.
var Verbose = false

// Logf calls log.Printf if Verbose.
func Logf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	log.Printf(format, args...)
}

// JS renders its argument as JSON (for logging).
func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}
