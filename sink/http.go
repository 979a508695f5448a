package sink

import (
	"context"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"time"
)

// DefaultTimeout bounds one Submit call unless the Client says
// otherwise.
var DefaultTimeout = 10 * time.Second

// Client submits records to a spreadsheet-style web app endpoint.
//
// A record goes out as a single GET with the record's entries as URL
// query parameters against BaseURL/ScriptID/exec, which is the
// protocol the Apps Script web app expects.
type Client struct {
	// BaseURL is the endpoint prefix (for example
	// "https://script.google.com/macros/s").
	BaseURL string

	// ScriptID identifies the deployed sink script.
	ScriptID string

	// Timeout bounds one submission.  Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is optional.  Zero value means
	// http.DefaultClient.
	HTTPClient *http.Client

	// Verbose turns on submission logging.
	Verbose bool
}

// NewClient makes a Client with the default timeout.
func NewClient(baseURL, scriptID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		ScriptID: scriptID,
		Timeout:  DefaultTimeout,
	}
}

// Submit issues one best-effort request for the record.
//
// A network failure or a non-2xx response comes back as an
// Unavailable error.  Submit never retries.
func (c *Client) Submit(ctx context.Context, rec Record) error {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+c.ScriptID+"/exec", nil)
	if err != nil {
		return &Unavailable{Err: err}
	}

	q := req.URL.Query()
	for k, v := range rec {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	if c.Verbose {
		log.Printf("sink.Client.Submit %s", req.URL.String())
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return &Unavailable{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(ioutil.Discard, resp.Body)

	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		return &Unavailable{Status: resp.StatusCode}
	}

	return nil
}
