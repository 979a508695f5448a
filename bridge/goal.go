// Package bridge connects the order subscription, the order
// registry, and the record sink, and runs the goal-processing server.
package bridge

import (
	"sync"
)

// Goal is one externally-submitted unit of work: a status update to
// apply and forward to the sink.
type Goal struct {
	// Protocol selects how the update travels downstream.  Only
	// "http" is supported.
	Protocol string `json:"protocol"`

	// Mode is one of the Mode* constants.
	Mode string `json:"mode"`

	// Message depends on Mode.  For ModeInventory it's a
	// ";"-separated list of serialized records.  For the other
	// modes it's an order id.
	Message string `json:"message"`
}

// Supported goal protocols and modes.
const (
	ProtocolHTTP = "http"

	ModeInventory = "inv"
	ModeDispatch  = "disp"
	ModeShip      = "ship"
	ModeFail      = "fail"
)

func validMode(mode string) bool {
	switch mode {
	case ModeInventory, ModeDispatch, ModeShip, ModeFail:
		return true
	}
	return false
}

// State is a goal's position in its lifecycle.
//
// Received goals move to Accepted or Rejected.  Accepted goals move
// through Executing to Succeeded or Aborted.  A cancellation request
// is recorded but never preempts an in-flight execution.
type State string

const (
	Received        State = "received"
	Accepted        State = "accepted"
	Rejected        State = "rejected"
	Executing       State = "executing"
	Succeeded       State = "succeeded"
	Aborted         State = "aborted"
	CancelRequested State = "cancel-requested"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == Rejected || s == Succeeded || s == Aborted
}

// Result is a goal's terminal outcome.
type Result struct {
	Success bool   `json:"success"`
	Err     string `json:"err,omitempty"`
}

// Execution tracks one accepted goal through its lifecycle.
type Execution struct {
	sync.Mutex

	// ID is the goal id the server assigned at submission.
	ID string `json:"id"`

	// Goal is the goal as submitted.
	Goal Goal `json:"goal"`

	state     State
	cancelled bool
	result    *Result

	// done is closed when the goal reaches a terminal state.
	done chan struct{}
}

func newExecution(id string, g Goal) *Execution {
	return &Execution{
		ID:    id,
		Goal:  g,
		state: Accepted,
		done:  make(chan struct{}),
	}
}

// State returns the goal's current state.
//
// A recorded cancellation request masks Accepted (but nothing else)
// since execution proceeds regardless.
func (e *Execution) State() State {
	e.Lock()
	defer e.Unlock()
	if e.cancelled && e.state == Accepted {
		return CancelRequested
	}
	return e.state
}

// Result returns the terminal result or nil if the goal isn't done.
func (e *Execution) Result() *Result {
	e.Lock()
	defer e.Unlock()
	return e.result
}

// Done is closed once the goal reaches a terminal state.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

func (e *Execution) setState(s State) {
	e.Lock()
	e.state = s
	e.Unlock()
}

func (e *Execution) cancel() {
	e.Lock()
	e.cancelled = true
	e.Unlock()
}

// finish records the terminal state and result and releases waiters.
func (e *Execution) finish(r Result) State {
	e.Lock()
	if r.Success {
		e.state = Succeeded
	} else {
		e.state = Aborted
	}
	e.result = &r
	s := e.state
	e.Unlock()
	close(e.done)
	return s
}

// Outcome is a terminal goal report: what the server hands to
// whatever tracks goal outcomes for the submitter.
type Outcome struct {
	ID     string `json:"id"`
	State  State  `json:"state"`
	Result Result `json:"result"`
}

// InvalidGoal occurs when a submitted goal has an unsupported
// protocol or mode.  The goal is rejected synchronously.
type InvalidGoal struct {
	Protocol string
	Mode     string
}

func (e *InvalidGoal) Error() string {
	return `invalid goal: protocol "` + e.Protocol + `", mode "` + e.Mode + `"`
}

// UnknownGoal occurs when a cancel or status request names a goal id
// the server isn't tracking.
type UnknownGoal struct {
	ID string
}

func (e *UnknownGoal) Error() string {
	return `unknown goal "` + e.ID + `"`
}
