package main

import (
	"context"
	"fmt"

	"github.com/eyrcvb1844/VargiBots-Documentation/bridge"
)

// Op is one service operation.
//
// Only one of Submit, Cancel, or Status should have a value.
type Op struct {
	// Submit offers a goal to the server.
	Submit *SubmitOp `json:"submit,omitempty"`

	// Cancel records a cancellation request for a goal.
	Cancel *CancelOp `json:"cancel,omitempty"`

	// Status asks for the state of a tracked goal.
	Status *StatusOp `json:"status,omitempty"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty"`
}

// erred is a utility function to return values to assign to operation
// Error and Err fields.
func erred(err error) (error, string) {
	if err == nil {
		return nil, ""
	}
	return err, err.Error()
}

func (o *Op) Do(ctx context.Context, s *Service) error {
	var err error
	if o.Submit != nil {
		err = o.Submit.Do(ctx, s)
	} else if o.Cancel != nil {
		err = o.Cancel.Do(ctx, s)
	} else if o.Status != nil {
		err = o.Status.Do(ctx, s)
	} else {
		err = fmt.Errorf("not implemented: %s", JS(o))
	}

	if err != nil && o.Error == nil {
		o.Error, o.Err = erred(err)
	}

	return o.Error
}

// SubmitOp offers one goal.
type SubmitOp struct {
	// Goal is the goal to submit.
	Goal bridge.Goal `json:"goal"`

	// Wait asks for the terminal result in the reply instead of
	// a later outcome report.
	Wait bool `json:"wait,omitempty"`

	// Id is the goal id the server assigned (when accepted).
	Id string `json:"id,omitempty"`

	// Accepted reports the admission decision.
	Accepted bool `json:"accepted"`

	State  bridge.State   `json:"state,omitempty"`
	Result *bridge.Result `json:"result,omitempty"`
}

func (o *SubmitOp) Do(ctx context.Context, s *Service) error {
	e, err := s.Goals.Submit(ctx, o.Goal)
	if err != nil {
		if _, is := err.(*bridge.InvalidGoal); is {
			o.Accepted = false
			o.State = bridge.Rejected
		}
		return err
	}

	o.Accepted = true
	o.Id = e.ID
	o.State = e.State()

	if o.Wait {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.Done():
			o.State = e.State()
			o.Result = e.Result()
		}
	}

	return nil
}

// CancelOp records a cancellation request.  The goal's execution is
// not preempted.
type CancelOp struct {
	Id string `json:"id"`
}

func (o *CancelOp) Do(ctx context.Context, s *Service) error {
	return s.Goals.Cancel(o.Id)
}

// StatusOp asks for a tracked goal's state.
type StatusOp struct {
	Id string `json:"id"`

	State  bridge.State   `json:"state,omitempty"`
	Result *bridge.Result `json:"result,omitempty"`
}

func (o *StatusOp) Do(ctx context.Context, s *Service) error {
	st, res, err := s.Goals.Status(o.Id)
	if err != nil {
		return err
	}
	o.State = st
	o.Result = res
	return nil
}
