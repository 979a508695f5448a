package bridge

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/eyrcvb1844/VargiBots-Documentation/catalog"
	"github.com/eyrcvb1844/VargiBots-Documentation/order"
	"github.com/eyrcvb1844/VargiBots-Documentation/sink"

	"github.com/google/uuid"
)

// DefaultWorkers bounds concurrent goal executions unless the server
// says otherwise.
var DefaultWorkers = 16

// GoalServer admits, executes, and reports goals.
//
// Admission is synchronous and never waits on execution.  Each
// accepted goal runs on its own goroutine, gated by a semaphore so
// total concurrency stays bounded.
type GoalServer struct {
	// Registry is where ingested orders live.
	Registry *order.Registry

	// Sink receives the status records goals produce.
	Sink sink.Sink

	// TeamID and UniqueID identify this sender in every record.
	TeamID   string
	UniqueID string

	// SubmitTimeout bounds one sink submission.  Zero means the
	// sink's own default.
	SubmitTimeout time.Duration

	// Now is the clock.  Tests override it.  Nil means time.Now.
	Now func() time.Time

	// Outcomes, if non-nil, receives every terminal Outcome.
	// Sends never block; an unread Outcome is dropped.
	Outcomes chan Outcome

	slots chan struct{}

	goals *goalTable
}

// NewGoalServer makes a GoalServer with the given worker bound.
//
// workers <= 0 means DefaultWorkers.
func NewGoalServer(reg *order.Registry, snk sink.Sink, workers int) *GoalServer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &GoalServer{
		Registry: reg,
		Sink:     snk,
		slots:    make(chan struct{}, workers),
		goals:    newGoalTable(),
	}
}

// Submit validates the goal and, if it's acceptable, schedules its
// execution and returns its Execution handle.
//
// Rejection is synchronous: a goal whose protocol isn't "http" or
// whose mode isn't one of inv/disp/ship/fail comes back as an
// InvalidGoal error, and no execution is ever started for it.
// Acceptance returns immediately; Submit never blocks on execution.
func (s *GoalServer) Submit(ctx context.Context, g Goal) (*Execution, error) {
	if g.Protocol != ProtocolHTTP || !validMode(g.Mode) {
		log.Printf("GoalServer.Submit rejecting protocol %q mode %q", g.Protocol, g.Mode)
		return nil, &InvalidGoal{Protocol: g.Protocol, Mode: g.Mode}
	}

	e := newExecution(uuid.New().String(), g)
	s.goals.put(e)

	log.Printf("GoalServer.Submit accepted goal %s (mode %s)", e.ID, g.Mode)

	go s.run(ctx, e)

	return e, nil
}

// Cancel records a cancellation request for the goal.
//
// There is no preemption: an in-flight execution runs to its
// terminal state regardless.  The request is acknowledged for
// record-keeping only.
func (s *GoalServer) Cancel(id string) error {
	e, have := s.goals.get(id)
	if !have {
		return &UnknownGoal{ID: id}
	}
	log.Printf("GoalServer.Cancel recorded for goal %s", id)
	e.cancel()
	return nil
}

// Status reports the state (and result, if terminal) of a tracked
// goal.  Terminal goals are forgotten once reported, so Status on an
// old goal id returns an UnknownGoal error.
func (s *GoalServer) Status(id string) (State, *Result, error) {
	e, have := s.goals.get(id)
	if !have {
		return "", nil, &UnknownGoal{ID: id}
	}
	return e.State(), e.Result(), nil
}

// run executes one accepted goal.  A semaphore slot bounds how many
// of these are doing work at once; waiting for a slot happens here,
// on the goal's own goroutine, so admission stays non-blocking.
func (s *GoalServer) run(ctx context.Context, e *Execution) {
	s.slots <- struct{}{}
	defer func() { <-s.slots }()

	e.setState(Executing)
	log.Printf("GoalServer.run processing goal %s", e.ID)

	res := s.process(ctx, e.Goal)
	state := e.finish(res)

	log.Printf("GoalServer.run goal %s done: %s", e.ID, state)

	if s.Outcomes != nil {
		select {
		case s.Outcomes <- Outcome{ID: e.ID, State: state, Result: res}:
		default:
			log.Printf("GoalServer.run outcomes blocked; dropping %s", e.ID)
		}
	}

	// The goal is terminal and reported; stop tracking it.
	s.goals.rem(e.ID)
}

// process performs the goal's sink submissions and reports whether
// the whole sequence succeeded.
func (s *GoalServer) process(ctx context.Context, g Goal) Result {
	now := s.now()

	if g.Mode == ModeInventory {
		return s.processInventory(ctx, g.Message)
	}

	rec, err := s.Registry.Get(g.Message)
	if err != nil {
		// No submissions for an unknown order.
		return Result{Err: err.Error()}
	}

	entry, err := catalog.Lookup(rec.Item)
	if err != nil {
		// Can't happen for ingested orders, but don't crash the
		// goal if it does.
		return Result{Err: err.Error()}
	}

	row := s.statusRow(rec, entry, now)

	switch g.Mode {
	case ModeDispatch:
		row["id"] = "OrdersDispatched"
		if err := s.submit(ctx, row); err != nil {
			return Result{Err: err.Error()}
		}
	case ModeShip:
		row["id"] = "OrdersShipped"
		if err := s.submit(ctx, row); err != nil {
			return Result{Err: err.Error()}
		}
	case ModeFail:
		// Dispatch NO first, then shipped NO.  The order is part
		// of the external contract.
		dispatched := row.Copy()
		dispatched["id"] = "OrdersDispatched"
		dispatched["Dispatch Status"] = "NO"
		err1 := s.submit(ctx, dispatched)

		shipped := row.Copy()
		shipped["id"] = "OrdersShipped"
		shipped["Dispatch Status"] = "NO"
		shipped["Shipped Status"] = "NO"
		err2 := s.submit(ctx, shipped)

		if err1 != nil {
			return Result{Err: err1.Error()}
		}
		if err2 != nil {
			return Result{Err: err2.Error()}
		}
	}

	return Result{Success: true}
}

// processInventory splits the goal message on ";" and submits each
// entry as its own record, in list order.  No registry interaction.
func (s *GoalServer) processInventory(ctx context.Context, message string) Result {
	for _, part := range strings.Split(message, ";") {
		rec, err := sink.ParseRecord(part)
		if err != nil {
			return Result{Err: err.Error()}
		}
		if err := s.submit(ctx, rec); err != nil {
			return Result{Err: err.Error()}
		}
	}
	return Result{Success: true}
}

// statusRow builds the dispatch/shipment-shaped record for an order.
// The caller sets "id" and flips statuses as needed.
func (s *GoalServer) statusRow(rec *order.Record, entry catalog.Entry, now time.Time) sink.Record {
	dt := now.Format("02/01/2006 15:04:05")
	return sink.Record{
		"Team Id":                    s.TeamID,
		"Unique Id":                  s.UniqueID,
		"Order ID":                   rec.OrderID,
		"Order Date and Time":        rec.OrderTime,
		"Item":                       rec.Item,
		"Priority":                   entry.Priority,
		"Cost":                       strconv.Itoa(entry.Cost),
		"Order Quantity":             strconv.Itoa(rec.Qty),
		"City":                       rec.City,
		"Longitude":                  strconv.FormatFloat(rec.Lon, 'f', -1, 64),
		"Latitude":                   strconv.FormatFloat(rec.Lat, 'f', -1, 64),
		"Dispatch Quantity":          "1",
		"Dispatch Status":            "YES",
		"Dispatch Date and Time":     dt,
		"Shipped Quantity":           "1",
		"Shipped Status":             "YES",
		"Shipped Date and Time":      dt,
		"Estimated Time of Delivery": entry.Delivery(now).Format("02/01/2006"),
	}
}

func (s *GoalServer) submit(ctx context.Context, rec sink.Record) error {
	if s.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SubmitTimeout)
		defer cancel()
	}
	if err := s.Sink.Submit(ctx, rec); err != nil {
		log.Printf("GoalServer.submit %s: %s", rec["id"], err)
		return err
	}
	return nil
}

func (s *GoalServer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
