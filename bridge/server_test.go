package bridge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eyrcvb1844/VargiBots-Documentation/order"
	"github.com/eyrcvb1844/VargiBots-Documentation/sink"
)

// fakeSink records submissions in order.
type fakeSink struct {
	sync.Mutex

	recs []sink.Record
	fail bool
}

func (f *fakeSink) Submit(ctx context.Context, rec sink.Record) error {
	f.Lock()
	defer f.Unlock()
	if f.fail {
		return &sink.Unavailable{Status: 503}
	}
	f.recs = append(f.recs, rec.Copy())
	return nil
}

func (f *fakeSink) records() []sink.Record {
	f.Lock()
	defer f.Unlock()
	return append([]sink.Record{}, f.recs...)
}

// gatedSink blocks each submission until released.
type gatedSink struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSink) Submit(ctx context.Context, rec sink.Record) error {
	g.entered <- struct{}{}
	<-g.release
	return nil
}

func testClock() func() time.Time {
	then := time.Date(2021, 3, 30, 10, 32, 44, 0, time.UTC)
	return func() time.Time { return then }
}

func testServer(snk sink.Sink) *GoalServer {
	reg := order.NewRegistry()
	reg.Put(&order.Record{
		OrderID:   "ORD1",
		OrderTime: "2021-01-30 10:32:44",
		Item:      "Food",
		Qty:       2,
		City:      "Mumbai",
		Lon:       72.8777,
		Lat:       19.076,
	})

	s := NewGoalServer(reg, snk, 4)
	s.TeamID = "VB#1844"
	s.UniqueID = "axaKcGsN"
	s.Now = testClock()
	return s
}

func wait(t *testing.T, e *Execution) Result {
	select {
	case <-e.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("goal never finished")
	}
	r := e.Result()
	if r == nil {
		t.Fatal("terminal goal without a result")
	}
	return *r
}

func TestSubmitRejects(t *testing.T) {
	snk := &fakeSink{}
	s := testServer(snk)
	ctx := context.Background()

	bad := []Goal{
		{Protocol: "mqtt", Mode: ModeDispatch, Message: "ORD1"},
		{Protocol: "", Mode: ModeDispatch, Message: "ORD1"},
		{Protocol: ProtocolHTTP, Mode: "explode", Message: "ORD1"},
		{Protocol: ProtocolHTTP, Mode: "", Message: "ORD1"},
	}

	for _, g := range bad {
		if _, err := s.Submit(ctx, g); err == nil {
			t.Fatalf("expected rejection for %#v", g)
		} else if _, is := err.(*InvalidGoal); !is {
			t.Fatalf("surprising error %#v", err)
		}
	}

	if s.goals.len() != 0 {
		t.Fatal("a rejected goal is being tracked")
	}
	if len(snk.records()) != 0 {
		t.Fatal("a rejected goal reached the sink")
	}
}

func TestDispatch(t *testing.T) {
	snk := &fakeSink{}
	s := testServer(snk)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeDispatch,
		Message:  "ORD1",
	})
	if err != nil {
		t.Fatal(err)
	}

	res := wait(t, e)
	if !res.Success {
		t.Fatalf("goal failed: %s", res.Err)
	}
	if e.State() != Succeeded {
		t.Fatalf("surprising state %s", e.State())
	}

	recs := snk.records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(recs))
	}

	want := map[string]string{
		"id":                         "OrdersDispatched",
		"Team Id":                    "VB#1844",
		"Unique Id":                  "axaKcGsN",
		"Order ID":                   "ORD1",
		"Item":                       "Food",
		"Priority":                   "MP",
		"Cost":                       "250",
		"Order Quantity":             "2",
		"Dispatch Quantity":          "1",
		"Dispatch Status":            "YES",
		"Dispatch Date and Time":     "30/03/2021 10:32:44",
		"Shipped Status":             "YES",
		"Estimated Time of Delivery": "02/04/2021",
	}
	for k, v := range want {
		if recs[0][k] != v {
			t.Fatalf("surprising %s: %q (want %q)", k, recs[0][k], v)
		}
	}
}

func TestShip(t *testing.T) {
	snk := &fakeSink{}
	s := testServer(snk)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeShip,
		Message:  "ORD1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if res := wait(t, e); !res.Success {
		t.Fatalf("goal failed: %s", res.Err)
	}

	recs := snk.records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(recs))
	}
	if recs[0]["id"] != "OrdersShipped" {
		t.Fatalf("surprising target %s", recs[0]["id"])
	}
	if recs[0]["Shipped Status"] != "YES" {
		t.Fatalf("surprising shipped status %s", recs[0]["Shipped Status"])
	}
}

func TestFailMode(t *testing.T) {
	snk := &fakeSink{}
	s := testServer(snk)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeFail,
		Message:  "ORD1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if res := wait(t, e); !res.Success {
		t.Fatalf("goal failed: %s", res.Err)
	}

	recs := snk.records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(recs))
	}
	if recs[0]["id"] != "OrdersDispatched" || recs[0]["Dispatch Status"] != "NO" {
		t.Fatalf("surprising first record %v", recs[0])
	}
	if recs[1]["id"] != "OrdersShipped" || recs[1]["Shipped Status"] != "NO" {
		t.Fatalf("surprising second record %v", recs[1])
	}
}

func TestOrderNotFound(t *testing.T) {
	snk := &fakeSink{}
	s := testServer(snk)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeDispatch,
		Message:  "ORD404",
	})
	if err != nil {
		t.Fatal(err)
	}

	res := wait(t, e)
	if res.Success {
		t.Fatal("goal for an unknown order succeeded")
	}
	if e.State() != Aborted {
		t.Fatalf("surprising state %s", e.State())
	}
	if len(snk.records()) != 0 {
		t.Fatal("an aborted goal reached the sink")
	}
}

func TestInventory(t *testing.T) {
	snk := &fakeSink{}
	s := testServer(snk)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeInventory,
		Message:  `{"id":"Inventory","SKU":"R1","Quantity":1};{"id":"Inventory","SKU":"G2","Quantity":3}`,
	})
	if err != nil {
		t.Fatal(err)
	}

	if res := wait(t, e); !res.Success {
		t.Fatalf("goal failed: %s", res.Err)
	}

	recs := snk.records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(recs))
	}
	if recs[0]["SKU"] != "R1" || recs[1]["SKU"] != "G2" {
		t.Fatalf("submissions out of order: %v", recs)
	}
}

func TestInventoryBadEntry(t *testing.T) {
	snk := &fakeSink{}
	s := testServer(snk)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeInventory,
		Message:  `{"id":"Inventory","SKU":"R1"};os.system("rm -rf /")`,
	})
	if err != nil {
		t.Fatal(err)
	}

	res := wait(t, e)
	if res.Success {
		t.Fatal("goal with a malformed entry succeeded")
	}
	// The first, well-formed entry went out before the bad one
	// stopped the sequence.
	if len(snk.records()) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(snk.records()))
	}
}

func TestSinkFailureAborts(t *testing.T) {
	snk := &fakeSink{fail: true}
	s := testServer(snk)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeDispatch,
		Message:  "ORD1",
	})
	if err != nil {
		t.Fatal(err)
	}

	res := wait(t, e)
	if res.Success {
		t.Fatal("goal succeeded despite sink failure")
	}
	if e.State() != Aborted {
		t.Fatalf("surprising state %s", e.State())
	}
}

func TestCancelRecordedNotPreemptive(t *testing.T) {
	snk := &gatedSink{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := testServer(snk)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeShip,
		Message:  "ORD1",
	})
	if err != nil {
		t.Fatal(err)
	}

	<-snk.entered // execution is mid-submission

	st, _, err := s.Status(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st != Executing {
		t.Fatalf("surprising state %s", st)
	}

	if err := s.Cancel(e.ID); err != nil {
		t.Fatal(err)
	}

	close(snk.release)

	// No preemption: the goal still runs to completion.
	if res := wait(t, e); !res.Success {
		t.Fatalf("goal failed: %s", res.Err)
	}

	// Terminal goals are forgotten once reported.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, _, err := s.Status(e.ID); err != nil {
			if _, is := err.(*UnknownGoal); !is {
				t.Fatalf("surprising error %#v", err)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("terminal goal still tracked")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCancelUnknownGoal(t *testing.T) {
	s := testServer(&fakeSink{})

	if err := s.Cancel("nope"); err == nil {
		t.Fatal("expected an error")
	} else if _, is := err.(*UnknownGoal); !is {
		t.Fatalf("surprising error %#v", err)
	}
}

func TestOutcomes(t *testing.T) {
	snk := &fakeSink{}
	s := testServer(snk)
	s.Outcomes = make(chan Outcome, 8)

	e, err := s.Submit(context.Background(), Goal{
		Protocol: ProtocolHTTP,
		Mode:     ModeDispatch,
		Message:  "ORD1",
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case o := <-s.Outcomes:
		if o.ID != e.ID {
			t.Fatalf("surprising outcome id %s", o.ID)
		}
		if o.State != Succeeded || !o.Result.Success {
			t.Fatalf("surprising outcome %#v", o)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no outcome")
	}
}

func TestConcurrentGoals(t *testing.T) {
	snk := &fakeSink{}

	reg := order.NewRegistry()
	n := 32
	for i := 0; i < n; i++ {
		reg.Put(&order.Record{
			OrderID:   fmt.Sprintf("ORD%d", i),
			OrderTime: "2021-01-30 10:32:44",
			Item:      "Medicine",
			Qty:       1,
			City:      "Pune",
			Lon:       73.8,
			Lat:       18.5,
		})
	}

	s := NewGoalServer(reg, snk, 4)
	s.Now = testClock()

	ctx := context.Background()
	execs := make([]*Execution, n)
	wg := sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			e, err := s.Submit(ctx, Goal{
				Protocol: ProtocolHTTP,
				Mode:     ModeDispatch,
				Message:  fmt.Sprintf("ORD%d", i),
			})
			if err != nil {
				t.Errorf("submit %d: %s", i, err)
				return
			}
			execs[i] = e
		}(i)
	}
	wg.Wait()

	for i, e := range execs {
		if e == nil {
			t.Fatalf("no execution for goal %d", i)
		}
		if res := wait(t, e); !res.Success {
			t.Fatalf("goal %d failed: %s", i, res.Err)
		}
	}

	recs := snk.records()
	if len(recs) != n {
		t.Fatalf("expected %d submissions, got %d", n, len(recs))
	}

	seen := map[string]bool{}
	for _, rec := range recs {
		if rec["id"] != "OrdersDispatched" {
			t.Fatalf("surprising target %s", rec["id"])
		}
		if rec["Priority"] != "HP" || rec["Cost"] != "450" {
			t.Fatalf("cross-goal corruption: %v", rec)
		}
		seen[rec["Order ID"]] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct orders, saw %d", n, len(seen))
	}
}
