package bridge

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/eyrcvb1844/VargiBots-Documentation/catalog"
	"github.com/eyrcvb1844/VargiBots-Documentation/order"
	"github.com/eyrcvb1844/VargiBots-Documentation/sink"
)

// Event is the normalized form of one in-bound subscription message,
// republished for other subsystems.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Topic     string    `json:"topic"`
	Message   string    `json:"message"`
}

// A Publisher forwards normalized events, at-least-once,
// fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Publishers fans Publish out to several Publishers.
type Publishers []Publisher

func (ps Publishers) Publish(ctx context.Context, e Event) error {
	var first error
	for _, p := range ps {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Ingress receives in-bound order messages from the subscription
// transport, records them, and announces them.
//
// The transport may call OnMessage from many delivery goroutines at
// once.
type Ingress struct {
	// Registry receives every well-formed order.
	Registry *order.Registry

	// Sink receives an "IncomingOrders" record per order.
	Sink sink.Sink

	// Publisher, if non-nil, receives a normalized Event per
	// message.
	Publisher Publisher

	// TeamID and UniqueID identify this sender in every record.
	TeamID   string
	UniqueID string

	// SubmitTimeout bounds one sink submission.  Zero means the
	// sink's own default.
	SubmitTimeout time.Duration

	// Now is the clock.  Tests override it.  Nil means time.Now.
	Now func() time.Time
}

// OnMessage handles one message from the subscription.
//
// A payload that doesn't parse as an order for a known catalog item
// is dropped: no registry write, no sink record, no republished
// event.  For a well-formed order the registry write happens first,
// so a goal referencing the order can't observe the sink or
// republish side effects before the order is visible.
//
// Sink and republish failures are logged and swallowed; they never
// block ingestion.
func (in *Ingress) OnMessage(ctx context.Context, topic string, payload []byte) error {
	log.Printf("Ingress.OnMessage %s %s", topic, payload)

	rec, err := order.Parse(payload)
	if err != nil {
		log.Printf("Ingress.OnMessage dropping message on %q: %s", topic, err)
		return err
	}

	entry, err := catalog.Lookup(rec.Item)
	if err != nil {
		log.Printf("Ingress.OnMessage dropping message on %q: %s", topic, err)
		return &order.MalformedMessage{Reason: err.Error()}
	}

	in.Registry.Put(rec)

	if in.Publisher != nil {
		e := Event{
			Timestamp: in.now(),
			Topic:     topic,
			Message:   string(payload),
		}
		if err := in.Publisher.Publish(ctx, e); err != nil {
			log.Printf("Ingress.OnMessage republish: %s", err)
		}
	}

	row := sink.Record{
		"id":                  "IncomingOrders",
		"Team Id":             in.TeamID,
		"Unique Id":           in.UniqueID,
		"Order ID":            rec.OrderID,
		"Order Date and Time": rec.OrderTime,
		"Item":                rec.Item,
		"Priority":            entry.Priority,
		"Cost":                strconv.Itoa(entry.Cost),
		"Order Quantity":      strconv.Itoa(rec.Qty),
		"City":                rec.City,
		"Longitude":           strconv.FormatFloat(rec.Lon, 'f', -1, 64),
		"Latitude":            strconv.FormatFloat(rec.Lat, 'f', -1, 64),
		"Quantity":            "1",
	}

	sctx := ctx
	if in.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, in.SubmitTimeout)
		defer cancel()
	}
	if err := in.Sink.Submit(sctx, row); err != nil {
		log.Printf("Ingress.OnMessage sink: %s", err)
	}

	return nil
}

func (in *Ingress) now() time.Time {
	if in.Now != nil {
		return in.Now()
	}
	return time.Now()
}
