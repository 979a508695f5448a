package bridge

import (
	"context"
	"log"
	"sync"
)

// Fanout distributes normalized events to in-process subscribers, so
// other subsystems in the same process can consume orders without
// going back through the broker.
//
// Publish never blocks: a subscriber that isn't keeping up misses
// events.
type Fanout struct {
	sync.Mutex

	subs map[chan Event]bool
}

// NewFanout makes an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{
		subs: make(map[chan Event]bool),
	}
}

// Subscribe returns a channel that will receive published events.
func (f *Fanout) Subscribe(buf int) chan Event {
	c := make(chan Event, buf)
	f.Lock()
	f.subs[c] = true
	f.Unlock()
	return c
}

// Unsubscribe removes and closes the channel.
func (f *Fanout) Unsubscribe(c chan Event) {
	f.Lock()
	if f.subs[c] {
		delete(f.subs, c)
		close(c)
	}
	f.Unlock()
}

// Publish offers the event to every subscriber.
func (f *Fanout) Publish(ctx context.Context, e Event) error {
	f.Lock()
	defer f.Unlock()
	for c := range f.subs {
		select {
		case c <- e:
		default:
			log.Printf("Fanout.Publish subscriber blocked; dropping event for %s", e.Topic)
		}
	}
	return nil
}
