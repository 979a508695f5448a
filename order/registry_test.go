package order

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()

	rec := &Record{
		OrderID:   "ORD1",
		OrderTime: "2021-01-30 10:32:44",
		Item:      "Food",
		Qty:       2,
		City:      "Mumbai",
		Lon:       72.8777,
		Lat:       19.0760,
	}
	r.Put(rec)

	got, err := r.Get("ORD1")
	if err != nil {
		t.Fatal(err)
	}
	if *got != *rec {
		t.Fatalf("surprising record %#v", got)
	}
}

func TestRegistryNotFound(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("nope"); err == nil {
		t.Fatal("expected an error")
	} else if _, is := err.(*NotFound); !is {
		t.Fatalf("surprising error %#v", err)
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry()

	r.Put(&Record{OrderID: "ORD1", City: "Mumbai"})
	r.Put(&Record{OrderID: "ORD1", City: "Delhi"})

	got, err := r.Get("ORD1")
	if err != nil {
		t.Fatal(err)
	}
	if got.City != "Delhi" {
		t.Fatalf("surprising city %s", got.City)
	}
	if r.Len() != 1 {
		t.Fatalf("surprising registry size %d", r.Len())
	}
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()

	n := 64
	wg := sync.WaitGroup{}
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("ORD%d", i)
		go func(id string) {
			r.Put(&Record{OrderID: id, Item: "Medicine"})
			wg.Done()
		}(id)
		go func(id string) {
			// Either outcome is fine; we just must not tear.
			if rec, err := r.Get(id); err == nil && rec.OrderID != id {
				t.Errorf("got record %s for %s", rec.OrderID, id)
			}
			wg.Done()
		}(id)
	}
	wg.Wait()

	if r.Len() != n {
		t.Fatalf("surprising registry size %d", r.Len())
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("ORD%d", i)
		rec, err := r.Get(id)
		if err != nil {
			t.Fatal(err)
		}
		if rec.OrderID != id {
			t.Fatalf("surprising record %#v", rec)
		}
	}
}
