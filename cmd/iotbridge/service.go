package main

import (
	"context"
	"log"
	"sync"

	"github.com/eyrcvb1844/VargiBots-Documentation/bridge"
	"github.com/eyrcvb1844/VargiBots-Documentation/order"
	"github.com/eyrcvb1844/VargiBots-Documentation/sink"
)

// Service bundles the bridge components behind the op listeners.
type Service struct {
	Goals   *bridge.GoalServer
	Ingress *bridge.Ingress

	// conns holds per-connection channels that receive terminal
	// goal outcomes.
	conns sync.Map
}

// NewService builds the registry, sink client, goal server, and
// ingress from the configuration.
//
// The Ingress's Publisher is left nil; main wires it once the MQTT
// couplings exist.
func NewService(conf *Conf) *Service {
	registry := order.NewRegistry()

	snk := sink.NewClient(conf.Sink.BaseURL, conf.Sink.ScriptID)
	snk.Timeout = conf.SinkTimeout()
	snk.Verbose = Verbose

	goals := bridge.NewGoalServer(registry, snk, conf.Workers)
	goals.TeamID = conf.TeamID
	goals.UniqueID = conf.UniqueID
	goals.Outcomes = make(chan bridge.Outcome, 64)

	ingress := &bridge.Ingress{
		Registry: registry,
		Sink:     snk,
		TeamID:   conf.TeamID,
		UniqueID: conf.UniqueID,
	}

	return &Service{
		Goals:   goals,
		Ingress: ingress,
	}
}

// ForwardOutcomes relays terminal goal outcomes to every connected
// listener.  Slow listeners miss outcomes.
func (s *Service) ForwardOutcomes(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case o := <-s.Goals.Outcomes:
			Logf("outcome %s", JS(o))
			s.conns.Range(func(k, v interface{}) bool {
				c := v.(chan bridge.Outcome)
				select {
				case c <- o:
				default:
					log.Printf("Service.ForwardOutcomes %v blocked", k)
				}
				return true
			})
		}
	}
}
