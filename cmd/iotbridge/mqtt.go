package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/eyrcvb1844/VargiBots-Documentation/bridge"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTCouplings connects the bridge to the broker.
//
// In-bound messages on the order topic go to the Ingress, each on
// its own goroutine, and normalized events go back out on the
// republish topic.
type MQTTCouplings struct {
	Client mqtt.Client

	QoS            byte
	OrderTopic     string
	RepublishTopic string

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint
}

// NewMQTTCouplings builds the MQTT client around the given Ingress.
//
// The client isn't connected yet; call Start.
func NewMQTTCouplings(conf *Conf, in *bridge.Ingress) *MQTTCouplings {
	c := &MQTTCouplings{
		QoS:            byte(conf.MQTT.QoS),
		OrderTopic:     conf.MQTT.OrderTopic,
		RepublishTopic: conf.MQTT.RepublishTopic,
		Quiesce:        100,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s:%d", conf.MQTT.Broker, conf.MQTT.Port))
	opts.SetClientID(conf.MQTT.ClientID)
	opts.SetKeepAlive(time.Duration(conf.MQTT.KeepAliveSecs) * time.Second)
	opts.AutoReconnect = true

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %s", err)
	}

	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		topic, payload := msg.Topic(), msg.Payload()
		// One delivery, one goroutine.  Ingestion must not
		// stall the Paho router.
		go func() {
			if err := in.OnMessage(context.Background(), topic, payload); err != nil {
				Logf("MQTTCouplings dropped message on %s: %s", topic, err)
			}
		}()
	}

	c.Client = mqtt.NewClient(opts)

	return c
}

// Start connects to the broker and subscribes to the order topic.
func (c *MQTTCouplings) Start(ctx context.Context) error {
	log.Printf("MQTTCouplings connecting")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	log.Printf("MQTTCouplings subscribing to %s (qos %d)", c.OrderTopic, c.QoS)
	if token := c.Client.Subscribe(c.OrderTopic, c.QoS, nil); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	return nil
}

// Publish sends one normalized event to the republish topic.
func (c *MQTTCouplings) Publish(ctx context.Context, e bridge.Event) error {
	js, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	token := c.Client.Publish(c.RepublishTopic, c.QoS, false, js)
	token.Wait()
	return token.Error()
}

// Stop disconnects from the broker.
func (c *MQTTCouplings) Stop(ctx context.Context) error {
	log.Printf("MQTTCouplings disconnecting")
	c.Client.Disconnect(c.Quiesce)
	return nil
}
