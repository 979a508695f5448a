package main

import (
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

// Conf is the daemon's static configuration.
type Conf struct {
	MQTT struct {
		// Broker is the broker URL (for example "tcp://localhost").
		Broker string `yaml:"broker"`

		// Port is the broker port.
		Port int `yaml:"port"`

		// QoS for subscriptions and republished events.
		QoS int `yaml:"qos"`

		// ClientID is our client id at the broker.
		ClientID string `yaml:"client_id"`

		// OrderTopic is the topic that carries in-bound orders.
		OrderTopic string `yaml:"order_topic"`

		// RepublishTopic receives the normalized event for each
		// in-bound message.
		RepublishTopic string `yaml:"republish_topic"`

		// KeepAliveSecs is the MQTT keep-alive in seconds.
		KeepAliveSecs int `yaml:"keep_alive_secs"`
	} `yaml:"mqtt"`

	Sink struct {
		// BaseURL is the sink endpoint prefix.
		BaseURL string `yaml:"base_url"`

		// ScriptID identifies the deployed sink script.
		ScriptID string `yaml:"script_id"`

		// TimeoutSecs bounds one submission, in seconds.
		TimeoutSecs int `yaml:"timeout_secs"`
	} `yaml:"sink"`

	// TeamID and UniqueID identify this sender in every record.
	TeamID   string `yaml:"team_id"`
	UniqueID string `yaml:"unique_id"`

	// Workers bounds concurrent goal executions.
	Workers int `yaml:"workers"`

	// TCPPort is the address for the line-oriented op listener.
	TCPPort string `yaml:"tcp_port"`

	// HTTPPort is the address for the HTTP/WebSocket op service.
	HTTPPort string `yaml:"http_port"`
}

// DefaultConf gives the values the eYRC setup uses.
func DefaultConf() *Conf {
	conf := &Conf{
		TeamID:   "VB#1844",
		UniqueID: "axaKcGsN",
		Workers:  16,
		TCPPort:  ":9000",
	}
	conf.MQTT.Broker = "tcp://broker.mqttdashboard.com"
	conf.MQTT.Port = 1883
	conf.MQTT.QoS = 0
	conf.MQTT.ClientID = "iotbridge"
	conf.MQTT.OrderTopic = "/eyrc/vb/axaKcGsN/orders"
	conf.MQTT.RepublishTopic = "/ros_iot_bridge/mqtt/sub"
	conf.MQTT.KeepAliveSecs = 10
	conf.Sink.BaseURL = "https://script.google.com/macros/s"
	conf.Sink.TimeoutSecs = 10
	return conf
}

// LoadConf reads a YAML configuration file over the defaults.
func LoadConf(filename string) (*Conf, error) {
	conf := DefaultConf()
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bs, conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// SinkTimeout is Sink.TimeoutSecs as a Duration.
func (c *Conf) SinkTimeout() time.Duration {
	return time.Duration(c.Sink.TimeoutSecs) * time.Second
}
