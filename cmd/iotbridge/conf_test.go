package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConf(t *testing.T) {
	dir, err := ioutil.TempDir("", "iotbridge")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	filename := filepath.Join(dir, "conf.yaml")
	yaml := `
mqtt:
  broker: tcp://localhost
  port: 1883
  qos: 1
  order_topic: /eyrc/test/orders
sink:
  script_id: script-123
  timeout_secs: 3
team_id: VB#0001
workers: 4
`
	if err := ioutil.WriteFile(filename, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	conf, err := LoadConf(filename)
	if err != nil {
		t.Fatal(err)
	}

	if conf.MQTT.Broker != "tcp://localhost" || conf.MQTT.QoS != 1 {
		t.Fatalf("surprising mqtt conf %#v", conf.MQTT)
	}
	if conf.MQTT.OrderTopic != "/eyrc/test/orders" {
		t.Fatalf("surprising order topic %s", conf.MQTT.OrderTopic)
	}
	if conf.Sink.ScriptID != "script-123" {
		t.Fatalf("surprising script id %s", conf.Sink.ScriptID)
	}
	if conf.SinkTimeout() != 3*time.Second {
		t.Fatalf("surprising timeout %s", conf.SinkTimeout())
	}
	if conf.TeamID != "VB#0001" {
		t.Fatalf("surprising team id %s", conf.TeamID)
	}
	if conf.Workers != 4 {
		t.Fatalf("surprising workers %d", conf.Workers)
	}

	// Defaults survive for keys the file doesn't set.
	if conf.UniqueID != "axaKcGsN" {
		t.Fatalf("surprising unique id %s", conf.UniqueID)
	}
	if conf.Sink.BaseURL == "" {
		t.Fatal("no default sink base url")
	}
}

func TestLoadConfMissing(t *testing.T) {
	if _, err := LoadConf("no/such/file.yaml"); err == nil {
		t.Fatal("expected an error")
	}
}
