package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/eyrcvb1844/VargiBots-Documentation/bridge"
)

func main() {

	var (
		confFile = flag.String("c", "", "optional YAML configuration filename")

		tcpPort  = flag.String("t", "", "override for the TCP op listener address")
		httpPort = flag.String("h", "", "override for the HTTP/WebSocket address")

		listenOnStdin = flag.Bool("I", false, "listen for ops on stdin")
	)

	flag.BoolVar(&Verbose, "v", false, "log lots of wonderful things")

	flag.Parse()

	conf := DefaultConf()
	if *confFile != "" {
		var err error
		if conf, err = LoadConf(*confFile); err != nil {
			log.Fatalf("couldn't load conf %s: %s", *confFile, err)
		}
	}
	if *tcpPort != "" {
		conf.TCPPort = *tcpPort
	}
	if *httpPort != "" {
		conf.HTTPPort = *httpPort
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewService(conf)

	fan := bridge.NewFanout()
	mq := NewMQTTCouplings(conf, s.Ingress)
	s.Ingress.Publisher = bridge.Publishers{fan, mq}

	if err := mq.Start(ctx); err != nil {
		log.Fatalf("MQTT start: %s", err)
	}

	go s.ForwardOutcomes(ctx)

	if *listenOnStdin {
		go func() {
			if err := s.Listener(ctx, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
				log.Printf("Service.Listener os.Stdin os.Stdout error %s", err)
			}
			Logf("stdin listener done")
			cancel()
		}()
	}

	if conf.TCPPort != "" {
		go func() {
			if err := s.TCPService(ctx, conf.TCPPort); err != nil {
				log.Printf("Service.TCPService error %s", err)
				cancel()
			}
		}()
	}

	if conf.HTTPPort != "" {
		s.WebSocketService(ctx)
		go func() {
			if err := s.HTTPServer(ctx, conf.HTTPPort); err != nil {
				log.Printf("Service.HTTPServer error %s", err)
				cancel()
			}
		}()
	}

	log.Printf("iotbridge up (team %s)", conf.TeamID)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Printf("shutting down")
	case <-ctx.Done():
	}

	mq.Stop(ctx)
	cancel()
}
