package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
)

// TCPService accepts line-oriented op connections: one JSON Op per
// line in, the processed Op (with any err) back out.
func (s *Service) TCPService(ctx context.Context, port string) error {
	log.Printf("TCPService on %s", port)

	l, err := net.Listen("tcp", port)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}

		go func() {
			if err := s.Listener(ctx, bufio.NewReader(conn), conn); err != nil {
				if err != io.EOF {
					log.Printf("TCPService: %s", err)
				}
			}
			conn.Close()
		}()
	}
}

// Listener processes ops from in, writing each processed op to out.
func (s *Service) Listener(ctx context.Context, in *bufio.Reader, out io.Writer) error {
	say := func(x interface{}) bool {
		js, err := json.Marshal(&x)
		if err != nil {
			log.Printf("Service.Listener warning on rendering: %s on %#v", err, x)
			return false
		}
		js = append(js, '\n')
		if _, err = out.Write(js); err != nil {
			log.Printf("Service.Listener warning on Write: %s", err)
			return false
		}
		return true
	}

	for {
		line, err := in.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var op Op
		if err := json.Unmarshal(line, &op); err != nil {
			if !say(map[string]interface{}{"err": "can't parse: " + err.Error()}) {
				return nil
			}
			continue
		}

		if err := op.Do(ctx, s); err != nil {
			Logf("Service.Listener op error: %s", err)
			// Conveyed via op.Err.
		}

		if !say(&op) {
			return nil
		}
	}
}
