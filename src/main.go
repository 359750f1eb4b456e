package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/jinjor/polysynth/src/synth"
	"golang.org/x/sync/errgroup"
)

const sockFileName = "/tmp/polysynth.sock"

var renderPath = flag.String("render", "", "render a MIDI file instead of playing live")
var outPath = flag.String("o", "out.wav", "output WAV path for -render")
var patchPath = flag.String("patch", "", "params JSON to apply before rendering")

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	if *renderPath != "" {
		var patch []byte
		if *patchPath != "" {
			var err error
			patch, err = os.ReadFile(*patchPath)
			if err != nil {
				log.Fatalf("error: %v\n", err)
			}
		}
		if err := synth.RenderFile(*renderPath, *outPath, patch); err != nil {
			log.Fatalf("error: %v\n", err)
		}
		log.Printf("rendered %s to %s\n", *renderPath, *outPath)
		return
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := synth.NewSynth()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer s.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, os.Kill, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	err = withIPCConnection(ctx, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return s.Start(ctx)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, s.CommandCh)
		})
		g.Go(func() error {
			return forwardMidiIn(ctx, s)
		})
		return g.Wait()
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func withIPCConnection(ctx context.Context, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		commandCh <- command
		log.Printf("received: %s\n", string(line))
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func forwardMidiIn(ctx context.Context, s *synth.Synth) error {
	ch := synth.ListenToMidiIn(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("forwardMidiIn() ended.")
			return nil
		case data, ok := <-ch:
			if !ok {
				log.Println("forwardMidiIn() ended.")
				return nil
			}
			s.AddMidiEvent(data)
		}
	}
}
