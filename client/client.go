package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"RELAY_ADDR,default=localhost:8080"`
	Name          string `env:"CHAT_NAME,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
	Colours       bool   `env:"CHAT_COLOURS,default=true"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to the relay, announces the name, forwards stdin and prints what the relay sends.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if strings.TrimSpace(config.Name) == "" {
		return exitConfig, fmt.Errorf("config error: CHAT_NAME is empty")
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish connection to the relay.
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", config.ServerAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to relay at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if _, err := fmt.Fprintf(conn, "%s\n", config.Name); err != nil {
		return exitRuntime, fmt.Errorf("failed to announce name: %w", err)
	}
	log.Info(fmt.Sprintf(">>> Connected to %s as %s (recipients:message, Ctrl+C to quit)",
		config.ServerAddress, config.Name))

	// 4. Reception loop in the background, stdin forwarding in the foreground.
	received := make(chan error, 1)
	go func() {
		received <- printLines(conn, os.Stdout, config.Colours)
	}()
	sent := make(chan error, 1)
	go func() {
		sent <- forwardLines(os.Stdin, conn)
	}()

	select {
	case <-ctx.Done():
		log.Info("Stopping client...")
		return exitOK, nil
	case err := <-sent:
		if err != nil {
			return exitRuntime, fmt.Errorf("send error: %w", err)
		}
		// stdin closed: stop writing, keep printing until the relay closes.
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.CloseWrite()
		}
		return exitOK, <-received
	case err := <-received:
		if err != nil {
			return exitRuntime, fmt.Errorf("receive error: %w", err)
		}
		log.Info("Relay closed the connection")
		return exitOK, nil
	}
}

func forwardLines(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if _, err := fmt.Fprintf(out, "%s\n", scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printLines(in io.Reader, out io.Writer, colours bool) error {
	reader := bufio.NewReader(in)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Fprintln(out, render(strings.TrimRight(line, "\r\n"), colours))
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// render highlights the sender of a "from {sender}: {body}" line.
func render(line string, colours bool) string {
	rest, ok := strings.CutPrefix(line, "from ")
	if !ok {
		return line
	}
	sender, body, ok := strings.Cut(rest, ": ")
	if !ok {
		return line
	}
	if colours {
		sender = color.New(color.FgCyan, color.OpBold).Render(sender)
	}
	return fmt.Sprintf("[%s] %s", sender, body)
}
