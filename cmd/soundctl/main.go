// Package main provides soundctl, a line client for the prop-sound socket.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"prop-sound/internal/server"
)

func main() {
	socketPath := pflag.StringP("socket", "s", server.DefaultSocketPath, "unix socket of the prop-sound service")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: soundctl [--socket path] [command ...]")
		fmt.Fprintln(os.Stderr, "\nCommands given as arguments are sent in order; otherwise stdin is forwarded.")
		fmt.Fprintln(os.Stderr, "Example: soundctl 'm1|PLAY|door|/srv/sounds/creak.mp3'")
		fmt.Fprintln(os.Stderr)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	conn, err := net.Dial("unix", *socketPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Print every response and event until the service closes the connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		io.Copy(os.Stdout, conn)
	}()

	var input io.Reader = os.Stdin
	if pflag.NArg() > 0 {
		input = strings.NewReader(strings.Join(pflag.Args(), "\n") + "\n")
	}

	if err := forward(conn, input); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}

	// Half-close so the server sees end of input, then drain events.
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}
	<-done
}

// forward copies lines from r to w, stopping after an EXIT command.
func forward(w io.Writer, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if isExit(line) {
			return nil
		}
	}
	return scanner.Err()
}

func isExit(line string) bool {
	parts := strings.Split(strings.TrimSpace(line), "|")
	return parts[0] == "EXIT" || (len(parts) == 2 && parts[1] == "EXIT")
}
