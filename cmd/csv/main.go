package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/happyslowly/csv/cmd/csv/root"
)

type exitCoder interface {
	ExitCode() int
}

type usager interface {
	Usage() string
}

func main() {
	// Writes to a closed stdout then fail with EPIPE instead of killing the
	// process, and the projector ends quietly.
	signal.Ignore(syscall.SIGPIPE)

	if err := root.Execute(os.Args[1:]); err != nil {
		// Print a short, single-line error to stderr on failures.
		msg := strings.Join(strings.Fields(err.Error()), " ")
		if msg == "" {
			msg = "error"
		}
		_, _ = os.Stderr.WriteString("csv: " + msg + "\n")
		if u, ok := err.(usager); ok {
			_, _ = os.Stderr.WriteString("\n" + u.Usage())
		}
		code := 1
		if ec, ok := err.(exitCoder); ok {
			if c := ec.ExitCode(); c != 0 {
				code = c
			}
		}
		os.Exit(code)
	}
}
