// Package console implements the thin interactive debug console of §12.6: a
// stdin reader, gated by configuration, that accepts raw FIX text and feeds
// it through the same decode path the socket reader uses. It intentionally
// does not carry the teacher's fuller REPL command set (order shortcuts, tab
// completion) since those reach into a market-making domain this engine
// does not have.
package console

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"
)

// Dispatcher is the subset of the session engine a console line is fed
// through once parsed: decode, validate, and route exactly as if the bytes
// had arrived over the wire.
type Dispatcher interface {
	HandleLine(raw string) error
}

// Run reads newline-delimited input from r until ctx is canceled or r is
// exhausted. Lines not beginning with "8=FIX" are ignored, matching the
// teacher's repl gate on well-formed FIX text.
func Run(ctx context.Context, r io.Reader, d Dispatcher) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			handle(line, d)
		}
	}
}

func handle(line string, d Dispatcher) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "8=FIX") {
		return
	}
	if err := d.HandleLine(line); err != nil {
		log.Printf("console: %v", err)
	}
}
