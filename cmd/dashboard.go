package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/thriftngo/storefront-cli/internal/app"
	"github.com/thriftngo/storefront-cli/internal/event"
)

// renderStatus returns the tick redraw callback: a single status line
// rewritten in place. Rendering reads state only on the reducer goroutine,
// so no synchronization is needed.
func renderStatus(out io.Writer) func(*app.State) {
	var last string
	return func(s *app.State) {
		line := fmt.Sprintf("[%-28s] %3.0f%%  %s", s.Pipeline.Stage, s.Pipeline.Progress*100, s.Pipeline.Message)
		if s.Pipeline.CaptchaDetected {
			line += "  (waiting on challenge)"
		}
		if len(s.Listings) > 0 {
			line += fmt.Sprintf("  %d/%d", s.Selected+1, len(s.Listings))
		}
		if line == last {
			return
		}
		last = line
		fmt.Fprintf(out, "\r\033[K%s", line)
	}
}

// readInput maps line-buffered keys from r onto Input events until r closes
// or ctx is done. The reducer only ever sees the mapped Key values.
func readInput(ctx context.Context, r io.Reader, bus *event.Bus) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		bus.Send(event.Input{Key: mapKey(scanner.Text())})
	}
}

func mapKey(s string) event.Key {
	switch s {
	case "k", "up":
		return event.KeyNavUp
	case "j", "down":
		return event.KeyNavDown
	case "l", "lock":
		return event.KeyToggleLock
	case "v", "view":
		return event.KeyToggleView
	case "i", "open":
		return event.KeyOpenSelected
	case "q", "quit":
		return event.KeyQuit
	default:
		return event.KeyNone
	}
}
