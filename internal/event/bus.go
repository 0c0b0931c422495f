package event

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrClosed is returned by Next once the bus is closed and drained.
var ErrClosed = eris.New("event: bus closed")

// Bus is an unbounded, ordered, multi-producer single-consumer queue.
//
// Send never blocks, so background tasks can post completion events without
// caring whether the main loop is mid-reduction. Events sent after Close are
// dropped rather than re-applied.
type Bus struct {
	mu     sync.Mutex
	queue  []Event
	wake   chan struct{}
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{wake: make(chan struct{}, 1)}
}

// Send enqueues one event. It never blocks and is safe from any goroutine.
func (b *Bus) Send(e Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, e)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the bus is closed and drained,
// or ctx is done. Events are delivered in emission order per producer.
func (b *Bus) Next(ctx context.Context) (Event, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			e := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return e, nil
		}
		closed := b.closed
		b.mu.Unlock()

		if closed {
			return nil, ErrClosed
		}

		select {
		case <-b.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops delivery. Pending events remain readable; later sends drop.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Closed reports whether Close has been called.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// RunTicker emits Tick events at the given rate until ctx is done or the
// bus closes. It is intended to run as its own goroutine (for example under
// an errgroup alongside the input reader).
func (b *Bus) RunTicker(ctx context.Context, rateHz float64) error {
	if rateHz <= 0 {
		rateHz = 30.0
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rateHz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if b.Closed() {
				return nil
			}
			b.Send(Tick{})
		}
	}
}
