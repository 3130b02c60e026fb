package events

import (
	"context"
	"log/slog"
	"sync"
)

// queued is one event waiting to be handed to the wrapped publisher.
type queued struct {
	ctx   context.Context
	event *Event
}

// AsyncPublisher hands events to a wrapped Publisher on a single goroutine,
// in publish order. Publish never waits for the wrapped publisher, so a
// slow history write or an unreachable broker cannot stall the learner.
// Failures are logged and the event is dropped.
type AsyncPublisher struct {
	next   Publisher
	logger *slog.Logger

	mu     sync.Mutex
	queue  []queued
	closed bool

	wake chan struct{}
	done chan struct{}
}

// NewAsyncPublisher starts the worker feeding next.
func NewAsyncPublisher(next Publisher, logger *slog.Logger) *AsyncPublisher {
	p := &AsyncPublisher{
		next:   next,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish queues e. The caller's cancellation does not reach the queued
// publish; its values do.
func (p *AsyncPublisher) Publish(ctx context.Context, e *Event) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("study event after close dropped", "event_id", e.ID, "event_type", e.Type)
		return nil
	}
	p.queue = append(p.queue, queued{ctx: context.WithoutCancel(ctx), event: e})
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of events not yet handed over.
func (p *AsyncPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting events, drains the queue and closes the wrapped
// publisher.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	<-p.done
	return p.next.Close()
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for {
		q, ok, closed := p.pop()
		if !ok {
			if closed {
				return
			}
			<-p.wake
			continue
		}
		if err := p.next.Publish(q.ctx, q.event); err != nil {
			p.logger.Warn("study event dropped", "event_id", q.event.ID, "event_type", q.event.Type, "error", err)
		}
	}
}

func (p *AsyncPublisher) pop() (queued, bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return queued{}, false, p.closed
	}
	q := p.queue[0]
	p.queue[0] = queued{}
	p.queue = p.queue[1:]
	return q, true, false
}
