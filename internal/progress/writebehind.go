package progress

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// WriteConfig tunes how remote writes are attempted.
type WriteConfig struct {
	Timeout     time.Duration // Per attempt
	Attempts    int           // Total attempts per write, at least 1
	InitialWait time.Duration // Backoff before the second attempt
	MaxWait     time.Duration // Backoff ceiling
	Multiplier  float64       // Backoff growth per attempt
}

// DefaultWriteConfig returns the settings used when none are given.
func DefaultWriteConfig() WriteConfig {
	return WriteConfig{
		Timeout:     5 * time.Second,
		Attempts:    3,
		InitialWait: 200 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
	}
}

func (c WriteConfig) withDefaults() WriteConfig {
	d := DefaultWriteConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Attempts <= 0 {
		c.Attempts = d.Attempts
	}
	if c.InitialWait <= 0 {
		c.InitialWait = d.InitialWait
	}
	if c.MaxWait <= 0 {
		c.MaxWait = d.MaxWait
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	return c
}

// write is one queued remote mutation.
type write struct {
	op    string // For logs, e.g. "merge", "set_add"
	field string
	apply func(ctx context.Context, d Durable) error
}

// writer applies queued writes to a Durable on a single goroutine, in
// enqueue order. Enqueue never blocks. A write that still fails after
// every attempt is logged and dropped.
type writer struct {
	durable   Durable
	learnerID string
	logger    *slog.Logger
	cfg       WriteConfig

	mu      sync.Mutex
	queue   []write
	busy    bool
	closed  bool
	waiters []chan struct{}

	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func newWriter(d Durable, learnerID string, logger *slog.Logger, cfg WriteConfig) *writer {
	ctx, cancel := context.WithCancel(context.Background())
	w := &writer{
		durable:   d,
		learnerID: learnerID,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	go w.run()
	return w
}

func (w *writer) enqueue(wr write) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("progress write after close dropped", "learner_id", w.learnerID, "op", wr.op, "field", wr.field)
		return
	}
	w.queue = append(w.queue, wr)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for {
		wr, ok, closed := w.next()
		if !ok {
			if closed {
				return
			}
			<-w.wake
			continue
		}
		w.apply(wr)
	}
}

// next pops the oldest write. When the queue is empty it marks the writer
// idle, releases Flush waiters and reports whether the writer is closed.
func (w *writer) next() (write, bool, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		w.busy = false
		for _, ch := range w.waiters {
			close(ch)
		}
		w.waiters = nil
		return write{}, false, w.closed
	}

	wr := w.queue[0]
	w.queue[0] = write{}
	w.queue = w.queue[1:]
	w.busy = true
	return wr, true, false
}

func (w *writer) apply(wr write) {
	var err error
	for attempt := range w.cfg.Attempts {
		ctx, cancel := context.WithTimeout(w.ctx, w.cfg.Timeout)
		err = wr.apply(ctx, w.durable)
		cancel()
		if err == nil {
			return
		}
		if w.ctx.Err() != nil || errors.Is(err, context.Canceled) {
			break
		}

		// Last attempt, don't sleep.
		if attempt == w.cfg.Attempts-1 {
			break
		}

		w.logger.Debug("progress write failed, retrying",
			"learner_id", w.learnerID, "op", wr.op, "field", wr.field, "attempt", attempt+1, "error", err)
		select {
		case <-w.ctx.Done():
		case <-time.After(w.backoff(attempt)):
		}
	}

	w.logger.Error("progress write dropped",
		"learner_id", w.learnerID, "op", wr.op, "field", wr.field, "error", err)
}

// backoff computes the wait before the attempt after the given one.
func (w *writer) backoff(attempt int) time.Duration {
	wait := float64(w.cfg.InitialWait) * math.Pow(w.cfg.Multiplier, float64(attempt))
	if wait > float64(w.cfg.MaxWait) {
		wait = float64(w.cfg.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// pending returns the number of queued or running writes.
func (w *writer) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.queue)
	if w.busy {
		n++
	}
	return n
}

// flush waits until every write enqueued so far has been applied or
// dropped.
func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.queue) == 0 && !w.busy {
		w.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting writes and drains the queue. If ctx ends first the
// remaining writes are abandoned.
func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	select {
	case <-w.done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-w.done
		return ctx.Err()
	}
}
