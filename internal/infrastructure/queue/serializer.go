package queue

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/zabank/ledger-api/internal/metrics"
)

const defaultBuffer = 256

// ErrStopped is returned for work submitted after the serializer has shut down.
var ErrStopped = errors.New("write serializer stopped")

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Serializer runs store read-modify-write cycles one at a time on a single
// worker goroutine, in submission order.
type Serializer struct {
	jobs    chan job
	stopped chan struct{}
	log     zerolog.Logger
}

// NewSerializer creates a Serializer whose queue holds up to buffer pending
// cycles. If buffer <= 0, defaultBuffer is used.
func NewSerializer(buffer int, log zerolog.Logger) *Serializer {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Serializer{
		jobs:    make(chan job, buffer),
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Start launches the worker. It stops when ctx is cancelled; queued cycles
// that have not started by then fail with ErrStopped.
func (s *Serializer) Start(ctx context.Context) {
	go s.run(ctx)
}

// Do queues fn and blocks until it has run, returning its error.
func (s *Serializer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	metrics.WriteQueueDepth.Inc()
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		metrics.WriteQueueDepth.Dec()
		return ctx.Err()
	case <-s.stopped:
		metrics.WriteQueueDepth.Dec()
		return ErrStopped
	}

	select {
	case err := <-j.done:
		return err
	case <-s.stopped:
		// The worker answers every job it ran or drained before closing
		// stopped. An empty done means the job landed after the drain.
		select {
		case err := <-j.done:
			return err
		default:
			metrics.WriteQueueDepth.Dec()
			return ErrStopped
		}
	}
}

func (s *Serializer) run(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Int("pending", s.drain()).Msg("write serializer stopping")
			return
		case j := <-s.jobs:
			metrics.WriteQueueDepth.Dec()
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			err := j.fn(j.ctx)
			if err != nil {
				s.log.Debug().Err(err).Msg("serialized write failed")
			}
			j.done <- err
		}
	}
}

// drain fails every queued job with ErrStopped and returns how many there were.
func (s *Serializer) drain() int {
	n := 0
	for {
		select {
		case j := <-s.jobs:
			metrics.WriteQueueDepth.Dec()
			j.done <- ErrStopped
			n++
		default:
			return n
		}
	}
}
