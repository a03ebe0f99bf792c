// Package storequeue serializes storage work through a single consumer.
//
// Every mutation of leave and balance state is submitted as one unit of work
// and executed strictly in enqueue order, so two interactions racing to act on
// the same record are ordered and the loser observes the winner's effect. A
// failing unit propagates its error to the awaiting caller only; the consumer
// loop keeps draining.
package storequeue

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var ErrQueueClosed = errors.New("store queue closed")

type unit struct {
	ctx  context.Context
	run  func(ctx context.Context) (any, error)
	done chan outcome
}

type outcome struct {
	value any
	err   error
}

type Queue struct {
	units  chan unit
	logger *zap.Logger
}

func New(buffer int, logger ...*zap.Logger) *Queue {
	l := zap.L().Named("storequeue")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("storequeue")
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{
		units:  make(chan unit, buffer),
		logger: l,
	}
}

// Run consumes units until ctx is cancelled. It must be running before any
// caller submits work; it is the sole executor of submitted units.
func (q *Queue) Run(ctx context.Context) {
	q.logger.Info("store queue consumer started")
	for {
		select {
		case <-ctx.Done():
			q.drain()
			q.logger.Info("store queue consumer stopped")
			return
		case u := <-q.units:
			q.execute(u)
		}
	}
}

func (q *Queue) execute(u unit) {
	if err := u.ctx.Err(); err != nil {
		u.done <- outcome{err: err}
		return
	}
	value, err := u.run(u.ctx)
	if err != nil {
		q.logger.Debug("store unit failed", zap.Error(err))
	}
	u.done <- outcome{value: value, err: err}
}

func (q *Queue) drain() {
	for {
		select {
		case u := <-q.units:
			u.done <- outcome{err: ErrQueueClosed}
		default:
			return
		}
	}
}

// Submit enqueues fn and blocks until the consumer has executed it, returning
// fn's result. Submissions are executed in FIFO order across the process.
func (q *Queue) Submit(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	u := unit{ctx: ctx, run: fn, done: make(chan outcome, 1)}
	select {
	case q.units <- u:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case out := <-u.done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do is the typed convenience wrapper around Queue.Submit.
func Do[T any](ctx context.Context, q *Queue, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := q.Submit(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// DoErr runs a unit that only reports an error.
func DoErr(ctx context.Context, q *Queue, fn func(ctx context.Context) error) error {
	_, err := q.Submit(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}
