package storequeue_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"concord-desk/internal/shared/storequeue"

	"github.com/stretchr/testify/assert"
)

func TestQueue_FIFOOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := storequeue.New(8)
	go q.Run(ctx)

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		// Submit from a single goroutine so enqueue order is deterministic.
		err := storequeue.DoErr(ctx, q, func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		assert.NoError(t, err)
		wg.Done()
	}
	wg.Wait()

	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestQueue_ErrorPropagatesToCallerOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := storequeue.New(4)
	go q.Run(ctx)

	boom := errors.New("disk full")
	err := storequeue.DoErr(ctx, q, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The consumer keeps draining after a failed unit.
	got, err := storequeue.Do(ctx, q, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestQueue_TypedResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := storequeue.New(1)
	go q.Run(ctx)

	got, err := storequeue.Do(ctx, q, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestQueue_CancelledCaller(t *testing.T) {
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	q := storequeue.New(1)
	go q.Run(runCtx)

	callCtx, cancelCall := context.WithCancel(context.Background())
	cancelCall()

	err := storequeue.DoErr(callCtx, q, func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
