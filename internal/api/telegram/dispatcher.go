package telegram

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Dispatcher runs submitted work in one FIFO lane per key. Lanes for different keys run
// concurrently; a lane's goroutine exits when its queue drains.
type Dispatcher struct {
	mu     sync.Mutex
	lanes  map[int64][]func(context.Context)
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher with no active lanes.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		lanes:  make(map[int64][]func(context.Context)),
		logger: logger.With().Str("service", "dispatcher").Logger(),
	}
}

// Submit queues fn behind earlier work for key.
func (d *Dispatcher) Submit(ctx context.Context, key int64, fn func(context.Context)) {
	d.mu.Lock()
	queue, active := d.lanes[key]
	d.lanes[key] = append(queue, fn)
	d.mu.Unlock()
	if active {
		return
	}
	d.wg.Add(1)
	go d.drain(ctx, key)
}

func (d *Dispatcher) drain(ctx context.Context, key int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.lanes[key]
		if len(queue) == 0 {
			delete(d.lanes, key)
			d.mu.Unlock()
			return
		}
		fn := queue[0]
		d.lanes[key] = queue[1:]
		d.mu.Unlock()

		d.run(ctx, key, fn)
	}
}

func (d *Dispatcher) run(ctx context.Context, key int64, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Int64("chat_id", key).Msg("handler panicked")
		}
	}()
	fn(ctx)
}

// Wait blocks until every lane has drained.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
