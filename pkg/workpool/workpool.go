// Copyright 2025 Quantdists
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workpool

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

const channelSizeMultiplier = 4

type (
	// Task is a unit of work executed on a pool worker.
	Task[T any] func(context.Context) (T, error)

	item[T any] struct {
		ctx context.Context
		cb  Task[T]
		out chan<- mo.Result[T]
	}

	// Pool is a fixed-size worker pool with typed results. Submit is safe
	// for concurrent use, including concurrently with Close; Close drains
	// the workers and is idempotent.
	Pool[T any] struct {
		ch     chan item[T]
		logger *zap.Logger
		wg     sync.WaitGroup
		mu     sync.RWMutex
		closed bool
	}
)

// New starts count workers. count < 1 defaults to GOMAXPROCS.
func New[T any](count int) *Pool[T] {
	if count < 1 {
		count = runtime.GOMAXPROCS(0)
	}

	logger := zap.L().Named("workpool")
	logger.Debug("creating workpool",
		zap.Int("worker_count", count),
		zap.Int("channel_size", count*channelSizeMultiplier),
	)

	p := &Pool[T]{
		ch:     make(chan item[T], count*channelSizeMultiplier),
		logger: logger,
	}

	for i := range count {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for it := range p.ch {
				v, err := it.cb(it.ctx)

				result := mo.Err[T](err)
				if err == nil {
					result = mo.Ok(v)
				}

				// The out channel is buffered and single-use; the send
				// cannot block, and the receiver relies on exactly one
				// result arriving even when the task context is cancelled.
				it.out <- result
			}
			p.logger.Debug("worker shutting down", zap.Int("worker_id", workerID))
		}(i)
	}

	return p
}

// Submit queues cb and returns a single-use channel carrying its result.
// A closed pool or an already-cancelled context produces an error result
// without executing cb.
func (p *Pool[T]) Submit(ctx context.Context, cb Task[T]) <-chan mo.Result[T] {
	if cb == nil {
		panic("cb must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	out := make(chan mo.Result[T], 1)

	// The read lock spans the channel send so Close cannot close p.ch
	// between the closed check and the enqueue.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("attempt to submit to closed workpool")
		out <- mo.Err[T](errors.New("workpool is closed"))
		return out
	}

	select {
	case p.ch <- item[T]{ctx: ctx, cb: cb, out: out}:
	case <-ctx.Done():
		out <- mo.Err[T](ctx.Err())
	}

	return out
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("workpool closed")
	return nil
}
