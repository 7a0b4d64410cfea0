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
	"sync"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkpoolResult(t *testing.T) {
	t.Parallel()

	pool := New[int](2)
	defer pool.Close()

	ch := pool.Submit(t.Context(), func(context.Context) (int, error) {
		return 7, nil
	})

	v, err := (<-ch).Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestWorkpoolErrorResult(t *testing.T) {
	t.Parallel()

	pool := New[int](1)
	defer pool.Close()

	ch := pool.Submit(t.Context(), func(context.Context) (int, error) {
		return 0, assert.AnError
	})

	_, err := (<-ch).Get()
	require.ErrorIs(t, err, assert.AnError)
}

func TestWorkpoolCancelledContext(t *testing.T) {
	t.Parallel()

	pool := New[int](1)
	defer pool.Close()

	// Occupy the single worker so the queue cannot drain immediately.
	block := make(chan struct{})
	pool.Submit(t.Context(), func(context.Context) (int, error) {
		<-block
		return 0, nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	// With the worker blocked and the context cancelled, Submit must not
	// hang even if the queue fills up.
	var last <-chan mo.Result[int]
	for range cap(pool.ch) + 2 {
		last = pool.Submit(ctx, func(context.Context) (int, error) {
			return 1, nil
		})
	}
	close(block)

	_, err := (<-last).Get()
	// Either the task squeezed into the queue and ran, or the context
	// error was reported; it must not deadlock either way.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestWorkpoolResultDeliveredAfterCancel(t *testing.T) {
	t.Parallel()

	pool := New[int](1)
	defer pool.Close()

	ctx, cancel := context.WithCancel(t.Context())

	// The task finishes only after its context is already cancelled, so
	// the worker hands back the result under a done context. Exactly one
	// result must still arrive on the channel.
	ch := pool.Submit(ctx, func(taskCtx context.Context) (int, error) {
		<-taskCtx.Done()
		return 9, nil
	})
	cancel()

	v, err := (<-ch).Get()
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestWorkpoolSubmitCloseRace(t *testing.T) {
	t.Parallel()

	for range 50 {
		pool := New[int](2)

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 20 {
					// Every submission yields exactly one result: either
					// the task ran (workers drain the queue on close) or
					// the closed-pool error was delivered.
					<-pool.Submit(context.Background(), func(context.Context) (int, error) {
						return 1, nil
					})
				}
			}()
		}

		require.NoError(t, pool.Close())
		wg.Wait()
	}
}

func TestWorkpoolClosed(t *testing.T) {
	t.Parallel()

	pool := New[int](1)
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err := (<-pool.Submit(t.Context(), func(context.Context) (int, error) {
		return 1, nil
	})).Get()
	assert.Error(t, err)
}

func TestWorkpoolManyTasks(t *testing.T) {
	t.Parallel()

	pool := New[int](4)
	defer pool.Close()

	chans := make([]<-chan mo.Result[int], 0, 100)
	for i := range 100 {
		chans = append(chans, pool.Submit(t.Context(), func(context.Context) (int, error) {
			return i * i, nil
		}))
	}

	sum := 0
	for _, ch := range chans {
		v, err := (<-ch).Get()
		require.NoError(t, err)
		sum += v
	}
	assert.Equal(t, 328350, sum)
}
