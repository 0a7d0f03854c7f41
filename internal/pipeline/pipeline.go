// Copyright (C) 2025 Evolution Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package pipeline implements the ordered concurrent pipeline of
// spec.md §4.F: a single producer assigning monotonically increasing
// sequence tags, a bounded work queue feeding a fixed worker pool, and a
// single drainer that observes results in tag order no matter how the
// workers were scheduled. Cancellation and the first-error-wins slot are
// provided by errgroup.WithContext, the same construct the teacher uses
// for its worker fan-outs (queryworker/worker_service.go).
package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/firelink-data/evolution/internal/fwerrors"
)

// Plan describes one pipeline run over work items of type W producing
// results of type R.
type Plan[W, R any] struct {
	// Workers is the pool size T. Values below 1 are treated as 1.
	Workers int

	// WorkCapacity bounds the work queue; the producer blocks when it is
	// full. Values below 1 fall back to Workers*2.
	WorkCapacity int

	// ResultCapacity bounds the ordered result channel; fast workers
	// block on enqueue when it is full, throttling to sink speed. Values
	// below 1 fall back to Workers*2.
	ResultCapacity int

	// Produce generates work items in input order, calling emit once per
	// item. The pipeline assigns each emitted item the next sequence tag.
	// Produce must return promptly with emit's error when emit fails.
	Produce func(ctx context.Context, emit func(W) error) error

	// Work converts one item to a result. It runs concurrently on every
	// worker and must not share mutable state across calls on different
	// goroutines.
	Work func(ctx context.Context, seq uint64, item W) (R, error)

	// Drain accepts results in strictly ascending sequence-tag order. It
	// runs on a single goroutine that exclusively owns the sink.
	Drain func(ctx context.Context, seq uint64, result R) error
}

// Runner executes a Plan while honoring the ordering contract: Drain sees
// tags 0, 1, 2, ... with no gaps and no reordering.
type Runner[W, R any] interface {
	Run(ctx context.Context, plan Plan[W, R]) error
}

type job[W any] struct {
	seq  uint64
	item W
}

type result[R any] struct {
	seq     uint64
	payload R
}

// Pool is the classic pool Runner: T OS-thread-backed goroutines with
// explicit channel plumbing between producer, workers and drainer.
type Pool[W, R any] struct{}

// NewPool returns the pooled Runner for W→R plans.
func NewPool[W, R any]() Pool[W, R] { return Pool[W, R]{} }

func (Pool[W, R]) Run(ctx context.Context, plan Plan[W, R]) error {
	workers := plan.Workers
	if workers < 1 {
		workers = 1
	}
	workCap := plan.WorkCapacity
	if workCap < 1 {
		workCap = workers * 2
	}
	resultCap := plan.ResultCapacity
	if resultCap < 1 {
		resultCap = workers * 2
	}

	g, ctx := errgroup.WithContext(ctx)
	work := make(chan job[W], workCap)
	results := make(chan result[R], resultCap)

	// Producer: tags items and feeds the bounded work queue.
	g.Go(func() error {
		defer close(work)
		var seq uint64
		emit := func(item W) error {
			select {
			case work <- job[W]{seq: seq, item: item}:
				seq++
				return nil
			case <-ctx.Done():
				return fwerrors.CancelCause(ctx)
			}
		}
		return plan.Produce(ctx, emit)
	})

	// Workers: consume in arbitrary order, emit tagged results. When the
	// whole pool has exited the result channel closes so the drainer
	// terminates.
	var wg sync.WaitGroup
	wg.Add(workers)
	go func() {
		wg.Wait()
		close(results)
	}()
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			defer wg.Done()
			for j := range work {
				r, err := plan.Work(ctx, j.seq, j.item)
				if err != nil {
					return err
				}
				select {
				case results <- result[R]{seq: j.seq, payload: r}:
				case <-ctx.Done():
					return fwerrors.CancelCause(ctx)
				}
			}
			return nil
		})
	}

	// Drainer: reorders completed results into ascending tag order. The
	// pending map holds at most the out-of-order window, which is bounded
	// by resultCap plus the in-flight worker count.
	g.Go(func() error {
		pending := make(map[uint64]R)
		var next uint64
		for r := range results {
			pending[r.seq] = r.payload
			for {
				payload, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := plan.Drain(ctx, next, payload); err != nil {
					return err
				}
				next++
			}
		}
		return nil
	})

	return g.Wait()
}

// Serial is the degenerate Runner used when one worker suffices (small
// mock runs below the multithreading floor): every emitted item is worked
// and drained inline on the producer's goroutine, which satisfies the
// ordering contract trivially.
type Serial[W, R any] struct{}

// NewSerial returns the single-threaded Runner for W→R plans.
func NewSerial[W, R any]() Serial[W, R] { return Serial[W, R]{} }

func (Serial[W, R]) Run(ctx context.Context, plan Plan[W, R]) error {
	var seq uint64
	emit := func(item W) error {
		if err := ctx.Err(); err != nil {
			return fwerrors.CancelCause(ctx)
		}
		r, err := plan.Work(ctx, seq, item)
		if err != nil {
			return err
		}
		if err := plan.Drain(ctx, seq, r); err != nil {
			return err
		}
		seq++
		return nil
	}
	return plan.Produce(ctx, emit)
}
