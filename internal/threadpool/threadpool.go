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

// Package threadpool implements the logical-core clamping and channel
// sizing policy shared by the convert and mock pipelines (spec.md §4.I).
package threadpool

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/firelink-data/evolution/internal/logctx"
)

// DefaultThreadChannelCapacity is the default bounded-channel capacity for
// the work queue and the ordered result channel: large enough that
// workers rarely starve, small enough that memory use under backpressure
// stays bounded (original_source/src/defaults.rs: DEFAULT_THREAD_CHANNEL_CAPACITY).
// WorkQueueCapacity does not apply it: with no configured capacity it
// falls back to twice the worker count. The CLI's configured default,
// config.DefaultThreadChannelCapacity, has the same value.
const DefaultThreadChannelCapacity = 128

// MinRowsForMultithreadedMock is the row-count floor below which spinning
// up a worker pool for mocking costs more than it saves
// (original_source/crates/evolution-mocker/src/mocker.rs:
// MIN_NUM_ROWS_FOR_MULTITHREADING, carried into SPEC_FULL.md).
const MinRowsForMultithreadedMock = 100_000

// Available clamps requested to the number of logical CPUs usable by this
// process (runtime.NumCPU; the GOMAXPROCS adjustment applied by
// go.uber.org/automaxprocs in main does not change it), logging a warning
// when clamping occurs. requested <= 0 means "use every logical core".
func Available(ctx context.Context, requested int) int {
	logical := runtime.NumCPU()
	if requested <= 0 {
		return logical
	}
	if requested > logical {
		logctx.FromContext(ctx).Warn("clamping requested thread count to logical core count",
			slog.Int("requested", requested), slog.Int("logical_cores", logical))
		return logical
	}
	return requested
}

// WorkQueueCapacity returns the bounded work-queue capacity for a pool of
// the given size: proportional to the worker count so that every worker
// can have an item queued without the reader racing ahead unboundedly.
func WorkQueueCapacity(workers int, configured int) int {
	if configured > 0 {
		return configured
	}
	if workers <= 0 {
		workers = 1
	}
	return workers * 2
}
