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

// Package mockrun drives the mocker through the ordered pipeline into the
// FLF sink (spec.md §2 "Data flow (mock)"), grounded on
// original_source/src/mocker.rs: row-count jobs fan out to workers, each
// worker synthesizes a batch of padded rows, and the drainer writes the
// byte batches in sequence order.
package mockrun

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/firelink-data/evolution/internal/flfsink"
	"github.com/firelink-data/evolution/internal/logctx"
	"github.com/firelink-data/evolution/internal/mocker"
	"github.com/firelink-data/evolution/internal/pipeline"
	"github.com/firelink-data/evolution/internal/schema"
	"github.com/firelink-data/evolution/internal/threadpool"
)

// Options configures one mock run.
type Options struct {
	OutFile  string
	NRows    int64
	NThreads int
	// BatchRows is the number of rows one worker synthesizes per job.
	BatchRows int
	// ChannelCapacity bounds both the work queue and the ordered result
	// channel.
	ChannelCapacity int
	Policy          flfsink.OpenPolicy
}

type rowBatch struct {
	buf  []byte
	rows int64
}

// DefaultOutFile derives an output filename for runs that did not name
// one: mock-<UTC timestamp>-<short random suffix>.flf
// (original_source/src/mocking.rs: randomize_file_name).
func DefaultOutFile(now time.Time) string {
	return fmt.Sprintf("mock-%s-%s.flf",
		now.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

// Run synthesizes opts.NRows records into opts.OutFile and returns the
// number of rows written.
func Run(ctx context.Context, s *schema.Schema, opts Options) (int64, error) {
	log := logctx.FromContext(ctx)

	workers := threadpool.Available(ctx, opts.NThreads)
	if workers > 1 && opts.NRows < threadpool.MinRowsForMultithreadedMock {
		log.Warn("row count below multithreading floor, mocking single-threaded",
			slog.Int64("n_rows", opts.NRows),
			slog.Int("floor", threadpool.MinRowsForMultithreadedMock))
		workers = 1
	}

	batchRows := opts.BatchRows
	if batchRows < 1 {
		batchRows = 10_000
	}

	sink, err := flfsink.Open(opts.OutFile, opts.Policy)
	if err != nil {
		return 0, err
	}

	// Per-worker mockers with distinct seeds so parallel workers do not
	// emit identical rows.
	var seedCounter atomic.Int64
	base := time.Now().UnixNano()
	mockers := sync.Pool{New: func() any {
		return mocker.New(s, base+seedCounter.Add(1))
	}}

	plan := pipeline.Plan[int, rowBatch]{
		Workers:        workers,
		WorkCapacity:   threadpool.WorkQueueCapacity(workers, opts.ChannelCapacity),
		ResultCapacity: threadpool.WorkQueueCapacity(workers, opts.ChannelCapacity),
		Produce: func(ctx context.Context, emit func(int) error) error {
			for remaining := opts.NRows; remaining > 0; remaining -= int64(batchRows) {
				n := int64(batchRows)
				if n > remaining {
					n = remaining
				}
				if err := emit(int(n)); err != nil {
					return err
				}
			}
			return nil
		},
		Work: func(ctx context.Context, seq uint64, n int) (rowBatch, error) {
			m := mockers.Get().(*mocker.Mocker)
			buf, err := m.Rows(nil, n)
			mockers.Put(m)
			if err != nil {
				return rowBatch{}, err
			}
			return rowBatch{buf: buf, rows: int64(n)}, nil
		},
		Drain: func(ctx context.Context, seq uint64, b rowBatch) error {
			return sink.Accept(b.buf, b.rows)
		},
	}

	var runner pipeline.Runner[int, rowBatch]
	if workers > 1 {
		runner = pipeline.NewPool[int, rowBatch]()
	} else {
		runner = pipeline.NewSerial[int, rowBatch]()
	}

	if err := runner.Run(ctx, plan); err != nil {
		if aerr := sink.Abort(); aerr != nil {
			log.Warn("flf sink cleanup failed after pipeline error", slog.Any("error", aerr))
		}
		return 0, err
	}

	rows, err := sink.Close()
	if err != nil {
		return rows, err
	}
	log.Info("mock finished",
		slog.String("out_file", opts.OutFile), slog.Int64("rows", rows))
	return rows, nil
}
