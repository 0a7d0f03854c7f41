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

// Package convert wires the reader, slicer, typed parser and Parquet sink
// into the ordered pipeline (spec.md §2 "Data flow (convert)"), grounded
// on original_source/src/converter.rs for the streaming path and
// original_source/src/chunked.rs for the whole-file sharded path.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/firelink-data/evolution/internal/fwerrors"
	"github.com/firelink-data/evolution/internal/logctx"
	"github.com/firelink-data/evolution/internal/parquetsink"
	"github.com/firelink-data/evolution/internal/pipeline"
	"github.com/firelink-data/evolution/internal/rowparser"
	"github.com/firelink-data/evolution/internal/schema"
	"github.com/firelink-data/evolution/internal/slicer"
	"github.com/firelink-data/evolution/internal/threadpool"
)

// Options configures one convert run. Zero values: NThreads uses every
// logical core, a BufferSize below one record is raised to one record,
// ChannelCapacity falls back to twice the worker count, and RowGroupRows
// falls back to 10_000 rows.
type Options struct {
	InFile     string
	OutFile    string
	NThreads   int
	BufferSize int
	// ChannelCapacity bounds both the work queue and the ordered result
	// channel.
	ChannelCapacity int
	// RowGroupRows is the Parquet row-group cut heuristic.
	RowGroupRows int64
}

// byteBatch is one unit of parse work: a privately owned buffer holding
// count whole records back to back.
type byteBatch struct {
	buf   []byte
	count int
}

// Run converts the FLF at opts.InFile into a Parquet file at opts.OutFile
// and returns the number of rows written.
func Run(ctx context.Context, s *schema.Schema, opts Options) (int64, error) {
	in, err := os.Open(opts.InFile)
	if err != nil {
		return 0, fmt.Errorf("open input %q: %w", opts.InFile, err)
	}
	defer in.Close()

	rowLen := s.RowByteLength()
	bufferSize := opts.BufferSize
	if bufferSize < rowLen {
		bufferSize = rowLen
	}
	workers := threadpool.Available(ctx, opts.NThreads)
	opts.NThreads = workers

	produce := func(ctx context.Context, emit func(byteBatch) error) error {
		var carry []byte
		for {
			chunk := make([]byte, len(carry)+bufferSize)
			copy(chunk, carry)
			n, rerr := io.ReadFull(in, chunk[len(carry):])
			data := chunk[:len(carry)+n]

			// Sub-slice the buffer's records into per-worker shards so a
			// large buffer does not serialize the whole pool behind one
			// worker. Shards are contiguous record runs, so each one maps
			// to a single sub-slice of data.
			records, residual := slicer.Slice(data, rowLen)
			for _, shard := range slicer.Distribute(records, workers) {
				first := shard.Records[0]
				last := shard.Records[len(shard.Records)-1]
				if err := emit(byteBatch{
					buf:   data[first.Start:last.End],
					count: len(shard.Records),
				}); err != nil {
					return err
				}
			}
			carry = append([]byte(nil), residual...)

			if rerr != nil {
				if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
					if len(carry) > 0 {
						return fwerrors.NewTrailingResidualAtEOF(len(carry), rowLen)
					}
					return nil
				}
				return fmt.Errorf("read input %q: %w", opts.InFile, rerr)
			}
		}
	}

	return runParsePipeline(ctx, s, opts, produce)
}

// runParsePipeline runs the shared parse/serialize half of both convert
// paths: workers turn byteBatches into Arrow records, the drainer feeds
// them to the Parquet sink in sequence order.
func runParsePipeline(ctx context.Context, s *schema.Schema, opts Options,
	produce func(context.Context, func(byteBatch) error) error) (int64, error) {

	workers := threadpool.Available(ctx, opts.NThreads)
	log := logctx.FromContext(ctx)

	sink, err := parquetsink.New(opts.OutFile, s.ArrowSchema(), opts.RowGroupRows)
	if err != nil {
		return 0, err
	}

	rowLen := s.RowByteLength()
	parsers := sync.Pool{New: func() any { return rowparser.New(s) }}

	plan := pipeline.Plan[byteBatch, arrow.Record]{
		Workers:        workers,
		WorkCapacity:   threadpool.WorkQueueCapacity(workers, opts.ChannelCapacity),
		ResultCapacity: threadpool.WorkQueueCapacity(workers, opts.ChannelCapacity),
		Produce:        produce,
		Work: func(ctx context.Context, seq uint64, b byteBatch) (arrow.Record, error) {
			records := make([][]byte, b.count)
			for i := 0; i < b.count; i++ {
				records[i] = b.buf[i*rowLen : (i+1)*rowLen]
			}
			p := parsers.Get().(*rowparser.Parser)
			rec, err := p.ParseRecords(records)
			parsers.Put(p)
			if err != nil {
				return nil, err
			}
			return rec, nil
		},
		Drain: func(ctx context.Context, seq uint64, rec arrow.Record) error {
			return sink.Accept(rec)
		},
	}

	runner := pipeline.NewPool[byteBatch, arrow.Record]()
	if err := runner.Run(ctx, plan); err != nil {
		if aerr := sink.Abort(); aerr != nil {
			log.Warn("parquet sink cleanup failed after pipeline error", slog.Any("error", aerr))
		}
		return 0, err
	}

	rows, err := sink.Close()
	if err != nil {
		return rows, err
	}
	log.Info("convert finished",
		slog.String("out_file", opts.OutFile), slog.Int64("rows", rows))
	return rows, nil
}
