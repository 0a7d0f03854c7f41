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

package convert

import (
	"context"
	"fmt"
	"os"

	"github.com/firelink-data/evolution/internal/fwerrors"
	"github.com/firelink-data/evolution/internal/schema"
)

// RunChunked converts like Run but slices the whole input file into large
// contiguous record-aligned shards up front, one ReadAt per shard,
// instead of repeatedly filling one streaming buffer. Residual handling
// degenerates to a single up-front length check: every shard boundary is
// placed on a record boundary, so only the file's total length can leave
// a residual.
func RunChunked(ctx context.Context, s *schema.Schema, opts Options) (int64, error) {
	in, err := os.Open(opts.InFile)
	if err != nil {
		return 0, fmt.Errorf("open input %q: %w", opts.InFile, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat input %q: %w", opts.InFile, err)
	}

	rowLen := s.RowByteLength()
	totalRecords := info.Size() / int64(rowLen)
	if tail := info.Size() % int64(rowLen); tail != 0 {
		return 0, fwerrors.NewTrailingResidualAtEOF(int(tail), rowLen)
	}

	// Shard size in records: one buffer's worth, rounded down to whole
	// records and at least one, so tiny files become a single shard rather
	// than one shard per worker with a handful of records each.
	bufferSize := opts.BufferSize
	if bufferSize < rowLen {
		bufferSize = rowLen
	}
	shardRecords := int64(bufferSize / rowLen)
	if shardRecords < 1 {
		shardRecords = 1
	}

	produce := func(ctx context.Context, emit func(byteBatch) error) error {
		for start := int64(0); start < totalRecords; start += shardRecords {
			count := shardRecords
			if start+count > totalRecords {
				count = totalRecords - start
			}
			buf := make([]byte, count*int64(rowLen))
			if _, err := in.ReadAt(buf, start*int64(rowLen)); err != nil {
				return fmt.Errorf("read shard at record %d: %w", start, err)
			}
			if err := emit(byteBatch{buf: buf, count: int(count)}); err != nil {
				return err
			}
		}
		return nil
	}

	return runParsePipeline(ctx, s, opts, produce)
}
