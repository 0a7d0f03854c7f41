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

// Package slicer partitions a byte buffer into whole fixed-length records
// (spec.md §4.C), grounded on the byte-range bookkeeping style of
// original_source/crates/evolution-slicer/src/slicer.rs — but, per
// spec.md's design choice, with no line-break search: records are strict
// fixed-width, so the cut points are pure arithmetic on the row length.
package slicer

import (
	"fmt"

	"github.com/firelink-data/evolution/internal/fwerrors"
)

// Record is a [Start, End) byte range within some buffer, representing
// exactly one whole record. No copy of the underlying bytes is made;
// callers slice the buffer directly with Record.Start:Record.End.
type Record struct {
	Start, End int
}

// Slice partitions buf into whole records of rowLen bytes each. It
// returns the ranges of every whole record found and the residual tail —
// the bytes after the last whole record that do not by themselves form
// one — which the caller must prepend to the next buffer it reads
// (spec.md §4.C, §9 "Residual across reads").
//
// Slice never returns an error: the decision to treat a non-empty residual
// at end-of-stream as fatal belongs to the caller, which knows whether
// more bytes are still coming (see AtEOF).
func Slice(buf []byte, rowLen int) (records []Record, residual []byte) {
	if rowLen <= 0 {
		return nil, buf
	}
	n := len(buf) / rowLen
	records = make([]Record, n)
	for i := 0; i < n; i++ {
		records[i] = Record{Start: i * rowLen, End: (i + 1) * rowLen}
	}
	residual = buf[n*rowLen:]
	return records, residual
}

// AtEOF checks the completeness invariant of spec.md §4.C: after the final
// read, the residual carried forward must be empty. A non-empty residual
// at end-of-stream means the input was truncated or corrupt.
func AtEOF(residual []byte) error {
	if len(residual) == 0 {
		return nil
	}
	return &fwerrors.SlicerError{Reason: fmt.Sprintf(
		"trailing residual of %d bytes at EOF does not form a whole record", len(residual))}
}

// Shard is a contiguous run of whole records assigned to one worker.
type Shard struct {
	Records []Record
}

// Distribute splits records into up to k shards for worker distribution
// (spec.md §4.C "Chunked sub-slicing"): the first k-1 shards get
// ceil(len(records)/k) records each, the last shard gets the remainder.
// A record is never split across shards. If k <= 0 or there are no
// records, Distribute returns nil.
func Distribute(records []Record, k int) []Shard {
	n := len(records)
	if k <= 0 || n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	perShard := (n + k - 1) / k
	shards := make([]Shard, 0, k)
	for start := 0; start < n; start += perShard {
		end := start + perShard
		if end > n {
			end = n
		}
		shards = append(shards, Shard{Records: records[start:end]})
	}
	return shards
}
