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

// Package parquetsink accepts columnar batches in sequence order and
// streams them to a Parquet file (spec.md §4.G). The writer setup mirrors
// the teacher's Arrow streaming backend
// (internal/parquetwriter/backend_arrow.go): pqarrow.FileWriter over a
// plain os.File, Zstd compression, dictionary encoding, row groups cut by
// a row-count heuristic.
package parquetsink

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/hashicorp/go-multierror"
)

// Sink owns the output file and the Parquet writer. It must only be
// touched by the pipeline's drainer goroutine.
type Sink struct {
	path         string
	file         *os.File
	writer       *pqarrow.FileWriter
	rowGroupRows int64
	rowsSinceCut int64
	rows         int64
	closed       bool
}

// New creates the output file at path (truncating any existing file) and
// a Parquet writer for the given Arrow schema. rowGroupRows is the
// row-count heuristic for cutting row groups; values below 1 fall back to
// 10_000.
func New(path string, arrowSchema *arrow.Schema, rowGroupRows int64) (*Sink, error) {
	if rowGroupRows < 1 {
		rowGroupRows = 10_000
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet output %q: %w", path, err)
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(true),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
	)

	// The Parquet writer closes any io.Closer it writes to. The file is
	// handed over without its Close method so that Close and Abort can
	// still sync and close it themselves.
	writer, err := pqarrow.NewFileWriter(arrowSchema, struct{ io.Writer }{file}, writerProps, arrowProps)
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("create parquet writer for %q: %w", path, err)
	}

	return &Sink{
		path:         path,
		file:         file,
		writer:       writer,
		rowGroupRows: rowGroupRows,
	}, nil
}

// Accept appends one record batch to the writer and releases it. Row
// groups are cut whenever the buffered row count has crossed the
// heuristic; cutting before the write rather than after avoids an empty
// trailing row group.
func (s *Sink) Accept(rec arrow.Record) error {
	defer rec.Release()
	if s.rowsSinceCut >= s.rowGroupRows {
		s.writer.NewBufferedRowGroup()
		s.rowsSinceCut = 0
	}
	if err := s.writer.WriteBuffered(rec); err != nil {
		return fmt.Errorf("write record batch: %w", err)
	}
	s.rows += rec.NumRows()
	s.rowsSinceCut += rec.NumRows()
	return nil
}

// Close finalizes the Parquet footer, syncs the file to disk and returns
// the total row count written.
func (s *Sink) Close() (int64, error) {
	if s.closed {
		return s.rows, nil
	}
	s.closed = true
	if err := s.writer.Close(); err != nil {
		s.file.Close()
		return s.rows, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return s.rows, fmt.Errorf("sync parquet output: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return s.rows, fmt.Errorf("close parquet output: %w", err)
	}
	return s.rows, nil
}

// Abort tears the sink down after a pipeline failure, removing the
// partial output file. All cleanup failures are aggregated; none masks
// another.
func (s *Sink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs *multierror.Error
	if err := s.writer.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close parquet writer: %w", err))
	}
	if err := s.file.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close parquet output: %w", err))
	}
	if err := os.Remove(s.path); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("remove partial output %q: %w", s.path, err))
	}
	return errs.ErrorOrNil()
}
