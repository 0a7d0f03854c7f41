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

// Package flfsink accepts row byte batches in sequence order and writes
// them to a fixed-length output file (spec.md §4.H), honoring the three
// file-open policies of the mocker's writer
// (original_source/src/writer.rs: create_new / truncate / append).
package flfsink

import (
	"bufio"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
)

// OpenPolicy selects how the output file is opened.
type OpenPolicy int

const (
	// Append opens or creates the file and appends to it (default).
	Append OpenPolicy = iota
	// CreateNew fails if the file already exists.
	CreateNew
	// Truncate replaces any existing file.
	Truncate
)

func (p OpenPolicy) flags() int {
	switch p {
	case CreateNew:
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL
	case Truncate:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	default:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
}

// Sink owns the output file. It must only be touched by the pipeline's
// drainer goroutine.
type Sink struct {
	path    string
	file    *os.File
	w       *bufio.Writer
	rows    int64
	created bool
	closed  bool
}

// Open opens path under policy.
func Open(path string, policy OpenPolicy) (*Sink, error) {
	_, statErr := os.Stat(path)
	existed := statErr == nil

	file, err := os.OpenFile(path, policy.flags(), 0644)
	if err != nil {
		return nil, fmt.Errorf("open flf output %q: %w", path, err)
	}
	return &Sink{
		path:    path,
		file:    file,
		w:       bufio.NewWriterSize(file, 1<<20),
		created: !existed,
	}, nil
}

// Accept writes one batch of complete rows to the stream.
func (s *Sink) Accept(batch []byte, rows int64) error {
	if _, err := s.w.Write(batch); err != nil {
		return fmt.Errorf("write flf batch: %w", err)
	}
	s.rows += rows
	return nil
}

// Rows returns the number of rows accepted so far.
func (s *Sink) Rows() int64 { return s.rows }

// Close flushes buffered bytes, syncs the file and returns the total row
// count written.
func (s *Sink) Close() (int64, error) {
	if s.closed {
		return s.rows, nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return s.rows, fmt.Errorf("flush flf output: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return s.rows, fmt.Errorf("sync flf output: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return s.rows, fmt.Errorf("close flf output: %w", err)
	}
	return s.rows, nil
}

// Abort tears the sink down after a pipeline failure. The file is removed
// only if this sink created it; an append target that existed before the
// run is left in place. Cleanup failures are aggregated.
func (s *Sink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs *multierror.Error
	if err := s.file.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close flf output: %w", err))
	}
	if s.created {
		if err := os.Remove(s.path); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("remove partial output %q: %w", s.path, err))
		}
	}
	return errs.ErrorOrNil()
}
