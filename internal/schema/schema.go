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

// Package schema is the in-memory representation of a fixed-length-file
// schema and its derived row metadata (spec.md §4.A), grounded on
// original_source/crates/evolution-schema/src/{schema,column}.rs. Schema
// JSON deserialization itself is named in spec.md §1 as an external
// collaborator concern; this package uses encoding/json directly rather
// than building a bespoke deserializer.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/firelink-data/evolution/internal/fwerrors"
)

// Schema is an ordered sequence of Columns plus a name and version,
// validated to cover [0, DataByteLength) contiguously and without overlap.
type Schema struct {
	Name    string   `json:"name"`
	Version int      `json:"version"`
	Columns []Column `json:"columns"`

	// HasTerminator reports whether every record carries a trailing
	// line-feed byte after the last column. When set, RowByteLength
	// includes that byte; the column spans never cover it. See DESIGN.md
	// for the Open Question resolution behind this field.
	HasTerminator bool `json:"has_terminator,omitempty"`
}

// FromPath reads and validates a schema JSON file at path (spec.md §6).
func FromPath(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &fwerrors.SchemaError{Reason: fmt.Sprintf("read schema file %q", path), Err: err}
	}
	return FromJSON(data)
}

// FromJSON deserializes and validates a schema from raw JSON bytes.
func FromJSON(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &fwerrors.SchemaError{Reason: "malformed schema JSON", Err: err}
	}
	if len(s.Columns) == 0 {
		return nil, &fwerrors.SchemaError{Reason: "schema must declare at least one column"}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the contiguous, non-overlapping cover invariant of
// spec.md §3: the columns' byte spans must exactly tile [0, DataByteLength).
// A terminator byte, when the schema has one, lies outside every span.
func (s *Schema) Validate() error {
	type span struct {
		start, end int
		name       string
	}
	spans := make([]span, len(s.Columns))
	for i, c := range s.Columns {
		start, end := c.Span()
		spans[i] = span{start, end, c.Name}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	cursor := 0
	for i, sp := range spans {
		if sp.start < cursor {
			prevName := ""
			if i > 0 {
				prevName = spans[i-1].name
			}
			return fwerrors.NewSchemaOverlap(prevName, sp.name)
		}
		if sp.start > cursor {
			return fwerrors.NewSchemaGap(cursor, sp.start)
		}
		cursor = sp.end
	}
	return nil
}

// RowByteLength returns the total byte length of one record: the sum of
// every column's declared length, plus one byte when the schema accounts
// for a row terminator.
func (s *Schema) RowByteLength() int {
	total := s.DataByteLength()
	if s.HasTerminator {
		total++
	}
	return total
}

// DataByteLength returns the byte length of the column-covered region of
// one record, excluding any terminator byte.
func (s *Schema) DataByteLength() int {
	total := 0
	for _, c := range s.Columns {
		total += c.Length
	}
	return total
}

// ColumnByteSpan returns the [start, end) byte range of the i-th column in
// declaration order.
func (s *Schema) ColumnByteSpan(i int) (start, end int) {
	return s.Columns[i].Span()
}

// ArrowSchema produces the Arrow schema this FLF schema maps to, used by
// the typed parser's column builders and the Parquet sink.
func (s *Schema) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(s.Columns))
	for i, c := range s.Columns {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     c.Dtype.ArrowType(),
			Nullable: c.IsNullable,
		}
	}
	return arrow.NewSchema(fields, nil)
}
