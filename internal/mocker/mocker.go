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

// Package mocker synthesizes fixed-length records that satisfy a schema's
// padding and alignment invariants (spec.md §4.E), grounded on the payload
// generators in original_source/src/mocking.rs.
package mocker

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/firelink-data/evolution/internal/padder"
	"github.com/firelink-data/evolution/internal/schema"
)

// Payload characters for Utf8 cells. Alphanumeric, like the original's
// generator; every byte is printable ASCII. The digits include the Zero
// and Five pad symbols, so in a column padded with one of those, a payload
// whose edge on the padded side is that digit loses it on strip.
const utf8Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Mocker produces padded record bytes for one schema. Each worker owns
// its own Mocker with its own rand source; a Mocker is not safe for
// concurrent use.
type Mocker struct {
	schema *schema.Schema
	rng    *rand.Rand
}

// New creates a Mocker seeded with seed. Distinct workers should use
// distinct seeds so their rows differ.
func New(s *schema.Schema, seed int64) *Mocker {
	return &Mocker{
		schema: s,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Rows appends n complete records to buf and returns the extended buffer.
// Every cell is padded to its column's width; a terminator byte is
// appended per row iff the schema accounts for one.
func (m *Mocker) Rows(buf []byte, n int) ([]byte, error) {
	if cap(buf)-len(buf) < n*m.schema.RowByteLength() {
		grown := make([]byte, len(buf), len(buf)+n*m.schema.RowByteLength())
		copy(grown, buf)
		buf = grown
	}
	for i := 0; i < n; i++ {
		var err error
		buf, err = m.row(buf)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (m *Mocker) row(buf []byte) ([]byte, error) {
	for _, col := range m.schema.Columns {
		payload := m.payload(col)
		cell, err := padder.Pad(payload, col.Length, col.PadSymbol, col.Alignment)
		if err != nil {
			return nil, err
		}
		buf = append(buf, cell...)
	}
	if m.schema.HasTerminator {
		buf = append(buf, '\n')
	}
	return buf, nil
}

func (m *Mocker) payload(col schema.Column) []byte {
	switch col.Dtype {
	case schema.Boolean:
		return m.mockBool(col.Length)
	case schema.Int16:
		return m.mockInt(col.Length, math.MinInt16, math.MaxInt16)
	case schema.Int32:
		return m.mockInt(col.Length, math.MinInt32, math.MaxInt32)
	case schema.Int64:
		return m.mockInt(col.Length, math.MinInt64, math.MaxInt64)
	case schema.Float16, schema.Float32, schema.Float64:
		return m.mockFloat(col.Length)
	default:
		return m.mockString(col.Length)
	}
}

func (m *Mocker) mockBool(width int) []byte {
	v := m.rng.Intn(2) == 0
	// A narrow cell cannot hold the word forms; the parser accepts the
	// digit forms equally.
	if width < len("false") {
		if v {
			return []byte("1")
		}
		return []byte("0")
	}
	if v {
		return []byte("true")
	}
	return []byte("false")
}

// mockInt renders a random integer whose decimal form fits width bytes,
// reserving one byte for a sign when the value goes negative.
func (m *Mocker) mockInt(width int, lo, hi int64) []byte {
	bound := int64(math.MaxInt64)
	if width < 19 {
		bound = pow10(width) - 1
	}
	if hi < bound {
		bound = hi
	}
	var v int64
	if bound == math.MaxInt64 {
		v = m.rng.Int63()
	} else {
		v = m.rng.Int63n(bound + 1)
	}
	if lo < 0 && m.rng.Intn(2) == 0 {
		// Negative rendering spends one byte on the sign.
		neg := v
		if signBound := bound / 10; neg > signBound {
			neg = neg % (signBound + 1)
		}
		v = -neg
	}
	return strconv.AppendInt(nil, v, 10)
}

// mockFloat renders a random value in [-1000, 1000), trimming fractional
// precision until the string fits the cell width.
func (m *Mocker) mockFloat(width int) []byte {
	v := m.rng.Float64()*2000 - 1000
	for prec := 6; prec >= 0; prec-- {
		s := strconv.FormatFloat(v, 'f', prec, 64)
		if len(s) <= width {
			return []byte(s)
		}
	}
	// Even the integer part overflows a very narrow cell; fall back to a
	// single digit, which always fits (columns are at least one byte wide).
	return []byte(strconv.Itoa(m.rng.Intn(10)))
}

func (m *Mocker) mockString(width int) []byte {
	n := 1 + m.rng.Intn(width)
	out := make([]byte, n)
	for i := range out {
		out[i] = utf8Charset[m.rng.Intn(len(utf8Charset))]
	}
	return out
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
