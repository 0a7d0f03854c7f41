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

package schema

import (
	"encoding/json"

	"github.com/firelink-data/evolution/internal/fwerrors"
	"github.com/firelink-data/evolution/internal/padder"
)

// Column describes one field of a fixed-length record (spec.md §3).
//
// Offset and Length are documented as rune counts but, per spec.md §9
// ("Rune vs byte"), this implementation treats them as byte counts
// directly: a rune→byte resolution pass is not implemented, so schemas
// describing multi-byte UTF-8 cells will mis-align. This restriction is
// intentional and documented rather than guessed at; see DESIGN.md.
type Column struct {
	Name       string           `json:"name"`
	Offset     int              `json:"offset"`
	Length     int              `json:"length"`
	Dtype      DataType         `json:"-"`
	Alignment  padder.Alignment `json:"-"`
	PadSymbol  padder.Symbol    `json:"-"`
	IsNullable bool             `json:"is_nullable"`
}

// jsonColumn mirrors the wire shape of a schema file's column entry
// (spec.md §6), before dtype/alignment/symbol names are resolved to their
// internal enum values.
type jsonColumn struct {
	Name       string `json:"name"`
	Offset     int    `json:"offset"`
	Length     int    `json:"length"`
	Dtype      string `json:"dtype"`
	Alignment  string `json:"alignment,omitempty"`
	PadSymbol  string `json:"pad_symbol,omitempty"`
	IsNullable bool   `json:"is_nullable"`
}

func (c *Column) UnmarshalJSON(data []byte) error {
	var jc jsonColumn
	if err := json.Unmarshal(data, &jc); err != nil {
		return &fwerrors.SchemaError{Reason: "malformed column JSON", Err: err}
	}

	dtype, ok := ParseDataType(jc.Dtype)
	if !ok {
		return fwerrors.NewSchemaUnknownDtype(jc.Name, jc.Dtype)
	}

	alignment, ok := padder.ParseAlignment(jc.Alignment)
	if !ok {
		return &fwerrors.SchemaError{Reason: "column " + jc.Name + ": unknown alignment " + jc.Alignment}
	}

	symbol, ok := padder.ParseSymbol(jc.PadSymbol)
	if !ok {
		return fwerrors.NewSchemaUnknownSymbol(jc.Name, jc.PadSymbol)
	}

	c.Name = jc.Name
	c.Offset = jc.Offset
	c.Length = jc.Length
	c.Dtype = dtype
	c.Alignment = alignment
	c.PadSymbol = symbol
	c.IsNullable = jc.IsNullable
	return nil
}

func (c Column) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonColumn{
		Name:       c.Name,
		Offset:     c.Offset,
		Length:     c.Length,
		Dtype:      c.Dtype.String(),
		Alignment:  alignmentName(c.Alignment),
		PadSymbol:  symbolName(c.PadSymbol),
		IsNullable: c.IsNullable,
	})
}

func alignmentName(a padder.Alignment) string {
	switch a {
	case padder.Left:
		return "Left"
	case padder.Center:
		return "Center"
	default:
		return "Right"
	}
}

func symbolName(s padder.Symbol) string {
	switch s {
	case padder.Zero:
		return "Zero"
	case padder.Asterisk:
		return "Asterisk"
	case padder.Dash:
		return "Dash"
	case padder.Underscore:
		return "Underscore"
	case padder.Five:
		return "Five"
	default:
		return "Whitespace"
	}
}

// Span returns the [start, end) byte range this column occupies within a
// record.
func (c Column) Span() (start, end int) {
	return c.Offset, c.Offset + c.Length
}
