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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSchemaJSON = `{
  "name": "example",
  "version": 1,
  "columns": [
    {"name": "id", "offset": 0, "length": 5, "dtype": "Int32", "alignment": "Right", "pad_symbol": "Zero", "is_nullable": false},
    {"name": "name", "offset": 5, "length": 4, "dtype": "Utf8", "alignment": "Left", "pad_symbol": "Whitespace", "is_nullable": true}
  ]
}`

func TestFromJSONValid(t *testing.T) {
	s, err := FromJSON([]byte(validSchemaJSON))
	require.NoError(t, err)
	assert.Equal(t, 9, s.RowByteLength())
	start, end := s.ColumnByteSpan(1)
	assert.Equal(t, 5, start)
	assert.Equal(t, 9, end)
}

func TestValidateDetectsGap(t *testing.T) {
	s := &Schema{Columns: []Column{
		{Name: "a", Offset: 0, Length: 3},
		{Name: "b", Offset: 5, Length: 2},
	}}
	require.Error(t, s.Validate())
}

func TestValidateDetectsOverlap(t *testing.T) {
	s := &Schema{Columns: []Column{
		{Name: "a", Offset: 0, Length: 5},
		{Name: "b", Offset: 3, Length: 5},
	}}
	require.Error(t, s.Validate())
}

func TestFromJSONRejectsUnknownDtype(t *testing.T) {
	bad := `{"name":"x","version":1,"columns":[{"name":"a","offset":0,"length":1,"dtype":"NotARealType","is_nullable":false}]}`
	_, err := FromJSON([]byte(bad))
	require.Error(t, err)
}

func TestFromJSONRejectsEmptyColumns(t *testing.T) {
	bad := `{"name":"x","version":1,"columns":[]}`
	_, err := FromJSON([]byte(bad))
	require.Error(t, err)
}

func TestRowByteLengthWithTerminator(t *testing.T) {
	withTerm := `{
  "name": "example",
  "version": 1,
  "has_terminator": true,
  "columns": [
    {"name": "id", "offset": 0, "length": 5, "dtype": "Int32", "is_nullable": false},
    {"name": "name", "offset": 5, "length": 4, "dtype": "Utf8", "is_nullable": true}
  ]
}`
	s, err := FromJSON([]byte(withTerm))
	require.NoError(t, err)
	assert.Equal(t, 9, s.DataByteLength())
	assert.Equal(t, 10, s.RowByteLength())
}

func TestArrowSchemaFieldCount(t *testing.T) {
	s, err := FromJSON([]byte(validSchemaJSON))
	require.NoError(t, err)
	arrowSchema := s.ArrowSchema()
	assert.Equal(t, 2, len(arrowSchema.Fields()))
}
