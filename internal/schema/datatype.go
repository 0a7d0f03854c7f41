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
	"github.com/apache/arrow-go/v18/arrow"
)

// DataType is the closed set of column types a fixed-length schema column
// may declare (spec.md §3).
type DataType int

const (
	Boolean DataType = iota
	Float16
	Float32
	Float64
	Int16
	Int32
	Int64
	Utf8
	LargeUtf8
)

func (d DataType) String() string {
	switch d {
	case Boolean:
		return "Boolean"
	case Float16:
		return "Float16"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Utf8:
		return "Utf8"
	case LargeUtf8:
		return "LargeUtf8"
	default:
		return "Unknown"
	}
}

// ParseDataType maps a schema JSON dtype name to a DataType.
func ParseDataType(name string) (DataType, bool) {
	switch name {
	case "Boolean":
		return Boolean, true
	case "Float16":
		return Float16, true
	case "Float32":
		return Float32, true
	case "Float64":
		return Float64, true
	case "Int16":
		return Int16, true
	case "Int32":
		return Int32, true
	case "Int64":
		return Int64, true
	case "Utf8":
		return Utf8, true
	case "LargeUtf8":
		return LargeUtf8, true
	default:
		return 0, false
	}
}

// ArrowType returns the Arrow logical type backing this DataType, per the
// mapping table in spec.md §6.
func (d DataType) ArrowType() arrow.DataType {
	switch d {
	case Boolean:
		return arrow.FixedWidthTypes.Boolean
	case Float16:
		return arrow.FixedWidthTypes.Float16
	case Float32:
		return arrow.PrimitiveTypes.Float32
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case Int16:
		return arrow.PrimitiveTypes.Int16
	case Int32:
		return arrow.PrimitiveTypes.Int32
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Utf8:
		return arrow.BinaryTypes.String
	case LargeUtf8:
		return arrow.BinaryTypes.LargeString
	default:
		return arrow.Null
	}
}
