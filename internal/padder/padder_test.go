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

package padder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadAlignments(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		width     int
		symbol    Symbol
		alignment Alignment
		want      string
	}{
		{"left_pads_right", "ab", 5, Whitespace, Left, "ab   "},
		{"right_pads_left", "ab", 5, Whitespace, Right, "   ab"},
		{"center_even", "ab", 6, Asterisk, Center, "**ab**"},
		{"center_odd_extra_right", "ab", 5, Asterisk, Center, "*ab**"},
		{"exact_width_unchanged", "abcde", 5, Zero, Right, "abcde"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Pad([]byte(tc.input), tc.width, tc.symbol, tc.alignment)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestPadOverflow(t *testing.T) {
	_, err := Pad([]byte("toolong"), 3, Whitespace, Right)
	require.Error(t, err)
}

func TestStripRoundTrip(t *testing.T) {
	cases := []struct {
		payload   string
		width     int
		symbol    Symbol
		alignment Alignment
	}{
		{"John", 9, Whitespace, Left},
		{"42", 5, Zero, Right},
		{"true", 6, Asterisk, Center},
	}
	for _, tc := range cases {
		padded, err := Pad([]byte(tc.payload), tc.width, tc.symbol, tc.alignment)
		require.NoError(t, err)
		assert.Equal(t, tc.payload, string(Strip(padded, tc.symbol, tc.alignment)))
	}
}

func TestStripAsymmetryWhenPayloadStartsWithPadByte(t *testing.T) {
	// Documented asymmetry (spec.md §8): stripping can eat into a payload
	// that itself begins/ends with the pad symbol.
	padded, err := Pad([]byte("00ab"), 6, Zero, Right)
	require.NoError(t, err)
	assert.NotEqual(t, "00ab", string(Strip(padded, Zero, Right)))
}

func TestIsAllSymbol(t *testing.T) {
	assert.True(t, IsAllSymbol([]byte("   "), Whitespace))
	assert.True(t, IsAllSymbol(nil, Whitespace))
	assert.False(t, IsAllSymbol([]byte(" a "), Whitespace))
}
