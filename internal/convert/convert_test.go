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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firelink-data/evolution/internal/fwerrors"
	"github.com/firelink-data/evolution/internal/mocker"
	"github.com/firelink-data/evolution/internal/padder"
	"github.com/firelink-data/evolution/internal/schema"
)

func peopleSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := &schema.Schema{
		Name:    "people",
		Version: 1,
		Columns: []schema.Column{
			{Name: "id", Offset: 0, Length: 5, Dtype: schema.Int32,
				Alignment: padder.Right, PadSymbol: padder.Zero},
			{Name: "name", Offset: 5, Length: 4, Dtype: schema.Utf8,
				Alignment: padder.Left, PadSymbol: padder.Whitespace, IsNullable: true},
		},
		HasTerminator: true,
	}
	require.NoError(t, s.Validate())
	return s
}

func parquetRowCount(t *testing.T, path string) int64 {
	t.Helper()
	rdr, err := file.OpenParquetFile(path, false)
	require.NoError(t, err)
	defer rdr.Close()
	return rdr.NumRows()
}

func TestRunConvertsKnownBytes(t *testing.T) {
	s := peopleSchema(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.flf")
	out := filepath.Join(dir, "out.parquet")

	input := []byte("00042John\n00007Anna\n")
	require.NoError(t, os.WriteFile(in, input, 0644))

	rows, err := Run(context.Background(), s, Options{
		InFile: in, OutFile: out, NThreads: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, rows)
	assert.EqualValues(t, 2, parquetRowCount(t, out))

	// The written file carries one Arrow column per schema column.
	rdr, err := file.OpenParquetFile(out, false)
	require.NoError(t, err)
	defer rdr.Close()
	arrowRdr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	sch, err := arrowRdr.Schema()
	require.NoError(t, err)
	require.Equal(t, 2, sch.NumFields())
	assert.Equal(t, "id", sch.Field(0).Name)
	assert.Equal(t, "name", sch.Field(1).Name)
}

func TestRunSmallBufferCrossesRecordBoundaries(t *testing.T) {
	// A buffer smaller than two records forces residual carry on every
	// read; no record may be lost or duplicated.
	s := peopleSchema(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.flf")
	out := filepath.Join(dir, "out.parquet")

	var input bytes.Buffer
	for i := 0; i < 97; i++ {
		input.WriteString("00042John\n")
	}
	require.NoError(t, os.WriteFile(in, input.Bytes(), 0644))

	rows, err := Run(context.Background(), s, Options{
		InFile: in, OutFile: out, NThreads: 4, BufferSize: 13,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 97, rows)
	assert.EqualValues(t, 97, parquetRowCount(t, out))
}

func TestRunTrailingResidualFails(t *testing.T) {
	s := peopleSchema(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.flf")
	out := filepath.Join(dir, "out.parquet")

	// 15 bytes: one whole 10-byte record plus a truncated tail.
	require.NoError(t, os.WriteFile(in, []byte("00042John\n00007"), 0644))

	_, err := Run(context.Background(), s, Options{InFile: in, OutFile: out})
	require.Error(t, err)
	var serr *fwerrors.SlicerError
	require.True(t, errors.As(err, &serr))

	// The partial parquet output must not be left behind.
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunParseErrorCancels(t *testing.T) {
	s := peopleSchema(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.flf")
	out := filepath.Join(dir, "out.parquet")

	require.NoError(t, os.WriteFile(in, []byte("00042John\nxxxxxAnna\n"), 0644))

	_, err := Run(context.Background(), s, Options{InFile: in, OutFile: out})
	require.Error(t, err)
	var perr *fwerrors.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "id", perr.Name)
}

func TestMockConvertRoundTrip(t *testing.T) {
	// convert(mock(S, N)) must yield N rows.
	s := peopleSchema(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "mocked.flf")
	out := filepath.Join(dir, "out.parquet")

	const n = 5000
	m := mocker.New(s, 99)
	buf, err := m.Rows(nil, n)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, buf, 0644))

	rows, err := Run(context.Background(), s, Options{
		InFile: in, OutFile: out, NThreads: 4, BufferSize: 4096,
	})
	require.NoError(t, err)
	assert.EqualValues(t, n, rows)
	assert.EqualValues(t, n, parquetRowCount(t, out))
}

func TestRunChunkedMatchesRun(t *testing.T) {
	s := peopleSchema(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.flf")

	m := mocker.New(s, 3)
	buf, err := m.Rows(nil, 2500)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, buf, 0644))

	outA := filepath.Join(dir, "a.parquet")
	rowsA, err := Run(context.Background(), s, Options{
		InFile: in, OutFile: outA, NThreads: 4, BufferSize: 1024,
	})
	require.NoError(t, err)

	outB := filepath.Join(dir, "b.parquet")
	rowsB, err := RunChunked(context.Background(), s, Options{
		InFile: in, OutFile: outB, NThreads: 4, BufferSize: 1024,
	})
	require.NoError(t, err)

	assert.Equal(t, rowsA, rowsB)
	assert.Equal(t, parquetRowCount(t, outA), parquetRowCount(t, outB))
}

func TestRunChunkedTrailingBytesFail(t *testing.T) {
	s := peopleSchema(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.flf")
	require.NoError(t, os.WriteFile(in, []byte("00042John\nxx"), 0644))

	_, err := RunChunked(context.Background(), s, Options{
		InFile: in, OutFile: filepath.Join(dir, "out.parquet"),
	})
	require.Error(t, err)
	var serr *fwerrors.SlicerError
	require.True(t, errors.As(err, &serr))
}
