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

package cmd

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the schema and row count of a Parquet file",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}
			return runDump(filename)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("file", "", "Parquet file to read")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}
}

func runDump(filename string) error {
	rdr, err := file.OpenParquetFile(filename, false)
	if err != nil {
		return fmt.Errorf("open parquet file %s: %w", filename, err)
	}
	defer func() {
		_ = rdr.Close()
	}()

	arrowRdr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return fmt.Errorf("read arrow metadata from %s: %w", filename, err)
	}
	sch, err := arrowRdr.Schema()
	if err != nil {
		return fmt.Errorf("decode schema of %s: %w", filename, err)
	}

	fmt.Println(sch.String())
	fmt.Printf("rows: %d\n", rdr.NumRows())
	fmt.Printf("row groups: %d\n", rdr.NumRowGroups())
	return nil
}
