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
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/firelink-data/evolution/internal/convert"
	"github.com/firelink-data/evolution/internal/logctx"
	"github.com/firelink-data/evolution/internal/schema"
)

func init() {
	rootCmd.AddCommand(newConvertCmd("convert", convert.Run,
		"Convert a fixed-length file to Parquet",
		`Stream a fixed-length record file through the parallel parse pipeline
into a Parquet file. The reader fills a bounded buffer, the slicer cuts it
into whole records, a worker pool parses typed columns, and batches are
serialized in input order.`))
	rootCmd.AddCommand(newConvertCmd("convert-chunked", convert.RunChunked,
		"Convert a fixed-length file to Parquet using whole-file sharding",
		`Like convert, but the whole input file is partitioned into large
record-aligned shards up front, one read per shard, instead of streaming
through one bounded buffer.`))
}

func newConvertCmd(use string,
	run func(context.Context, *schema.Schema, convert.Options) (int64, error),
	short, long string) *cobra.Command {

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(c *cobra.Command, _ []string) error {
			inFile, _ := c.Flags().GetString("in-file")
			outFile, _ := c.Flags().GetString("out-file")
			schemaPath, _ := c.Flags().GetString("schema")
			validateOnly, _ := c.Flags().GetBool("validate-schema-only")

			s, err := schema.FromPath(schemaPath)
			if err != nil {
				return err
			}
			if validateOnly {
				logctx.FromContext(c.Context()).Info("schema is valid",
					slog.String("schema", schemaPath),
					slog.Int("row_byte_length", s.RowByteLength()))
				return nil
			}

			opts := convert.Options{
				InFile:       inFile,
				OutFile:      outFile,
				NThreads:     nThreadsFlag,
				BufferSize:   cfg.BufferSize,
				RowGroupRows: int64(cfg.ChunkSize),
			}
			opts.ChannelCapacity = cfg.ThreadChannelCapacity
			if v, err := c.Flags().GetInt("buffer-size"); err == nil && v > 0 {
				opts.BufferSize = v
			}
			if v, err := c.Flags().GetInt("thread-channel-capacity"); err == nil && v > 0 {
				opts.ChannelCapacity = v
			}

			_, err = run(c.Context(), s, opts)
			return err
		},
	}

	cmd.Flags().String("in-file", "", "Input fixed-length file to convert")
	cmd.Flags().String("out-file", "", "Output Parquet file to produce")
	cmd.Flags().String("schema", "", "Schema JSON file describing the input records")
	cmd.Flags().Int("buffer-size", 0, "Read buffer size in bytes (default from config)")
	cmd.Flags().Int("thread-channel-capacity", 0, "Bounded channel capacity (default from config)")
	cmd.Flags().Bool("validate-schema-only", false, "Validate the schema file and exit")
	_ = cmd.MarkFlagRequired("schema")

	// in-file/out-file are only optional under --validate-schema-only;
	// checked here rather than via MarkFlagRequired.
	cmd.PreRunE = func(c *cobra.Command, _ []string) error {
		validateOnly, _ := c.Flags().GetBool("validate-schema-only")
		if validateOnly {
			return nil
		}
		for _, name := range []string{"in-file", "out-file"} {
			if v, _ := c.Flags().GetString(name); v == "" {
				return fmt.Errorf("required flag --%s not set", name)
			}
		}
		return nil
	}
	return cmd
}
