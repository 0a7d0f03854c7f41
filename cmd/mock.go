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
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/firelink-data/evolution/internal/flfsink"
	"github.com/firelink-data/evolution/internal/logctx"
	"github.com/firelink-data/evolution/internal/mockrun"
	"github.com/firelink-data/evolution/internal/schema"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Generate a mocked fixed-length file from a schema",
	Long: `Synthesize a fixed-length record file of arbitrary size. Every cell
satisfies its column's padding and alignment invariants, so the produced
file always converts cleanly back through the convert pipeline.`,
	RunE: func(c *cobra.Command, _ []string) error {
		schemaPath, _ := c.Flags().GetString("schema")
		outFile, _ := c.Flags().GetString("out-file")
		nRows, _ := c.Flags().GetInt64("n-rows")
		forceNew, _ := c.Flags().GetBool("force-new")
		truncate, _ := c.Flags().GetBool("truncate-existing")

		s, err := schema.FromPath(schemaPath)
		if err != nil {
			return err
		}

		if outFile == "" {
			outFile = mockrun.DefaultOutFile(time.Now())
			logctx.FromContext(c.Context()).Info("no output file given, derived one",
				slog.String("out_file", outFile))
		}

		policy := flfsink.Append
		switch {
		case forceNew:
			policy = flfsink.CreateNew
		case truncate:
			policy = flfsink.Truncate
		}

		opts := mockrun.Options{
			OutFile:         outFile,
			NRows:           nRows,
			NThreads:        nThreadsFlag,
			BatchRows:       cfg.ChunkSize,
			ChannelCapacity: cfg.ThreadChannelCapacity,
			Policy:          policy,
		}
		if v, err := c.Flags().GetInt("thread-channel-capacity"); err == nil && v > 0 {
			opts.ChannelCapacity = v
		}
		if v, err := c.Flags().GetInt("buffer-size"); err == nil && v > 0 {
			// For mock, the buffer knob caps how many rows one worker
			// batches up before handing bytes to the drainer.
			if rows := v / s.RowByteLength(); rows > 0 {
				opts.BatchRows = rows
			}
		}

		_, err = mockrun.Run(c.Context(), s, opts)
		return err
	},
}

func init() {
	rootCmd.AddCommand(mockCmd)

	mockCmd.Flags().String("schema", "", "Schema JSON file to mock data for")
	mockCmd.Flags().String("out-file", "", "Output fixed-length file (default: derived name)")
	mockCmd.Flags().Int64("n-rows", 0, "Number of rows to generate")
	mockCmd.Flags().Bool("force-new", false, "Fail if the output file already exists")
	mockCmd.Flags().Bool("truncate-existing", false, "Replace any existing output file")
	mockCmd.Flags().Int("buffer-size", 0, "Approximate bytes one worker batches per job")
	mockCmd.Flags().Int("thread-channel-capacity", 0, "Bounded channel capacity (default from config)")
	_ = mockCmd.MarkFlagRequired("schema")
	_ = mockCmd.MarkFlagRequired("n-rows")
	mockCmd.MarkFlagsMutuallyExclusive("force-new", "truncate-existing")
}
