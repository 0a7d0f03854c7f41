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
	"log/slog"
	"os"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/firelink-data/evolution/config"
	"github.com/firelink-data/evolution/internal/fwerrors"
	"github.com/firelink-data/evolution/internal/logctx"
)

var (
	nThreadsFlag int

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evolution",
	Short: "Convert fixed-length files to Parquet, and mock fixed-length files",
	Long: `Efficiently convert fixed-length record files (FLF) to Apache Parquet,
and generate mocked fixed-length files of arbitrary size from a schema.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevelFromEnv(),
		})).With(slog.String("run_id", ulid.Make().String()))
		slog.SetDefault(logger)
		cmd.SetContext(logctx.WithLogger(cmd.Context(), logger))

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		// --n-threads overrides the configured worker count only when given.
		if !cmd.Flags().Changed("n-threads") {
			nThreadsFlag = cfg.NThreads
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().IntVar(&nThreadsFlag, "n-threads", 0,
		"number of worker threads to use (0 = all logical cores)")
}

func logLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("EVOLUTION_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Execute runs the CLI and returns the process exit code per the error
// classification mapping (0 ok, 1 IO, 2 schema, 3 parse, 4 slicer,
// 5 other).
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	slog.Error("run failed", slog.Any("error", err))
	return fwerrors.Classify(err).ExitCode()
}
