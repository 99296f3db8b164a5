package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/querylab/parqscan/internal/harness"
	"github.com/querylab/parqscan/pkg/batchscan"
	"github.com/querylab/parqscan/pkg/config"
	"github.com/querylab/parqscan/pkg/engine"
	"github.com/querylab/parqscan/pkg/logger"
	"github.com/querylab/parqscan/pkg/metadata"
	"github.com/querylab/parqscan/pkg/metrics"
	"github.com/querylab/parqscan/pkg/rawscan"
)

var version = "0.1.0"

func main() {
	// Load .env if present so FILE and NEEDLE can live next to the corpus.
	_ = godotenv.Load()

	var configPath, logLevel string

	root := &cobra.Command{
		Use:   "parqscan",
		Short: "Parqscan - Parquet substring-search benchmark harness",
		Long: `Parqscan compares substring-search strategies over Parquet files:
raw column-chunk byte scanning, decoded Arrow batch scanning, and
engine-integrated filtering through a registered matcher function.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel, Encoding: "console"})
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Parqscan v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newInspectCmd(&configPath))
	root.AddCommand(newScanCmd(&configPath))
	root.AddCommand(newBenchCmd(&configPath))
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	var out string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveYAML(out, config.Default()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&out, "output", "o", "parqscan.yaml", "Path to write the config file to")

	cmd.AddCommand(initCmd)
	return cmd
}

// loadConfig resolves configuration and lets the --file flag, when set,
// override the environment.
func loadConfig(configPath, file string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if file != "" {
		cfg.File = file
	}
	return cfg, nil
}

func newInspectCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print footer metadata and the selected text columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, file)
			if err != nil {
				return err
			}
			if cfg.File == "" {
				return fmt.Errorf("no input file: set FILE or --file")
			}

			info, err := metadata.Inspect(cfg.File)
			if err != nil {
				return err
			}

			fmt.Printf("File: %s\n", info.Path)
			fmt.Printf("Rows: %d in %d row group(s)\n", info.NumRows, len(info.RowGroups))
			for rg, group := range info.RowGroups {
				fmt.Printf("\nRow group %d (%d rows):\n", rg, group.NumRows)
				for _, col := range group.Columns {
					fmt.Printf("  %-32s %-12s %-10s compressed=%d uncompressed=%d values=%d\n",
						col.Name, col.PhysicalType, col.Codec,
						col.CompressedSize, col.UncompressedSize, col.NumValues)
				}
			}

			text := metadata.TextColumns(info)
			fmt.Printf("\nText columns (%d, %d uncompressed bytes):\n", text.Len(), text.TotalSize())
			for _, name := range text.Names() {
				size, _ := text.Size(name)
				fmt.Printf("  %-32s %d bytes\n", name, size)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the Parquet file (overrides FILE)")
	return cmd
}

func newScanCmd(configPath *string) *cobra.Command {
	var file, strategy, needle, op string
	var batchSize int
	var useMmap bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one strategy once and print its count",
		Long: `Run a single scan pass. Counts differ by strategy: raw counts byte-level
occurrences inside decompressed column chunks, decoded and engine count
matching rows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, file)
			if err != nil {
				return err
			}
			if needle != "" {
				cfg.Needle = needle
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			count, err := runScan(ctx, cfg, strategy, op, batchSize, useMmap)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d\n", strategy, count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the Parquet file (overrides FILE)")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "decoded", "Scan strategy (raw, decoded, engine)")
	cmd.Flags().StringVarP(&needle, "needle", "n", "", "Substring to search for (overrides NEEDLE)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 8192, "Decoded batch size (decoded strategy only)")
	cmd.Flags().StringVar(&op, "op", "str_match", "Engine filter op (like, strpos, str_match)")
	cmd.Flags().BoolVar(&useMmap, "mmap", false, "Memory-map the file (raw strategy only)")
	return cmd
}

func runScan(ctx context.Context, cfg *config.Config, strategy, op string, batchSize int, useMmap bool) (int64, error) {
	switch strategy {
	case "raw":
		if useMmap {
			return rawscan.CountOccurrencesMapped(cfg.File, []byte(cfg.Needle))
		}
		return rawscan.CountOccurrencesInFile(cfg.File, []byte(cfg.Needle))
	case "decoded":
		return batchscan.CountMatchesInFile(ctx, cfg.File, cfg.Needle, int64(batchSize))
	case "engine":
		eng, err := engine.New(ctx)
		if err != nil {
			return 0, err
		}
		defer eng.Close()

		if err := eng.RegisterFile(ctx, cfg.Table, cfg.File); err != nil {
			return 0, err
		}

		info, err := metadata.Inspect(cfg.File)
		if err != nil {
			return 0, err
		}
		query, err := engine.BuildFilterQuery(cfg.Table,
			metadata.TextColumns(info).Names(), cfg.Needle, engine.FilterOp(op))
		if err != nil {
			return 0, err
		}
		return eng.CountRows(ctx, query)
	default:
		return 0, fmt.Errorf("unknown strategy %q (want raw, decoded or engine)", strategy)
	}
}

func newBenchCmd(configPath *string) *cobra.Command {
	var file, needle, output string
	var iterations int
	var batchSizes []int
	var enableMetrics, enableTracing bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run every strategy and write a benchmark report",
		Long: `Run the full benchmark: footer inspection, the raw byte scanner, the
decoded batch scanner at every batch size, and the engine with each filter
op. Timings and counts are written to a compressed JSON report.

Example:
  FILE=logs.parquet parqscan bench --iterations 5 --batch-sizes 1024,8192`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, file)
			if err != nil {
				return err
			}
			if needle != "" {
				cfg.Needle = needle
			}
			if output != "" {
				cfg.Output = output
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Iterations = iterations
			}
			if cmd.Flags().Changed("batch-sizes") {
				cfg.BatchSizes = batchSizes
			}
			cfg.EnableMetrics = enableMetrics
			cfg.EnableTracing = enableTracing

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if cfg.EnableTracing {
				shutdown, err := harness.InitTracing(ctx)
				if err != nil {
					return err
				}
				defer func() { _ = shutdown(ctx) }()
			}

			runner, err := harness.New(cfg)
			if err != nil {
				return err
			}

			report, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			path, err := runner.WriteReport(report)
			if err != nil {
				return err
			}
			logger.Info("report written", zap.String("path", path))

			fmt.Printf("Run %s: %d rows, needle %q\n", report.RunID, report.NumRows, report.Needle)
			for _, result := range report.Results {
				name := result.Strategy
				if result.Variant != "" {
					name += "/" + result.Variant
				}
				fmt.Printf("  %-24s count=%-10d mean=%-14s best=%-14s %.1f MB/s\n",
					name, result.Count, result.MeanDuration, result.Best(), result.ThroughputMBps)
			}

			if cfg.EnableMetrics {
				families, err := metrics.Dump()
				if err != nil {
					return err
				}
				fmt.Printf("\nRecorded %d metric families\n", len(families))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the Parquet file (overrides FILE)")
	cmd.Flags().StringVarP(&needle, "needle", "n", "", "Substring to search for (overrides NEEDLE)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Report output directory")
	cmd.Flags().IntVar(&iterations, "iterations", 3, "Timed passes per strategy")
	cmd.Flags().IntSliceVar(&batchSizes, "batch-sizes", []int{1024, 4096, 8192}, "Decoded batch sizes")
	cmd.Flags().BoolVar(&enableMetrics, "enable-metrics", false, "Record Prometheus metrics")
	cmd.Flags().BoolVar(&enableTracing, "enable-tracing", false, "Export per-pass spans to stderr")
	return cmd
}
