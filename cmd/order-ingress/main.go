// cmd/order-ingress/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fulfillment-ops/order-ingress/pkg/config"
	"github.com/fulfillment-ops/order-ingress/pkg/model"
	"github.com/fulfillment-ops/order-ingress/pkg/processor"
	"github.com/fulfillment-ops/order-ingress/pkg/quality"
	"github.com/fulfillment-ops/order-ingress/pkg/source"
	"github.com/fulfillment-ops/order-ingress/pkg/store"
)

// Version is set at build time.
var Version = "dev"

func main() {
	// Missing .env is fine; configuration falls back to the process env.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "order-ingress",
		Usage:   "Process service-order exports: clean, filter, deduplicate, and score",
		Version: Version,
		Commands: []*cli.Command{
			runCommand(),
			qualityCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the processing pipeline over an order export",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Usage: "Path to a CSV export (omit to read from Snowflake)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Processing mode: WSA, MODOROSO, or WAPPR",
			},
			&cli.IntSliceFlag{
				Name:  "month",
				Usage: "Restrict to creation months (1-12, repeatable)",
			},
			&cli.BoolFlag{
				Name:  "batch",
				Usage: "Process in chunks instead of one pass",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Persist finalized rows to the order registry",
			},
			&cli.BoolFlag{
				Name:  "report",
				Usage: "Print a quality report for the finalized table",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.IsSet("mode") {
		cfg.Mode = model.ParseMode(c.String("mode"))
	}
	months := cfg.Months
	if c.IsSet("month") {
		months = c.IntSlice("month")
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	table, err := loadInput(ctx, c.String("input"), cfg, logger)
	if err != nil {
		return err
	}

	var registry *store.Registry
	existingIDs := []string{}
	if cfg.Postgres != nil {
		registry, err = store.NewRegistry(ctx, cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to order registry: %w", err)
		}
		defer registry.Close()

		existingIDs, err = registry.ExistingIDs(ctx, cfg.Mode)
		if err != nil {
			return fmt.Errorf("failed to fetch existing order IDs: %w", err)
		}
	} else {
		logger.Warn("Order registry not configured, deduplication runs against an empty ID set")
	}

	var result *model.Table
	var stats model.ProcessingStats

	if c.Bool("batch") {
		batch := processor.NewBatchProcessor(cfg.Mode, cfg.Rules, logger).
			WithChunkSize(cfg.ChunkSize).
			WithSortColumn(cfg.SortColumn)
		var chunkErrors []processor.ChunkError
		result, stats, chunkErrors = batch.ProcessChunks(table, months, existingIDs)
		for _, ce := range chunkErrors {
			logger.Error("Chunk failed", zap.Int("chunk", ce.ChunkIndex), zap.Error(ce.Err))
		}
	} else {
		proc := processor.New(cfg.Mode, cfg.Rules, logger).WithSortColumn(cfg.SortColumn)
		result, err = proc.Process(table, months, existingIDs)
		if err != nil {
			return fmt.Errorf("pipeline failed: %w", err)
		}
		stats = proc.Stats()
	}

	if err := processor.VerifyStats(stats); err != nil {
		return err
	}

	logger.Info("Pipeline completed",
		zap.Int("rawRows", stats.Get(model.StatRawRows)),
		zap.Int("finalRows", stats.Get(model.StatFinalRows)),
		zap.Int("duplicatesRemoved", stats.Get(model.StatDuplicatesRemoved)))
	fmt.Print(processor.SummaryReport(cfg.Mode, stats))

	if registry != nil && c.Bool("save") {
		inserted, err := registry.SaveOrders(ctx, cfg.Mode, result)
		if err != nil {
			return fmt.Errorf("failed to save orders: %w", err)
		}
		if err := registry.AppendActivity(ctx, model.NewActivityEntry(cfg.Mode, "save", inserted,
			fmt.Sprintf("saved %d of %d finalized rows", inserted, result.NumRows()))); err != nil {
			logger.Warn("Failed to record activity", zap.Error(err))
		}
	}

	if c.Bool("report") {
		engine, err := quality.NewEngine(result, cfg.Quality, cfg.Rules, logger)
		if err != nil {
			return err
		}
		fmt.Print(engine.Run().DetailedReport())
	}

	return nil
}

func qualityCommand() *cli.Command {
	return &cli.Command{
		Name:  "quality",
		Usage: "Score an order export without processing it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Usage:    "Path to a CSV export",
				Required: true,
			},
		},
		Action: qualityAction,
	}
}

func qualityAction(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	table, err := source.ReadCSV(c.String("input"), logger)
	if err != nil {
		return err
	}

	engine, err := quality.NewEngine(table, cfg.Quality, cfg.Rules, logger)
	if err != nil {
		return err
	}
	fmt.Print(engine.Run().DetailedReport())
	return nil
}

// loadInput reads orders from the CSV export when a path is given,
// otherwise from Snowflake.
func loadInput(ctx context.Context, path string, cfg *config.Config, logger *zap.Logger) (*model.Table, error) {
	if path != "" {
		return source.ReadCSV(path, logger)
	}

	if cfg.Snowflake == nil {
		return nil, fmt.Errorf("no input file given and Snowflake is not configured")
	}

	reader, err := source.NewSnowflakeReader(ctx, cfg.Snowflake, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}
	defer reader.Close()

	return reader.ReadOrders(ctx)
}

// buildLogger constructs the process logger from the configured level
// and format.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
