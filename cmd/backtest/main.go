package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"

	"barsim/internal/backtest"
	"barsim/internal/datasource"
	"barsim/internal/engine"
	"barsim/internal/logger"
	"barsim/internal/strategy"
)

// runAction is the core logic executed by the CLI command. It loads the
// engine config, the market data and the strategy, then runs the backtest.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	strategyName := cmd.String("strategy")
	strategyConfigPath := cmd.String("strategy-config")
	outputDir := cmd.String("output")

	level := zapcore.InfoLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	log, err := logger.NewLogger(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config := engine.DefaultConfig()

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		config, err = engine.ParseConfig(string(content))
		if err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	registry := strategy.NewRegistry()

	strat, err := registry.Get(strategyName)
	if err != nil {
		return fmt.Errorf("unknown strategy %q (available: %v): %w", strategyName, registry.Names(), err)
	}

	strategyConfig := ""

	if strategyConfigPath != "" {
		content, err := os.ReadFile(strategyConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read strategy config: %w", err)
		}

		strategyConfig = string(content)
	}

	if err := strat.Initialize(strategyConfig); err != nil {
		return fmt.Errorf("failed to initialize strategy: %w", err)
	}

	source, err := datasource.NewDuckDBBarSource(":memory:", log)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	total, err := source.Count(config.StartTime, config.EndTime)
	if err != nil {
		return fmt.Errorf("failed to count bars: %w", err)
	}

	bar := progressbar.Default(int64(total), "replaying bars")
	onProgress := optional.Some(backtest.OnProgressCallback(func(current, _ int) {
		_ = bar.Set(current)
	}))

	runner := backtest.NewRunner(config, source, strat, outputDir, log)

	result, err := runner.Run(onProgress)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	_ = bar.Finish()

	fmt.Printf("\nRun %s finished: %d trading days, %d fills\n",
		result.RunID, len(result.EquityCurve), len(result.Fills))
	fmt.Printf("Final cash:            %.2f\n", result.FinalCash)
	fmt.Printf("Annualized return:     %.4f\n", result.Metrics.AnnualizedReturn)
	fmt.Printf("Annualized volatility: %.4f\n", result.Metrics.AnnualizedVolatility)
	fmt.Printf("Sharpe ratio:          %.4f\n", result.Metrics.SharpeRatio)
	fmt.Printf("Max drawdown:          %.2f (%.2f%%)\n",
		result.Metrics.MaxDrawdown, result.Metrics.MaxDrawdownPct*100)
	fmt.Printf("Realized PnL:          %.2f\n", result.Metrics.RealizedPnL)

	if outputDir != "" {
		fmt.Printf("Results written to %s\n", outputDir)
	}

	return nil
}

// schemaAction prints the JSON schema for the engine config file.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay daily bars through a trading strategy",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest over a CSV or parquet bar file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the bar data file (.csv or .parquet)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "strategy",
						Aliases:  []string{"s"},
						Usage:    "Strategy name (e.g., buy_and_hold, sma_crossover)",
						Value:    "buy_and_hold",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the engine YAML config file",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "strategy-config",
						Usage:    "Path to the strategy YAML config file",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Directory to write run results to",
						Value:    "results",
						Required: false,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Enable debug logging",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema for the engine config file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
