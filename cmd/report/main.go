// Command report renders the current standings, and optionally the payouts
// of one distribution run, from the persistent stores.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"t2e-leaderboard/internal/app"
	"t2e-leaderboard/internal/config"
	"t2e-leaderboard/internal/logging"
	"t2e-leaderboard/internal/reporting"
)

func main() {
	configPath := flag.String("config", os.Getenv("T2E_CONFIG"), "Path to the YAML config file")
	format := flag.String("format", "table", "Output format: table, markdown or csv")
	runID := flag.String("run", "", "Include the payouts of this distribution run")
	decimals := flag.Int("decimals", 0, "Token decimals used to format amounts")
	output := flag.String("output", "", "Write to this file instead of stdout")
	flag.Parse()

	if err := run(*configPath, *format, *runID, int32(*decimals), *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, format, runID string, decimals int32, output string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Storage.Backend == config.BackendMemory {
		return errors.New("report needs a persistent storage backend; set storage.backend to postgres")
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()
	stores, err := app.OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	gen := reporting.NewGenerator(stores.TraderStats, stores.Leaderboard, stores.History, stores.Payouts)
	report, err := gen.Generate(ctx, runID)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := render(w, report, format, decimals); err != nil {
		return err
	}
	logger.Info("report generated",
		zap.String("format", format),
		zap.Int("standings", len(report.Standings)),
		zap.Int("payouts", len(report.Payouts)))
	return nil
}

func render(w io.Writer, r *reporting.Report, format string, decimals int32) error {
	switch format {
	case "table":
		reporting.RenderTable(w, r, decimals)
		return nil
	case "markdown", "md":
		_, err := io.WriteString(w, reporting.RenderMarkdown(r, decimals))
		return err
	case "csv":
		_, err := io.WriteString(w, reporting.RenderCSV(r.Standings))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
