package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/di"
	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/aristath/frontier/pkg/logger"
)

type optimizeOptions struct {
	symbols      string
	start        string
	end          string
	target       float64
	points       int
	samples      int
	seed         uint64
	noClip       bool
	chart        string
	weightsChart string
	asJSON       bool
}

func newOptimizeCmd() *cobra.Command {
	var opts optimizeOptions

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Optimize a universe of at least three symbols",
		Example: `  frontier optimize --symbols AAPL,MSFT,GOOG
  frontier optimize --symbols AAPL,MSFT,GOOG,SPY --start 2023-01-01 --end 2024-01-01 --target 0.25
  frontier optimize --symbols AAPL,MSFT,GOOG --seed 42 --chart frontier.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(cmd, opts)
			if err != nil {
				return err
			}
			return runOptimize(cmd, req, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.symbols, "symbols", "", "comma-separated ticker symbols (at least 3)")
	f.StringVar(&opts.start, "start", "", "first date, YYYY-MM-DD (default: lookback window)")
	f.StringVar(&opts.end, "end", "", "last date, YYYY-MM-DD (default: today)")
	f.Float64Var(&opts.target, "target", 0, "annualized target return; switches to target-return mode")
	f.IntVar(&opts.points, "points", 0, "efficient frontier points (default from FRONTIER_POINTS)")
	f.IntVar(&opts.samples, "samples", 0, "Monte Carlo portfolios to sample (default from MONTE_CARLO_SAMPLES)")
	f.Uint64Var(&opts.seed, "seed", 0, "seed for reproducible Monte Carlo samples")
	f.BoolVar(&opts.noClip, "no-clip", false, "start the frontier at 0 instead of the min-variance return")
	f.StringVar(&opts.chart, "chart", "", "write the efficient frontier chart to this PNG file")
	f.StringVar(&opts.weightsChart, "weights-chart", "", "write the headline allocation chart to this PNG file")
	f.BoolVar(&opts.asJSON, "json", false, "print the full report as JSON")
	_ = cmd.MarkFlagRequired("symbols")

	return cmd
}

// buildRequest turns flags into a service request. Only flags the user set
// override the configured defaults.
func buildRequest(cmd *cobra.Command, opts optimizeOptions) (optimization.OptimizeRequest, error) {
	symbols, err := universe.ParseSymbols(opts.symbols)
	if err != nil {
		return optimization.OptimizeRequest{}, err
	}

	req := optimization.OptimizeRequest{
		Symbols: symbols,
		Mode:    optimization.ModeMaxSharpe,
	}

	if opts.start != "" || opts.end != "" {
		end := opts.end
		if end == "" {
			end = universe.DefaultRange(nowFunc(), 0).End.Format(universe.DateLayout)
		}
		req.Range, err = universe.ParseDateRange(opts.start, end)
		if err != nil {
			return req, err
		}
	}

	f := cmd.Flags()
	if f.Changed("target") {
		target := opts.target
		req.TargetReturn = &target
		req.Mode = optimization.ModeTargetReturn
	}
	if f.Changed("points") {
		points := opts.points
		req.FrontierPoints = &points
	}
	if f.Changed("samples") {
		samples := opts.samples
		req.Samples = &samples
	}
	if f.Changed("seed") {
		seed := opts.seed
		req.Seed = &seed
	}
	if f.Changed("no-clip") {
		clip := !opts.noClip
		req.ClipFrontier = &clip
	}
	return req, nil
}

func runOptimize(cmd *cobra.Command, req optimization.OptimizeRequest, opts optimizeOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.LogLevel
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		level = override
	}
	log := logger.New(logger.Config{
		Level:  level,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})

	container, _, err := di.Wire(cfg, log, nil)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := container.OptimizationService.Optimize(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}

	if opts.chart != "" {
		if err := writeChart(opts.chart, charts.KindFrontier, report.Result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "frontier chart written to %s\n", opts.chart)
	}
	if opts.weightsChart != "" {
		if err := writeChart(opts.weightsChart, charts.KindWeights, report.Result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "weights chart written to %s\n", opts.weightsChart)
	}
	return nil
}

func writeChart(path string, kind charts.Kind, result *optimization.Result) error {
	img, err := charts.Render(kind, result)
	if err != nil {
		return fmt.Errorf("%s chart: %w", kind, err)
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("failed to write %s chart: %w", kind, err)
	}
	return nil
}
