package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// parseOptimizeFlags runs flag parsing only, leaving RunE untouched.
func parseOptimizeFlags(t *testing.T, args ...string) (*cobra.Command, optimizeOptions) {
	t.Helper()
	cmd := newOptimizeCmd()
	require.NoError(t, cmd.ParseFlags(args))

	var opts optimizeOptions
	f := cmd.Flags()
	opts.symbols, _ = f.GetString("symbols")
	opts.start, _ = f.GetString("start")
	opts.end, _ = f.GetString("end")
	opts.target, _ = f.GetFloat64("target")
	opts.points, _ = f.GetInt("points")
	opts.samples, _ = f.GetInt("samples")
	opts.seed, _ = f.GetUint64("seed")
	opts.noClip, _ = f.GetBool("no-clip")
	return cmd, opts
}

func TestBuildRequest_Defaults(t *testing.T) {
	cmd, opts := parseOptimizeFlags(t, "--symbols", "aapl, msft,goog")

	req, err := buildRequest(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, req.Symbols)
	assert.Equal(t, optimization.ModeMaxSharpe, req.Mode)
	assert.True(t, req.Range.Start.IsZero())
	assert.Nil(t, req.TargetReturn)
	assert.Nil(t, req.FrontierPoints)
	assert.Nil(t, req.Samples)
	assert.Nil(t, req.Seed)
	assert.Nil(t, req.ClipFrontier)
}

func TestBuildRequest_AllFlags(t *testing.T) {
	cmd, opts := parseOptimizeFlags(t,
		"--symbols", "AAPL,MSFT,GOOG",
		"--start", "2023-01-02",
		"--end", "2024-01-02",
		"--target", "0.25",
		"--points", "20",
		"--samples", "0",
		"--seed", "42",
		"--no-clip",
	)

	req, err := buildRequest(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, optimization.ModeTargetReturn, req.Mode)
	require.NotNil(t, req.TargetReturn)
	assert.Equal(t, 0.25, *req.TargetReturn)
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), req.Range.Start)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), req.Range.End)
	require.NotNil(t, req.FrontierPoints)
	assert.Equal(t, 20, *req.FrontierPoints)
	require.NotNil(t, req.Samples)
	assert.Equal(t, 0, *req.Samples)
	require.NotNil(t, req.Seed)
	assert.Equal(t, uint64(42), *req.Seed)
	require.NotNil(t, req.ClipFrontier)
	assert.False(t, *req.ClipFrontier)
}

func TestBuildRequest_StartWithoutEnd(t *testing.T) {
	nowFunc = func() time.Time { return time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = time.Now })

	cmd, opts := parseOptimizeFlags(t, "--symbols", "AAPL,MSFT,GOOG", "--start", "2024-01-01")

	req, err := buildRequest(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), req.Range.End)
}

func TestBuildRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"too few symbols", []string{"--symbols", "AAPL,MSFT"}},
		{"blank symbol", []string{"--symbols", "AAPL,,MSFT,GOOG"}},
		{"bad start", []string{"--symbols", "AAPL,MSFT,GOOG", "--start", "01/02/2023"}},
		{"end without start", []string{"--symbols", "AAPL,MSFT,GOOG", "--end", "2024-01-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, opts := parseOptimizeFlags(t, tt.args...)
			_, err := buildRequest(cmd, opts)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestOptimizeCmd_RequiresSymbols(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"optimize"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbols")
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "frontier dev (unknown)\n", out.String())
}

func TestPrintReport(t *testing.T) {
	report := &optimization.Report{
		SessionID: "abc-123",
		Start:     "2023-06-30",
		End:       "2024-06-30",
		Result: &optimization.Result{
			Mode:         optimization.ModeTargetReturn,
			Symbols:      []string{"AAA", "BBB", "CCC"},
			Observations: 251,
			MinVariance: &optimization.Portfolio{
				Label:   optimization.LabelMinVariance,
				Weights: []float64{0.1905, 0.7619, 0.0476},
				Stats:   optimization.PortfolioStats{ExpectedReturn: 0.216, Volatility: 0.08, Sharpe: 2.7},
			},
			Target: &optimization.Portfolio{
				Label:   optimization.LabelTargetReturn,
				Weights: []float64{0.4971, 0.2713, 0.2316},
				Stats:   optimization.PortfolioStats{ExpectedReturn: 0.25, Volatility: 0.127, Sharpe: 1.9684},
			},
			Frontier: &optimization.Frontier{
				Points: []optimization.FrontierPoint{
					{TargetReturn: 0.216, Volatility: 0.08},
					{TargetReturn: 0.25, Volatility: 0.127},
				},
				Failures: []optimization.FrontierFailure{
					{TargetReturn: 0.233, Status: domain.StatusIterationLimit},
				},
			},
			Samples: make([]optimization.SamplePoint, 10),
		},
	}

	var out bytes.Buffer
	printReport(&out, report)
	s := out.String()

	assert.Contains(t, s, "target return")
	assert.Contains(t, s, "2023-06-30..2024-06-30")
	assert.Contains(t, s, "251 observations")
	assert.Contains(t, s, "abc-123")
	assert.Contains(t, s, "min variance")
	assert.Contains(t, s, "0.7619")
	assert.Contains(t, s, "0.4971")
	assert.Contains(t, s, "25.00%")
	assert.Contains(t, s, "1.9684")
	assert.Contains(t, s, "Efficient frontier: 2 points")
	assert.Contains(t, s, "failed at target 23.30%: iteration_limit")
	assert.Contains(t, s, "Monte Carlo: 10 random portfolios")
	assert.NotContains(t, s, "max sharpe")
}
