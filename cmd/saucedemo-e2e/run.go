package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/scenarios"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run the purchase flow scenarios",
	Long: `Run executes the named scenarios, or all of them, and exits non-zero
when any scenario fails.

With --demo the bundled demo shop is started locally and the suite is
pointed at it instead of the configured base URL.`,
	RunE: runScenarios,
}

var (
	parallelFlag int
	demoFlag     bool
	progressFlag bool
	metricsFlag  string
)

func init() {
	runCmd.Flags().IntVar(&parallelFlag, "parallel", 0, "Scenarios run at once, each in its own session (overrides suite.parallel)")
	runCmd.Flags().BoolVar(&demoFlag, "demo", false, "Serve the demo shop locally and test against it")
	runCmd.Flags().BoolVar(&progressFlag, "progress", true, "Show a progress bar on stderr")
	runCmd.Flags().StringVar(&metricsFlag, "metrics-file", "", "Write Prometheus metrics to this textfile")

	rootCmd.AddCommand(runCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if parallelFlag > 0 {
		cfg.Suite.Parallel = parallelFlag
	}
	if metricsFlag != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = metricsFlag
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSuite(cmd)
	scs, err := s.Registry().Select(args...)
	if err != nil {
		return err
	}

	if demoFlag {
		baseURL, stopSite, err := s.StartDemoSite(ctx)
		if err != nil {
			return fmt.Errorf("start demo site: %w", err)
		}
		defer func() {
			if err := stopSite(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  demo site shutdown: %v\n", err)
			}
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "🛒 Demo shop serving at %s\n", baseURL)
	}

	bar := newProgressBar(cmd.ErrOrStderr(), len(scs))
	start := time.Now()
	results, err := s.Run(ctx, args, func(r scenarios.Result) {
		if bar == nil {
			return
		}
		bar.Describe(r.Scenario)
		_ = bar.Add(1)
	})
	if bar != nil {
		_ = bar.Finish()
	}
	printSummary(cmd.OutOrStdout(), results, time.Since(start))
	if err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	if err := scenarios.Check(results); err != nil {
		return err
	}
	return ctx.Err()
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if !progressFlag || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Running scenarios"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

func printSummary(w io.Writer, results []scenarios.Result, elapsed time.Duration) {
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(w)
	failed := 0
	for _, r := range results {
		if r.Passed() {
			fmt.Fprintf(w, "  %s %-20s %-10s %s\n", pass("✓"), r.Scenario, r.Persona, r.Duration.Round(time.Millisecond))
			continue
		}
		failed++
		fmt.Fprintf(w, "  %s %-20s %-10s %v\n", fail("✗"), r.Scenario, r.Persona, r.Err)
	}
	fmt.Fprintln(w)
	if failed == 0 {
		fmt.Fprintf(w, "✅ %d scenarios passed in %s\n", len(results), elapsed.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "❌ %d of %d scenarios failed in %s\n", failed, len(results), elapsed.Round(time.Millisecond))
}
