package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/metrics"
	"github.com/gotrs-io/saucedemo-e2e/internal/observability"
	"github.com/gotrs-io/saucedemo-e2e/internal/scenarios"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor [scenario...]",
	Short: "Re-run scenarios on a schedule as synthetic monitoring",
	Long: `Monitor runs the scenarios on suite.schedule (a cron expression with a
seconds field) until interrupted. Editing the schedule in config.yaml
takes effect without a restart.

With --metrics-addr the results are exposed for Prometheus at /metrics.`,
	RunE: runMonitor,
}

var (
	scheduleFlag    string
	metricsAddrFlag string
	immediateFlag   bool
)

func init() {
	monitorCmd.Flags().StringVar(&scheduleFlag, "schedule", "", "Cron schedule (overrides suite.schedule)")
	monitorCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "Serve /metrics on this address")
	monitorCmd.Flags().BoolVar(&immediateFlag, "now", false, "Run one round before waiting for the schedule")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := observability.GetLogger()
	if metricsAddrFlag != "" {
		cfg.Metrics.Enabled = true
	}

	s := newSuite(cmd)
	m, err := s.Monitor(scheduleFlag, args, func(results []scenarios.Result) {
		if err := scenarios.Check(results); err != nil {
			logger.Warn("Monitor round failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if metricsAddrFlag != "" {
		srv := metricsServer(metricsAddrFlag, s.Metrics(), cfg.App.Debug)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", zap.Error(err))
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "📈 Metrics on http://%s/metrics\n", metricsAddrFlag)
	}

	if scheduleFlag == "" {
		config.Watch(func(c *config.Config) {
			if c.Suite.Schedule == m.Schedule() {
				return
			}
			if err := m.Reschedule(c.Suite.Schedule); err != nil {
				logger.Error("Could not apply new schedule", zap.String("schedule", c.Suite.Schedule), zap.Error(err))
			}
		})
	}

	if immediateFlag {
		m.RunOnce(ctx)
	}
	if err := m.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "⏱️  Monitoring on schedule %q, Ctrl+C to stop\n", m.Schedule())
	if err := m.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// metricsServer exposes the recorder and a liveness probe.
func metricsServer(addr string, rec *metrics.Recorder, debug bool) *http.Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(rec.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
}
