// Package suite wires configuration, reporting, metrics and the browser
// backend into runnable scenario sessions.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation/backend"
	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/demosite"
	"github.com/gotrs-io/saucedemo-e2e/internal/environment"
	"github.com/gotrs-io/saucedemo-e2e/internal/metrics"
	"github.com/gotrs-io/saucedemo-e2e/internal/report"
	"github.com/gotrs-io/saucedemo-e2e/internal/scenarios"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
)

// Suite builds sessions and runners from one configuration.
type Suite struct {
	cfg      *config.Config
	logger   *zap.Logger
	console  io.Writer
	metrics  *metrics.Recorder
	registry *scenarios.Registry
}

// Options configures a Suite.
type Options struct {
	Logger *zap.Logger
	// Console receives the console report sink; nil means stdout.
	Console io.Writer
}

// New creates a suite for cfg.
func New(cfg *config.Config, opts Options) *Suite {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Suite{
		cfg:      cfg,
		logger:   opts.Logger,
		console:  opts.Console,
		registry: scenarios.Builtin(cfg.Suite.ScenarioTimeout),
	}
	if cfg.Metrics.Enabled {
		s.metrics = metrics.New()
	}
	return s
}

func (s *Suite) Config() *config.Config        { return s.cfg }
func (s *Suite) Registry() *scenarios.Registry { return s.registry }
func (s *Suite) Metrics() *metrics.Recorder    { return s.metrics }
func (s *Suite) Logger() *zap.Logger           { return s.logger }

// Reporter builds the report logger for one session.
func (s *Suite) Reporter() (report.Logger, error) {
	return report.New(s.cfg.Report, report.Options{Console: s.console, Zap: s.logger.Named("report")})
}

// OpenSession builds an unconnected session on the configured backend.
// It satisfies scenarios.SessionFactory.
func (s *Suite) OpenSession(ctx context.Context) (*session.Session, error) {
	client, _, err := backend.Open(s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	log, err := s.Reporter()
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		Client:        client,
		Logger:        log,
		TestData:      s.cfg.TestData,
		Wait:          s.cfg.Wait,
		LaunchCommand: s.cfg.Browser.LaunchCommand,
		Metrics:       s.metrics,
		Zap:           s.logger.Named("session"),
	}), nil
}

// Runner builds a scenario runner reporting to onResult.
func (s *Suite) Runner(onResult func(scenarios.Result)) *scenarios.Runner {
	return scenarios.NewRunner(scenarios.RunnerOptions{
		Metrics:       s.metrics,
		Logger:        s.logger,
		WindowTimeout: s.cfg.Wait.Landmark,
		OnResult:      onResult,
	})
}

// WriteEnvironment collects the run environment and hands it to every
// sink that records one.
func (s *Suite) WriteEnvironment(log report.Logger) (environment.Info, error) {
	info := environment.Collect(s.cfg.Report.SettingsPath, s.logger)
	if !s.cfg.Report.Environment {
		return info, nil
	}
	if w, ok := log.(report.EnvironmentWriter); ok {
		if err := w.WriteEnvironment(info.Properties()); err != nil {
			return info, fmt.Errorf("write environment: %w", err)
		}
	}
	return info, nil
}

// Run executes the named scenarios (all when names is empty) within the
// suite timeout. With Suite.Parallel above one, every scenario gets its
// own session; otherwise they share one.
func (s *Suite) Run(ctx context.Context, names []string, onResult func(scenarios.Result)) ([]scenarios.Result, error) {
	scs, err := s.registry.Select(names...)
	if err != nil {
		return nil, err
	}
	if s.cfg.Suite.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Suite.Timeout)
		defer cancel()
	}

	runner := s.Runner(onResult)
	var results []scenarios.Result
	if s.cfg.Suite.Parallel > 1 {
		if log, rerr := s.Reporter(); rerr == nil {
			s.writeEnvironment(log)
		}
		results, err = runner.RunParallel(ctx, s.cfg.Suite.Parallel, s.OpenSession, scs)
	} else {
		results, err = s.runShared(ctx, runner, scs)
	}
	if werr := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); werr != nil {
		s.logger.Warn("Could not write metrics", zap.Error(werr))
	}
	return results, err
}

func (s *Suite) writeEnvironment(log report.Logger) {
	if _, err := s.WriteEnvironment(log); err != nil {
		s.logger.Warn("Could not write environment", zap.Error(err))
	}
}

func (s *Suite) runShared(ctx context.Context, runner *scenarios.Runner, scs []scenarios.Scenario) ([]scenarios.Result, error) {
	sess, err := s.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	s.writeEnvironment(sess.Log())
	if err := sess.Connect(ctx); err != nil {
		return nil, err
	}
	results, runErr := runner.Run(ctx, sess, scs)
	derr := sess.Disconnect(context.WithoutCancel(ctx))
	return results, errors.Join(runErr, derr)
}

// StartDemoSite serves the demo shop on the configured address and points
// the suite's base URL at it. stop shuts the server down.
func (s *Suite) StartDemoSite(ctx context.Context) (baseURL string, stop func() error, err error) {
	srv, err := demosite.New(demosite.OptionsFromConfig(s.cfg, s.logger))
	if err != nil {
		return "", nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	ready := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() { done <- srv.Run(runCtx, s.cfg.DemoSite.Addr, func(a net.Addr) { ready <- a }) }()

	select {
	case addr := <-ready:
		baseURL = fmt.Sprintf("http://%s/", addr)
	case err := <-done:
		cancel()
		return "", nil, err
	case <-time.After(10 * time.Second):
		cancel()
		return "", nil, errors.New("demo site did not start")
	}
	s.cfg.TestData.BaseURL = baseURL
	stop = func() error {
		cancel()
		return <-done
	}
	return baseURL, stop, nil
}

// Monitor builds a monitor re-running the named scenarios on schedule,
// each round on a fresh session.
func (s *Suite) Monitor(schedule string, names []string, onRound func([]scenarios.Result)) (*scenarios.Monitor, error) {
	scs, err := s.registry.Select(names...)
	if err != nil {
		return nil, err
	}
	if schedule == "" {
		schedule = s.cfg.Suite.Schedule
	}
	runner := s.Runner(nil)
	return scenarios.NewMonitor(runner, scenarios.MonitorOptions{
		Schedule:  schedule,
		Scenarios: scs,
		Open:      s.OpenSession,
		Logger:    s.logger,
		OnRound: func(results []scenarios.Result) {
			if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
				s.logger.Warn("Could not write metrics", zap.Error(err))
			}
			if onRound != nil {
				onRound(results)
			}
		},
	}), nil
}
