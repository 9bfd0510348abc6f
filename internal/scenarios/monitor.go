package scenarios

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	// Schedule is a cron expression with a seconds field, or a
	// descriptor such as "@every 5m".
	Schedule  string
	Scenarios []Scenario
	Open      SessionFactory
	Logger    *zap.Logger
	// OnRound is called with the results of every completed round.
	OnRound func([]Result)
}

// Monitor re-runs scenarios on a cron schedule as synthetic monitoring.
// Rounds never overlap: a tick that fires while a round is still running
// is skipped.
type Monitor struct {
	cron   *cron.Cron
	runner *Runner
	opts   MonitorOptions
	logger *zap.Logger

	mu      sync.Mutex
	entry   cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewMonitor creates a stopped monitor.
func NewMonitor(r *Runner, opts MonitorOptions) *Monitor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.Named("monitor")
	clog := cronLogger{logger}
	return &Monitor{
		cron:   cron.New(cron.WithSeconds(), cron.WithLogger(clog), cron.WithChain(cron.SkipIfStillRunning(clog))),
		runner: r,
		opts:   opts,
		logger: logger,
	}
}

// Start schedules the rounds and starts the scheduler. Rounds run on a
// context derived from ctx that Stop cancels.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	id, err := m.cron.AddFunc(m.opts.Schedule, m.tick)
	if err != nil {
		return fmt.Errorf("failed to schedule monitor %q: %w", m.opts.Schedule, err)
	}
	m.entry = id
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.started = true
	m.cron.Start()
	m.logger.Info("Monitor started", zap.String("schedule", m.opts.Schedule), zap.Int("scenarios", len(m.opts.Scenarios)))
	return nil
}

// Reschedule swaps the schedule of a running monitor.
func (m *Monitor) Reschedule(schedule string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if schedule == m.opts.Schedule {
		return nil
	}
	if !m.started {
		m.opts.Schedule = schedule
		return nil
	}
	id, err := m.cron.AddFunc(schedule, m.tick)
	if err != nil {
		return fmt.Errorf("failed to reschedule monitor %q: %w", schedule, err)
	}
	m.cron.Remove(m.entry)
	m.entry = id
	m.logger.Info("Monitor rescheduled", zap.String("from", m.opts.Schedule), zap.String("to", schedule))
	m.opts.Schedule = schedule
	return nil
}

// Schedule returns the current schedule.
func (m *Monitor) Schedule() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts.Schedule
}

func (m *Monitor) tick() {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	m.RunOnce(ctx)
}

// RunOnce runs one round on a fresh session and returns its results.
func (m *Monitor) RunOnce(ctx context.Context) []Result {
	m.logger.Info("Monitor round starting")
	s, err := m.opts.Open(ctx)
	if err != nil {
		m.logger.Error("Could not open session", zap.Error(err))
		return nil
	}
	if err := s.Connect(ctx); err != nil {
		m.logger.Error("Could not connect session", zap.Error(err))
		return nil
	}
	defer func() {
		if err := s.Disconnect(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("Could not disconnect session", zap.Error(err))
		}
	}()

	results, err := m.runner.Run(ctx, s, m.opts.Scenarios)
	if err != nil {
		m.logger.Warn("Monitor round interrupted", zap.Error(err))
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	m.logger.Info("Monitor round finished", zap.Int("scenarios", len(results)), zap.Int("failed", failed))
	if m.opts.OnRound != nil {
		m.opts.OnRound(results)
	}
	return results
}

// Stop halts the scheduler, cancels a running round and waits for it to
// return.
func (m *Monitor) Stop() {
	m.mu.Lock()
	started := m.started
	m.started = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()
	if !started {
		return
	}
	m.logger.Info("Stopping monitor...")
	// The returned context ends once running rounds have returned.
	<-m.cron.Stop().Done()
	m.logger.Info("Monitor stopped")
}

// Wait blocks until SIGINT, SIGTERM or the end of ctx, then stops the
// monitor.
func (m *Monitor) Wait(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.logger.Info("Received signal", zap.Stringer("signal", sig))
		m.Stop()
		return nil
	case <-ctx.Done():
		m.logger.Info("Context cancelled")
		m.Stop()
		return ctx.Err()
	}
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
