package scenarios

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/metrics"
	"github.com/gotrs-io/saucedemo-e2e/internal/report"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
)

// SessionFactory builds an unconnected session. Parallel runs call it once
// per worker.
type SessionFactory func(ctx context.Context) (*session.Session, error)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string
	Persona  string
	Duration time.Duration
	Err      error
}

// Passed reports whether the scenario succeeded.
func (r Result) Passed() bool { return r.Err == nil }

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Metrics *metrics.Recorder
	Logger  *zap.Logger
	// WindowTimeout bounds the wait for the browser window after launch.
	WindowTimeout time.Duration
	// OnResult is called after every scenario, from the goroutine that
	// ran it.
	OnResult func(Result)
}

// Runner executes scenarios with the per-test setup and teardown: a fresh
// browser window before, alt+f4 after.
type Runner struct {
	metrics  *metrics.Recorder
	logger   *zap.Logger
	window   time.Duration
	onResult func(Result)
}

// NewRunner creates a runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WindowTimeout <= 0 {
		opts.WindowTimeout = 5 * time.Second
	}
	return &Runner{
		metrics:  opts.Metrics,
		logger:   opts.Logger.Named("runner"),
		window:   opts.WindowTimeout,
		onResult: opts.OnResult,
	}
}

// windowed is implemented by clients that know whether a window is open.
type windowed interface {
	WindowOpen() bool
}

// RunOne runs sc on a connected session.
func (r *Runner) RunOne(ctx context.Context, s *session.Session, sc Scenario) Result {
	log := s.Log()
	persona := string(sc.Persona())
	s.Begin(sc.Name())

	if tr, ok := log.(report.TestReporter); ok {
		tr.StartTest(sc.Name(), map[string]string{
			"persona": persona,
			"suite":   "Sauce Demo Purchase Flow Tests",
		})
	}
	r.logger.Info("Executing scenario", zap.String("scenario", sc.Name()), zap.String("persona", persona))

	start := time.Now()
	err := r.setup(ctx, s)
	if err == nil {
		runCtx, cancel := context.WithTimeout(ctx, sc.Timeout())
		err = sc.Run(runCtx, s)
		if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("scenario timed out after %s: %w", sc.Timeout(), err)
		}
		cancel()
	}
	if err != nil {
		log.Error(fmt.Sprintf("Scenario %s failed", sc.Name()), err)
	}
	r.teardown(ctx, s)
	duration := time.Since(start)

	if tr, ok := log.(report.TestReporter); ok {
		if werr := tr.EndTest(err); werr != nil {
			r.logger.Warn("Could not write test result", zap.String("scenario", sc.Name()), zap.Error(werr))
		}
	}
	r.metrics.ObserveScenario(sc.Name(), persona, duration, err)

	if err != nil {
		r.logger.Error("Scenario failed", zap.String("scenario", sc.Name()), zap.Duration("duration", duration), zap.Error(err))
	} else {
		r.logger.Info("Scenario passed", zap.String("scenario", sc.Name()), zap.Duration("duration", duration))
	}
	res := Result{Scenario: sc.Name(), Persona: persona, Duration: duration, Err: err}
	if r.onResult != nil {
		r.onResult(res)
	}
	return res
}

// setup launches a new browser window and waits for it to open.
func (r *Runner) setup(ctx context.Context, s *session.Session) error {
	c := s.Client()
	if err := c.ExecOnShell(ctx, s.LaunchCommand()); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	if w, ok := c.(windowed); ok {
		open := func(context.Context) (bool, error) { return w.WindowOpen(), nil }
		if err := automation.WaitUntil(ctx, open, s.Backoff(r.window)); err != nil {
			return fmt.Errorf("browser window did not open: %w", err)
		}
	}
	s.Log().Info("New browser instance started")
	return nil
}

// teardown closes the window. Failures are logged, never returned.
func (r *Runner) teardown(ctx context.Context, s *session.Session) {
	// The run context may already be done; closing must still happen.
	ctx = context.WithoutCancel(ctx)
	if err := s.Client().PressTwoKeys(ctx, "alt", "f4"); err != nil {
		r.logger.Warn("Could not close browser window", zap.Error(err))
		return
	}
	s.Log().Info("Browser instance closed")
}

// Run executes scenarios in order on one connected session. A cancelled
// context stops the run before the next scenario.
func (r *Runner) Run(ctx context.Context, s *session.Session, scs []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scs))
	for _, sc := range scs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, r.RunOne(ctx, s, sc))
	}
	r.finalCleanup(ctx, s)
	return results, nil
}

func (r *Runner) finalCleanup(ctx context.Context, s *session.Session) {
	if err := s.Client().PressTwoKeys(context.WithoutCancel(ctx), "alt", "f4"); err != nil {
		r.logger.Debug("Final cleanup", zap.Error(err))
		return
	}
	s.Log().Info("Final browser cleanup completed")
}

// RunParallel spreads scenarios over up to workers independent sessions.
// Each scenario gets its own session from open, connected for the run and
// disconnected afterwards. Results keep the order of scs.
func (r *Runner) RunParallel(ctx context.Context, workers int, open SessionFactory, scs []Scenario) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(scs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sc := range scs {
		g.Go(func() error {
			res := r.runIsolated(gctx, open, sc)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			// Scenario failures are results, not group errors; only a
			// cancelled run stops the others.
			return gctx.Err()
		})
	}
	err := g.Wait()
	return results, err
}

func (r *Runner) runIsolated(ctx context.Context, open SessionFactory, sc Scenario) Result {
	fail := func(err error) Result {
		res := Result{Scenario: sc.Name(), Persona: string(sc.Persona()), Err: err}
		r.metrics.ObserveScenario(sc.Name(), res.Persona, 0, err)
		if r.onResult != nil {
			r.onResult(res)
		}
		return res
	}
	s, err := open(ctx)
	if err != nil {
		return fail(fmt.Errorf("open session: %w", err))
	}
	if err := s.Connect(ctx); err != nil {
		return fail(err)
	}
	defer func() {
		if err := s.Disconnect(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("Could not disconnect session", zap.String("scenario", sc.Name()), zap.Error(err))
		}
	}()
	return r.RunOne(ctx, s, sc)
}
