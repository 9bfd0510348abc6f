// Package session ties one automation client to its reporting, fixtures
// and flow state. Page workflows receive a *Session instead of reaching
// for a process-wide client, so independent sessions can run side by side.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/metrics"
	"github.com/gotrs-io/saucedemo-e2e/internal/report"
)

// Options configures a Session.
type Options struct {
	Client        automation.Client
	Logger        report.Logger
	TestData      config.TestData
	Wait          config.WaitConfig
	LaunchCommand string
	Metrics       *metrics.Recorder
	Zap           *zap.Logger
}

// Session is one connection to the automation backend plus the state of
// the test currently using it. A Session is driven by one goroutine.
type Session struct {
	client  automation.Client
	log     report.Logger
	data    config.TestData
	wait    config.WaitConfig
	launch  string
	metrics *metrics.Recorder
	zap     *zap.Logger

	mu    sync.Mutex
	stage Stage
	test  string
}

// New creates a disconnected session.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = report.NewConsole(nil)
	}
	if opts.Zap == nil {
		opts.Zap = zap.NewNop()
	}
	if opts.LaunchCommand == "" {
		opts.LaunchCommand = "start chrome"
	}
	return &Session{
		client:  opts.Client,
		log:     opts.Logger,
		data:    opts.TestData,
		wait:    opts.Wait,
		launch:  opts.LaunchCommand,
		metrics: opts.Metrics,
		zap:     opts.Zap,
	}
}

// Client returns the automation client the session drives.
func (s *Session) Client() automation.Client { return s.client }

// Log returns the human-readable step log.
func (s *Session) Log() report.Logger { return s.log }

// Data returns the fixture values for the run.
func (s *Session) Data() config.TestData { return s.data }

// LaunchCommand returns the shell command that opens the browser.
func (s *Session) LaunchCommand() string { return s.launch }

// Connect opens the backend connection.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.client.Connect(ctx); err != nil {
		return fmt.Errorf("session connect: %w", err)
	}
	s.zap.Debug("session connected")
	return nil
}

// Disconnect closes the backend connection.
func (s *Session) Disconnect(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("session disconnect: %w", err)
	}
	s.zap.Debug("session disconnected")
	return nil
}

// Begin starts a new test on this session and resets the flow stage.
func (s *Session) Begin(test string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.test = test
	s.stage = NotStarted
}

// Test is the name passed to the last Begin.
func (s *Session) Test() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.test
}

// Stage is the current flow stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Advance moves the flow forward to stage. Skipping stages is allowed;
// going back is not.
func (s *Session) Advance(stage Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stage < s.stage {
		return fmt.Errorf("%w: %s -> %s", ErrStageRegression, s.stage, stage)
	}
	if stage != s.stage {
		s.zap.Debug("stage advanced", zap.Stringer("from", s.stage), zap.Stringer("to", stage))
	}
	s.stage = stage
	return nil
}

// Require fails unless the flow has reached at least stage.
func (s *Session) Require(stage Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage < stage {
		return fmt.Errorf("%w: requires %s, flow is at %s", ErrStageOrder, stage, s.stage)
	}
	return nil
}

// Step runs fn as a named report step and records its duration.
func (s *Session) Step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	sr, nested := s.log.(report.StepReporter)
	if nested {
		sr.StartStep(name)
	}
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if nested {
		sr.EndStep(err)
	}
	s.metrics.ObserveStep(name, elapsed, err)
	s.zap.Debug("step finished", zap.String("step", name), zap.Duration("elapsed", elapsed), zap.Error(err))
	return err
}

// Backoff returns the polling schedule bounded by timeout.
func (s *Session) Backoff(timeout time.Duration) automation.Backoff {
	return automation.Backoff{
		Initial:    s.wait.PollInitial,
		Max:        s.wait.PollMax,
		Multiplier: s.wait.PollMultiplier,
		Timeout:    timeout,
	}
}

// ImplicitWait is how long assertions wait for their locator.
func (s *Session) ImplicitWait() time.Duration { return orDefault(s.wait.Implicit, 10*time.Second) }

// LandmarkWait is how long page loads may take.
func (s *Session) LandmarkWait() time.Duration { return orDefault(s.wait.Landmark, 30*time.Second) }

// SettleWait bounds the non-failing waits after form submissions.
func (s *Session) SettleWait() time.Duration { return orDefault(s.wait.Settle, 3*time.Second) }

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Expect waits up to the implicit wait for loc.
func (s *Session) Expect(ctx context.Context, loc automation.Locator) error {
	return automation.Expect(ctx, s.client, loc, s.Backoff(s.ImplicitWait()))
}

// ExpectWithin waits up to timeout for loc.
func (s *Session) ExpectWithin(ctx context.Context, loc automation.Locator, timeout time.Duration) error {
	return automation.Expect(ctx, s.client, loc, s.Backoff(timeout))
}

// ExpectAny waits up to the implicit wait for one of locs.
func (s *Session) ExpectAny(ctx context.Context, locs ...automation.Locator) (automation.Locator, error) {
	return automation.ExpectAny(ctx, s.client, s.Backoff(s.ImplicitWait()), locs...)
}

// Appears polls for loc up to timeout and reports whether it showed up.
// Only backend failures are returned as errors.
func (s *Session) Appears(ctx context.Context, loc automation.Locator, timeout time.Duration) (bool, error) {
	err := s.ExpectWithin(ctx, loc, timeout)
	switch {
	case err == nil:
		return true, nil
	case automation.IsAssertion(err):
		return false, nil
	default:
		return false, err
	}
}

// Click waits for loc and clicks it.
func (s *Session) Click(ctx context.Context, loc automation.Locator) error {
	if err := s.Expect(ctx, loc); err != nil {
		return err
	}
	return s.client.Click(ctx, loc)
}

// ClickAndType clicks the field showing label and types value into it.
func (s *Session) ClickAndType(ctx context.Context, label, value string) error {
	if err := s.Click(ctx, automation.Text(label)); err != nil {
		return err
	}
	return s.client.Type(ctx, value)
}

// Screenshot captures the screen when the client supports it.
func (s *Session) Screenshot(ctx context.Context) ([]byte, bool, error) {
	sc, ok := s.client.(automation.Screenshotter)
	if !ok {
		return nil, false, nil
	}
	shot, err := sc.Screenshot(ctx)
	return shot, true, err
}
