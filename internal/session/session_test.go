package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/automation/simulated"
	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/metrics"
	"github.com/gotrs-io/saucedemo-e2e/internal/report"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fastWait = config.WaitConfig{
	Implicit:       200 * time.Millisecond,
	Landmark:       200 * time.Millisecond,
	Settle:         50 * time.Millisecond,
	PollInitial:    5 * time.Millisecond,
	PollMax:        20 * time.Millisecond,
	PollMultiplier: 1.5,
}

func newSession(t *testing.T, log report.Logger, rec *metrics.Recorder) *session.Session {
	t.Helper()
	sim := simulated.New(simulated.Options{Store: shop.NewStore()})
	desk := automation.NewDesktop(sim, automation.Options{LaunchCommand: "start chrome"})
	s := session.New(session.Options{
		Client:  desk,
		Logger:  log,
		Wait:    fastWait,
		Metrics: rec,
	})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() { _ = s.Disconnect(context.Background()) })
	return s
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "NotStarted", session.NotStarted.String())
	assert.Equal(t, "CheckoutFormFilled", session.CheckoutFormFilled.String())
	assert.Equal(t, "Finished", session.Finished.String())
	assert.Equal(t, "Stage(42)", session.Stage(42).String())
}

func TestAdvanceAndRequire(t *testing.T) {
	s := session.New(session.Options{})
	assert.Equal(t, session.NotStarted, s.Stage())

	require.ErrorIs(t, s.Require(session.LoggedIn), session.ErrStageOrder)
	require.NoError(t, s.Advance(session.SiteLoaded))
	require.NoError(t, s.Advance(session.SiteLoaded), "staying put is allowed")
	require.NoError(t, s.Advance(session.InCart), "skipping ahead is allowed")
	require.NoError(t, s.Require(session.LoggedIn))

	err := s.Advance(session.LoggedIn)
	require.ErrorIs(t, err, session.ErrStageRegression)
	assert.Equal(t, session.InCart, s.Stage())

	s.Begin("next test")
	assert.Equal(t, session.NotStarted, s.Stage())
	assert.Equal(t, "next test", s.Test())
}

func TestDefaults(t *testing.T) {
	s := session.New(session.Options{})
	assert.Equal(t, "start chrome", s.LaunchCommand())
	assert.Equal(t, 10*time.Second, s.ImplicitWait())
	assert.Equal(t, 30*time.Second, s.LandmarkWait())
	assert.Equal(t, 3*time.Second, s.SettleWait())
	assert.NotNil(t, s.Log())
}

func TestBackoffFollowsWaitConfig(t *testing.T) {
	s := session.New(session.Options{Wait: fastWait})
	b := s.Backoff(time.Second)
	assert.Equal(t, 5*time.Millisecond, b.Initial)
	assert.Equal(t, 20*time.Millisecond, b.Max)
	assert.Equal(t, 1.5, b.Multiplier)
	assert.Equal(t, time.Second, b.Timeout)
}

type stepLog struct {
	*report.Memory
	started []string
	ended   []error
}

func (l *stepLog) StartStep(name string) { l.started = append(l.started, name) }
func (l *stepLog) EndStep(err error)     { l.ended = append(l.ended, err) }

func TestStepReportsAndRecords(t *testing.T) {
	log := &stepLog{Memory: report.NewMemory()}
	rec := metrics.New()
	s := session.New(session.Options{Logger: log, Metrics: rec})
	ctx := context.Background()

	require.NoError(t, s.Step(ctx, "Login", func(context.Context) error { return nil }))
	boom := errors.New("boom")
	err := s.Step(ctx, "Checkout", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"Login", "Checkout"}, log.started)
	require.Len(t, log.ended, 2)
	assert.NoError(t, log.ended[0])
	assert.ErrorIs(t, log.ended[1], boom)

	steps, err := rec.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, steps)
	assert.Equal(t, 2, testutil.CollectAndCount(rec.Registry(), "saucedemo_steps_total"))
}

func TestStepWithoutStepReporter(t *testing.T) {
	s := session.New(session.Options{Logger: report.NewMemory()})
	called := false
	require.NoError(t, s.Step(context.Background(), "plain", func(context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestExpectAndAppears(t *testing.T) {
	s := newSession(t, report.NewMemory(), nil)
	ctx := context.Background()
	c := s.Client()
	require.NoError(t, c.ExecOnShell(ctx, "start chrome"))
	require.NoError(t, c.Type(ctx, "https://www.saucedemo.com/"))
	require.NoError(t, c.PressKey(ctx, "enter"))

	require.NoError(t, s.Expect(ctx, automation.Text("Swag Labs")))

	err := s.ExpectWithin(ctx, automation.Text("Nowhere to be seen"), 30*time.Millisecond)
	require.Error(t, err)
	assert.True(t, automation.IsAssertion(err))

	ok, err := s.Appears(ctx, automation.Text("Login"), 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Appears(ctx, automation.Text("Epic sadface"), 30*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := s.ExpectAny(ctx, automation.Text("Products"), automation.Text("Login"))
	require.NoError(t, err)
	assert.Equal(t, automation.Text("Login"), found)
}

func TestClickAndTypeFillsField(t *testing.T) {
	s := newSession(t, report.NewMemory(), nil)
	ctx := context.Background()
	c := s.Client()
	require.NoError(t, c.ExecOnShell(ctx, "start chrome"))
	require.NoError(t, c.Type(ctx, "https://www.saucedemo.com/"))
	require.NoError(t, c.PressKey(ctx, "enter"))

	require.NoError(t, s.ClickAndType(ctx, "Username", "standard_user"))
	ok, err := c.Exists(ctx, automation.Text("standard_user"))
	require.NoError(t, err)
	assert.True(t, ok)

	err = s.ClickAndType(ctx, "Shoe size", "42")
	assert.True(t, automation.IsAssertion(err))
}

func TestScreenshot(t *testing.T) {
	s := newSession(t, report.NewMemory(), nil)
	ctx := context.Background()
	require.NoError(t, s.Client().ExecOnShell(ctx, "start chrome"))

	shot, ok, err := s.Screenshot(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, string(shot), "screen: blank")
}
