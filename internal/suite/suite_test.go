package suite_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/scenarios"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
	"github.com/gotrs-io/saucedemo-e2e/internal/suite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func simulatedConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("standardUserName", "standard_user")
	t.Setenv("lockedUserName", "locked_out_user")
	t.Setenv("problemUser", "problem_user")
	t.Setenv("glitchUser", "performance_glitch_user")
	t.Setenv("errorUser", "error_user")
	t.Setenv(config.PasswordEnv, shop.Password)

	cfg, err := config.New("")
	require.NoError(t, err)
	cfg.Browser.Backend = "simulated"
	cfg.DemoSite.GlitchDelay = 40 * time.Millisecond
	cfg.Wait = config.WaitConfig{
		Implicit:       300 * time.Millisecond,
		Landmark:       500 * time.Millisecond,
		Settle:         300 * time.Millisecond,
		PollInitial:    5 * time.Millisecond,
		PollMax:        20 * time.Millisecond,
		PollMultiplier: 1.5,
	}
	cfg.Report.ResultsDir = filepath.Join(t.TempDir(), "allure-results")
	cfg.Report.SettingsPath = filepath.Join(t.TempDir(), "missing.json")
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "metrics", "saucedemo.prom")
	return cfg
}

func newSuite(t *testing.T, cfg *config.Config) (*suite.Suite, *lockedBuffer) {
	t.Helper()
	out := &lockedBuffer{}
	return suite.New(cfg, suite.Options{Logger: zaptest.NewLogger(t), Console: out}), out
}

func TestRunAllScenariosShared(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Metrics.Enabled = true
	s, out := newSuite(t, cfg)

	var seen []string
	results, err := s.Run(context.Background(), nil, func(r scenarios.Result) {
		seen = append(seen, r.Scenario)
	})
	require.NoError(t, err)
	require.Len(t, results, len(s.Registry().Names()))
	for _, r := range results {
		assert.Truef(t, r.Passed(), "%s: %v", r.Scenario, r.Err)
	}
	assert.Len(t, seen, len(results))
	assert.NoError(t, scenarios.Check(results))

	assert.Contains(t, out.String(), "Final browser cleanup completed")
	_, err = os.Stat(cfg.Metrics.Textfile)
	assert.NoError(t, err, "metrics textfile written")
}

func TestRunSelectedParallel(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Suite.Parallel = 2
	s, _ := newSuite(t, cfg)

	names := s.Registry().Names()[:2]
	results, err := s.Run(context.Background(), names, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Contains(t, names, r.Scenario)
		assert.NoError(t, r.Err)
	}
}

func TestRunUnknownScenario(t *testing.T) {
	s, _ := newSuite(t, simulatedConfig(t))

	_, err := s.Run(context.Background(), []string{"nope"}, nil)
	var unknown *scenarios.UnknownScenarioError
	require.ErrorAs(t, err, &unknown)
}

func TestRunUnknownBackend(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Browser.Backend = "netscape"
	s, _ := newSuite(t, cfg)

	_, err := s.Run(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown browser backend")
}

func TestWriteEnvironment(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Report.Sinks = []string{"console", "allure"}
	s, _ := newSuite(t, cfg)

	log, err := s.Reporter()
	require.NoError(t, err)
	info, err := s.WriteEnvironment(log)
	require.NoError(t, err)

	body, err := os.ReadFile(filepath.Join(cfg.Report.ResultsDir, "environment.properties"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Device_ID="+info.DeviceID)
	assert.Contains(t, string(body), "TEST_RUNNER=go test")

	t.Run("disabled", func(t *testing.T) {
		cfg.Report.Environment = false
		cfg.Report.ResultsDir = filepath.Join(t.TempDir(), "off")
		s, _ := newSuite(t, cfg)
		log, err := s.Reporter()
		require.NoError(t, err)
		_, err = s.WriteEnvironment(log)
		require.NoError(t, err)
		assert.NoDirExists(t, cfg.Report.ResultsDir)
	})
}

func TestStartDemoSite(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.DemoSite.Addr = "127.0.0.1:0"
	s, _ := newSuite(t, cfg)

	baseURL, stop, err := s.StartDemoSite(context.Background())
	require.NoError(t, err)
	assert.Equal(t, baseURL, cfg.TestData.BaseURL)

	resp, err := http.Get(baseURL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Swag Labs")

	require.NoError(t, stop())
	http.DefaultClient.CloseIdleConnections()
}

func TestMonitorRound(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Metrics.Enabled = true
	s, _ := newSuite(t, cfg)

	var rounds int
	m, err := s.Monitor("@every 1h", []string{"standard-purchase"}, func(results []scenarios.Result) {
		rounds++
		require.Len(t, results, 1)
		assert.NoError(t, results[0].Err)
	})
	require.NoError(t, err)
	assert.Equal(t, "@every 1h", m.Schedule())

	m.RunOnce(context.Background())
	assert.Equal(t, 1, rounds)
	assert.FileExists(t, cfg.Metrics.Textfile)

	_, err = s.Monitor("", []string{"missing"}, nil)
	assert.Error(t, err)
}
