package helpers

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation/backend"
	appconfig "github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/demosite"
	"github.com/gotrs-io/saucedemo-e2e/internal/report"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
	"github.com/gotrs-io/saucedemo-e2e/tests/e2e/config"
)

// BrowserHelper provides browser setup and teardown for tests
type BrowserHelper struct {
	Config  *config.TestConfig
	App     *appconfig.Config
	Session *session.Session
	Site    *httptest.Server
	t       *testing.T
}

// NewBrowserHelper creates a new browser helper instance
func NewBrowserHelper(t *testing.T) *BrowserHelper {
	return &BrowserHelper{
		Config: config.GetConfig(),
		t:      t,
	}
}

// Setup serves the demo shop when no base URL is configured, then
// connects a session on the configured backend.
func (b *BrowserHelper) Setup() error {
	app, err := appconfig.New("")
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	b.Config.Apply(app)
	b.App = app

	logger := zaptest.NewLogger(b.t)
	if b.Config.UsesDemoShop() {
		srv, err := demosite.New(demosite.OptionsFromConfig(app, logger.Named("demosite")))
		if err != nil {
			return fmt.Errorf("could not build demo shop: %w", err)
		}
		b.Site = httptest.NewServer(srv.Handler())
		app.TestData.BaseURL = b.Site.URL + "/"
		app.TestData.LockedUserError = app.DemoSite.LockedOutMessage
		b.useDemoAccounts()
	}

	client, _, err := backend.Open(app, logger)
	if err != nil {
		return err
	}
	b.Session = session.New(session.Options{
		Client:        client,
		Logger:        report.NewConsole(testWriter{b.t}),
		TestData:      app.TestData,
		Wait:          app.Wait,
		LaunchCommand: app.Browser.LaunchCommand,
		Zap:           logger,
	})
	if err := b.Session.Connect(context.Background()); err != nil {
		return fmt.Errorf("could not start %s browser: %w", app.Browser.Backend, err)
	}
	return nil
}

// RequireBrowser runs Setup and skips the test when no browser can be
// started on this machine.
func (b *BrowserHelper) RequireBrowser() *session.Session {
	b.t.Helper()
	if err := b.Setup(); err != nil {
		b.TearDown()
		b.t.Skipf("browser unavailable: %v", err)
	}
	b.t.Cleanup(b.TearDown)
	return b.Session
}

// TearDown closes the browser and cleans up resources
func (b *BrowserHelper) TearDown() {
	if b.Session != nil {
		if b.t.Failed() && b.Config.Screenshots {
			b.screenshot()
		}
		_ = b.Session.Disconnect(context.Background())
		b.Session = nil
	}
	if b.Site != nil {
		b.Site.Close()
		b.Site = nil
	}
}

func (b *BrowserHelper) screenshot() {
	shot, ok, err := b.Session.Screenshot(context.Background())
	if err != nil || !ok {
		return
	}
	name := strings.NewReplacer("/", "_", " ", "_").Replace(b.t.Name())
	path := filepath.Join(b.Config.ScreenshotDir, fmt.Sprintf("%s_%d.png", name, time.Now().Unix()))
	if err := os.MkdirAll(b.Config.ScreenshotDir, 0o755); err != nil {
		return
	}
	if err := os.WriteFile(path, shot, 0o644); err == nil {
		b.t.Logf("Screenshot saved to %s", path)
	}
}

// useDemoAccounts fills unset persona variables with the demo shop's
// accounts.
func (b *BrowserHelper) useDemoAccounts() {
	for _, p := range appconfig.AllPersonas() {
		if os.Getenv(p.UsernameEnv()) != "" {
			continue
		}
		for _, a := range shop.Accounts() {
			if strings.HasPrefix(a.Username, personaPrefix(p)) {
				b.t.Setenv(p.UsernameEnv(), a.Username)
			}
		}
	}
	if os.Getenv(appconfig.PasswordEnv) == "" {
		b.t.Setenv(appconfig.PasswordEnv, shop.Password)
	}
}

func personaPrefix(p appconfig.Persona) string {
	switch p {
	case appconfig.Locked:
		return "locked_out"
	case appconfig.Glitch:
		return "performance_glitch"
	}
	return string(p) + "_user"
}

// testWriter sends console report lines to the test log.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
