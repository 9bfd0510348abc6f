// Package config reads the browser test settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	appconfig "github.com/gotrs-io/saucedemo-e2e/internal/config"
)

// TestConfig holds all configuration for browser tests.
type TestConfig struct {
	// BaseURL of the shop under test. Empty serves the bundled demo shop.
	BaseURL       string
	Backend       string
	Timeout       time.Duration
	Headless      bool
	SlowMo        time.Duration
	Screenshots   bool
	ScreenshotDir string
}

// GetConfig returns the test configuration from environment variables,
// after loading .env.
func GetConfig() *TestConfig {
	appconfig.LoadDotEnv()

	backend := os.Getenv("E2E_BACKEND")
	if backend == "" {
		backend = "playwright"
	}
	timeout := 30 * time.Second
	if d, err := time.ParseDuration(os.Getenv("E2E_TIMEOUT")); err == nil && d > 0 {
		timeout = d
	}
	var slowMo time.Duration
	if ms, err := strconv.Atoi(os.Getenv("SLOW_MO")); err == nil {
		slowMo = time.Duration(ms) * time.Millisecond
	}
	dir := os.Getenv("SCREENSHOT_DIR")
	if dir == "" {
		dir = "./test-results/screenshots"
	}

	return &TestConfig{
		BaseURL:       os.Getenv("E2E_BASE_URL"),
		Backend:       backend,
		Timeout:       timeout,
		Headless:      os.Getenv("HEADLESS") != "false",
		SlowMo:        slowMo,
		Screenshots:   os.Getenv("SCREENSHOTS") != "false",
		ScreenshotDir: dir,
	}
}

// UsesDemoShop reports whether the tests serve the shop themselves.
func (c *TestConfig) UsesDemoShop() bool {
	return c.BaseURL == ""
}

// Apply copies the browser settings onto an application configuration.
func (c *TestConfig) Apply(cfg *appconfig.Config) {
	cfg.Browser.Backend = c.Backend
	cfg.Browser.Headless = c.Headless
	cfg.Browser.SlowMo = c.SlowMo
	cfg.Browser.ScreenshotDir = c.ScreenshotDir
	cfg.Wait.Landmark = c.Timeout
	if c.BaseURL != "" {
		cfg.TestData.BaseURL = c.BaseURL
	}
}
