package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New("")
	require.NoError(t, err)

	t.Run("browser defaults", func(t *testing.T) {
		assert.Equal(t, "playwright", cfg.Browser.Backend)
		assert.Equal(t, "start chrome", cfg.Browser.LaunchCommand)
		assert.True(t, cfg.Browser.Headless)
		assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
	})

	t.Run("wait defaults", func(t *testing.T) {
		assert.Equal(t, 10*time.Second, cfg.Wait.Implicit)
		assert.Equal(t, 30*time.Second, cfg.Wait.Landmark)
		assert.Equal(t, 100*time.Millisecond, cfg.Wait.PollInitial)
		assert.InDelta(t, 1.6, cfg.Wait.PollMultiplier, 0.0001)
	})

	t.Run("test data matches the built-in fixture", func(t *testing.T) {
		assert.Equal(t, DefaultTestData(), cfg.TestData)
	})

	t.Run("named elements", func(t *testing.T) {
		assert.Equal(t, ".shopping_cart_link", cfg.Elements["cart1"])
	})

	t.Run("suite defaults", func(t *testing.T) {
		assert.Equal(t, time.Hour, cfg.Suite.Timeout)
		assert.Equal(t, 1, cfg.Suite.Parallel)
		assert.Equal(t, []string{"console"}, cfg.Report.Sinks)
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SAUCEDEMO_BROWSER_BACKEND", "simulated")
	t.Setenv("SAUCEDEMO_WAIT_IMPLICIT", "250ms")
	t.Setenv("SAUCEDEMO_TESTDATA_PRODUCT_NAME", "Sauce Labs Onesie")

	cfg, err := New("")
	require.NoError(t, err)

	assert.Equal(t, "simulated", cfg.Browser.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Wait.Implicit)
	assert.Equal(t, "Sauce Labs Onesie", cfg.TestData.ProductName)
}

func TestConfigFileMerge(t *testing.T) {
	dir := t.TempDir()
	content := []byte("browser:\n  backend: cdp\nsuite:\n  parallel: 3\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := New(dir)
	require.NoError(t, err)

	assert.Equal(t, "cdp", cfg.Browser.Backend)
	assert.Equal(t, 3, cfg.Suite.Parallel)
	// untouched keys keep their defaults
	assert.Equal(t, "start chrome", cfg.Browser.LaunchCommand)
}

func TestMissingConfigFileIsNotAnError(t *testing.T) {
	cfg, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "playwright", cfg.Browser.Backend)
}

func TestMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("browser: [oops"), 0o644))

	_, err := New(dir)
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(file, []byte("app:\n  env: ci\n"), 0o644))

	require.NoError(t, LoadFromFile(file))
	assert.Equal(t, "ci", Get().App.Env)
	assert.NotEmpty(t, Settings())

	assert.Error(t, LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
