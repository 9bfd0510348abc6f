package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

//go:embed default.yaml
var defaultYAML []byte

// EnvPrefix is the prefix for environment variable overrides, e.g.
// SAUCEDEMO_BROWSER_BACKEND=cdp.
const EnvPrefix = "SAUCEDEMO"

var (
	cfg   *Config
	v     *viper.Viper
	once  sync.Once
	mu    sync.RWMutex
	watch sync.Once
)

// Config represents the suite configuration
type Config struct {
	App      AppConfig         `mapstructure:"app"`
	Browser  BrowserConfig     `mapstructure:"browser"`
	Wait     WaitConfig        `mapstructure:"wait"`
	Elements map[string]string `mapstructure:"elements"`
	TestData TestData          `mapstructure:"testdata"`
	Report   ReportConfig      `mapstructure:"report"`
	Logging  LoggingConfig     `mapstructure:"logging"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
	Suite    SuiteConfig       `mapstructure:"suite"`
	DemoSite DemoSiteConfig    `mapstructure:"demosite"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type BrowserConfig struct {
	Backend        string        `mapstructure:"backend"`
	LaunchCommand  string        `mapstructure:"launch_command"`
	Headless       bool          `mapstructure:"headless"`
	SlowMo         time.Duration `mapstructure:"slow_mo"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	ExecutablePath string        `mapstructure:"executable_path"`
	ScreenshotDir  string        `mapstructure:"screenshot_dir"`
}

// WaitConfig controls condition polling. Implicit is the window an
// assertion waits for its locator, Landmark the window for page loads.
type WaitConfig struct {
	Implicit       time.Duration `mapstructure:"implicit"`
	Landmark       time.Duration `mapstructure:"landmark"`
	Settle         time.Duration `mapstructure:"settle"`
	PollInitial    time.Duration `mapstructure:"poll_initial"`
	PollMax        time.Duration `mapstructure:"poll_max"`
	PollMultiplier float64       `mapstructure:"poll_multiplier"`
}

type ReportConfig struct {
	Sinks        []string `mapstructure:"sinks"`
	ResultsDir   string   `mapstructure:"results_dir"`
	Environment  bool     `mapstructure:"environment"`
	SettingsPath string   `mapstructure:"settings_path"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"`
}

type SuiteConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	ScenarioTimeout time.Duration `mapstructure:"scenario_timeout"`
	Parallel        int           `mapstructure:"parallel"`
	Schedule        string        `mapstructure:"schedule"`
}

type DemoSiteConfig struct {
	Addr             string        `mapstructure:"addr"`
	LockedOutMessage string        `mapstructure:"locked_out_message"`
	GlitchDelay      time.Duration `mapstructure:"glitch_delay"`
}

// newViper builds a viper instance holding the embedded defaults, the
// optional config.yaml found in configPath and the environment overrides.
func newViper(configPath string) (*viper.Viper, error) {
	nv := viper.New()
	nv.SetConfigType("yaml")

	if err := nv.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return nil, fmt.Errorf("failed to read default config: %w", err)
	}

	if configPath != "" {
		nv.SetConfigName("config")
		nv.AddConfigPath(configPath)
		if err := nv.MergeInConfig(); err != nil {
			// It's OK if config.yaml doesn't exist
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to merge config: %w", err)
			}
		}
	}

	nv.SetEnvPrefix(EnvPrefix)
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	return nv, nil
}

func unmarshal(nv *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := nv.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return c, nil
}

// New builds a fresh configuration without touching the package state.
func New(configPath string) (*Config, error) {
	nv, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return unmarshal(nv)
}

// Load initializes the package configuration once
func Load(configPath string) error {
	var err error
	once.Do(func() {
		var nv *viper.Viper
		nv, err = newViper(configPath)
		if err != nil {
			return
		}
		var c *Config
		if c, err = unmarshal(nv); err != nil {
			return
		}
		mu.Lock()
		v, cfg = nv, c
		mu.Unlock()
	})
	return err
}

// Watch reloads the configuration when the merged config file changes.
// onChange receives every successfully reloaded configuration.
func Watch(onChange func(*Config)) {
	mu.RLock()
	nv := v
	mu.RUnlock()
	if nv == nil || nv.ConfigFileUsed() == "" {
		return
	}
	watch.Do(func() {
		nv.OnConfigChange(func(e fsnotify.Event) {
			newCfg, err := unmarshal(nv)
			if err != nil {
				fmt.Printf("Failed to reload config %s: %v\n", e.Name, err)
				return
			}
			mu.Lock()
			cfg = newCfg
			mu.Unlock()
			if onChange != nil {
				onChange(newCfg)
			}
		})
		nv.WatchConfig()
	})
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Settings returns the effective settings as a nested map.
func Settings() map[string]interface{} {
	mu.RLock()
	defer mu.RUnlock()
	if v == nil {
		return nil
	}
	return v.AllSettings()
}

// LoadFromFile loads configuration from a specific file on top of the defaults
func LoadFromFile(configFile string) error {
	nv, err := newViper("")
	if err != nil {
		return err
	}
	nv.SetConfigFile(configFile)
	if err := nv.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	c, err := unmarshal(nv)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	v, cfg = nv, c
	return nil
}
