// Package backend builds the automation client selected in configuration.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/automation/cdpdriver"
	"github.com/gotrs-io/saucedemo-e2e/internal/automation/pwdriver"
	"github.com/gotrs-io/saucedemo-e2e/internal/automation/roddriver"
	"github.com/gotrs-io/saucedemo-e2e/internal/automation/simulated"
	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

// Backend names accepted in browser.backend.
const (
	Playwright = "playwright"
	CDP        = "cdp"
	Rod        = "rod"
	Simulated  = "simulated"
)

type factory func(cfg *config.Config) automation.Driver

var factories = map[string]factory{
	Playwright: func(cfg *config.Config) automation.Driver {
		return pwdriver.New(pwdriver.Options{
			Headless:       cfg.Browser.Headless,
			SlowMo:         cfg.Browser.SlowMo,
			Width:          cfg.Browser.ViewportWidth,
			Height:         cfg.Browser.ViewportHeight,
			ExecutablePath: cfg.Browser.ExecutablePath,
			Timeout:        cfg.Wait.Landmark,
		})
	},
	CDP: func(cfg *config.Config) automation.Driver {
		return cdpdriver.New(cdpdriver.Options{
			Headless:       cfg.Browser.Headless,
			Width:          cfg.Browser.ViewportWidth,
			Height:         cfg.Browser.ViewportHeight,
			ExecutablePath: cfg.Browser.ExecutablePath,
			ActionTimeout:  cfg.Wait.Landmark,
		})
	},
	Rod: func(cfg *config.Config) automation.Driver {
		return roddriver.New(roddriver.Options{
			Headless: cfg.Browser.Headless,
			Width:    cfg.Browser.ViewportWidth,
			Height:   cfg.Browser.ViewportHeight,
			Bin:      cfg.Browser.ExecutablePath,
		})
	},
	Simulated: func(cfg *config.Config) automation.Driver {
		return simulated.New(simulated.Options{
			BaseURL: cfg.TestData.BaseURL,
			Store:   SimulatedStore(cfg),
		})
	},
}

// Names lists the known backends.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SimulatedStore is the shop the simulated backend renders. Its lockout
// banner is the configured expectation so the locked-out scenario can
// detect it.
func SimulatedStore(cfg *config.Config) shop.Store {
	return shop.Store{
		LockedOutMessage: cfg.TestData.LockedUserError,
		GlitchDelay:      cfg.DemoSite.GlitchDelay,
	}
}

// NewDriver creates the configured driver without starting it.
func NewDriver(cfg *config.Config) (automation.Driver, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Browser.Backend))
	if name == "" {
		name = Playwright
	}
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown browser backend %q (want one of %s)", cfg.Browser.Backend, strings.Join(Names(), ", "))
	}
	return f(cfg), nil
}

// Open returns a disconnected Desktop client on the configured driver.
func Open(cfg *config.Config, logger *zap.Logger) (*automation.Desktop, automation.Driver, error) {
	driver, err := NewDriver(cfg)
	if err != nil {
		return nil, nil, err
	}
	desktop := automation.NewDesktop(driver, automation.Options{
		LaunchCommand: cfg.Browser.LaunchCommand,
		Elements:      cfg.Elements,
		Logger:        logger,
	})
	return desktop, driver, nil
}
