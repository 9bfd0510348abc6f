//go:build e2e

package e2e

import (
	"testing"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation/backend"
	appconfig "github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/tests/e2e/config"
)

// TestSetup verifies the browser test environment is configured correctly
func TestSetup(t *testing.T) {
	cfg := config.GetConfig()
	t.Logf("Backend: %s (known: %v)", cfg.Backend, backend.Names())
	if cfg.UsesDemoShop() {
		t.Log("Base URL: bundled demo shop")
	} else {
		t.Logf("Base URL: %s", cfg.BaseURL)
		for _, p := range appconfig.AllPersonas() {
			if p.Credentials().Username == "" {
				t.Errorf("%s not set", p.UsernameEnv())
			}
		}
		if p := appconfig.Standard.Credentials(); p.Password == "" {
			t.Errorf("%s not set", appconfig.PasswordEnv)
		}
	}
}
