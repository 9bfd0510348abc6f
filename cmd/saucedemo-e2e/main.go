package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation/backend"
	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/observability"
	"github.com/gotrs-io/saucedemo-e2e/internal/suite"
	"github.com/gotrs-io/saucedemo-e2e/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "saucedemo-e2e",
	Short: "Swag Labs purchase flow tests",
	Long: `Swag Labs end-to-end suite

Drives the Sauce Demo shop through a browser with one scenario per user
persona: purchases for the standard, glitch, problem and error users and
the lockout check for the locked out user.

Credentials come from the environment or a .env file:
  standardUserName, lockedUserName, errorUser, problemUser, glitchUser,
  commonPassword`,
	Version:           version.String(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

var (
	configDirFlag string
	backendFlag   string
	logLevelFlag  string
	envFileFlag   []string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config", ".", "Directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Browser backend ("+strings.Join(backend.Names(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level")
	rootCmd.PersistentFlags().StringSliceVar(&envFileFlag, "env-file", nil, "Credential files to load (default .env)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "saucedemo-e2e %s\n", version.GetInfo().Full())
	},
}

// loadConfig prepares the process configuration and logger for every
// subcommand.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.Load(configDirFlag); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.Get()
	if backendFlag != "" {
		cfg.Browser.Backend = backendFlag
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	config.LoadDotEnv(envFileFlag...)
	observability.Initialize(cfg.Logging, "saucedemo")
	return nil
}

func newSuite(cmd *cobra.Command) *suite.Suite {
	return suite.New(config.Get(), suite.Options{
		Logger:  observability.GetLogger(),
		Console: cmd.OutOrStdout(),
	})
}

func main() {
	err := rootCmd.Execute()
	observability.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
