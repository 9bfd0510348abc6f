package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/demosite"
	"github.com/gotrs-io/saucedemo-e2e/internal/observability"
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo shop",
	Long: `Serve runs a local copy of the Swag Labs shop with the same personas,
products and checkout flow, so the suite can run without reaching
saucedemo.com.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		addr := cfg.DemoSite.Addr
		if serveAddrFlag != "" {
			addr = serveAddrFlag
		}
		srv, err := demosite.New(demosite.OptionsFromConfig(cfg, observability.GetLogger().Named("demosite")))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr, func(a net.Addr) {
			fmt.Fprintf(cmd.OutOrStdout(), "🛒 Demo shop listening on http://%s/\n", a)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "Listen address (overrides demosite.addr)")
	rootCmd.AddCommand(serveCmd)
}
