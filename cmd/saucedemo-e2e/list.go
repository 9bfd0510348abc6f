package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSuite(cmd)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCENARIO\tPERSONA\tUSERNAME VARIABLE\tTIMEOUT")
		for _, sc := range s.Registry().All() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sc.Name(), sc.Persona().DisplayName(), sc.Persona().UsernameEnv(), sc.Timeout())
		}
		return tw.Flush()
	},
}

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Show which persona credentials are set",
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range config.AllPersonas() {
			c := p.Credentials()
			mark := "✅"
			if c.Username == "" || c.Password == "" {
				mark = "❌"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s %s\n", mark, p.DisplayName(), p.UsernameEnv())
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(personasCmd)
}
