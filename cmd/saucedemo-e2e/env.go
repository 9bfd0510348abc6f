package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var writeEnvFlag bool

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the environment block recorded with test results",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSuite(cmd)
		log, err := s.Reporter()
		if err != nil {
			return err
		}
		if !writeEnvFlag {
			s.Config().Report.Environment = false
		}
		info, err := s.WriteEnvironment(log)
		if err != nil {
			return err
		}
		props := info.Properties()
		for _, k := range info.Keys() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, props[k])
		}
		return nil
	},
}

func init() {
	envCmd.Flags().BoolVar(&writeEnvFlag, "write", false, "Also write it to the configured report sinks")
	rootCmd.AddCommand(envCmd)
}
