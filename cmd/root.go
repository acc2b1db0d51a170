package cmd

import (
	"github.com/spf13/cobra"
)

const app = "skillroad"

var (
	// Used for flags.
	cfgFile  string
	flagJSON bool
	flagDbg  bool

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skillroad is the learning-roadmap and job-market backend",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (environment variables are used when unset)")
	rootCmd.PersistentFlags().BoolVarP(&flagDbg, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "json format for logging")
}
