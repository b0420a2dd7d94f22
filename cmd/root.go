package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	logPath  string
	verbose  bool
	logLevel = slog.LevelInfo
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "srv6d",
	Short: "SRv6 control-plane daemons",
	Long: `srv6d hosts the three SRv6 control-plane roles: a static-SID
daemon, an IS-IS SRv6 locator/adjacency-SID daemon, and a central
routing-information broker that mirrors installed SIDs to a downstream
Forwarding Plane Manager.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logLevel = slog.LevelDebug
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "daemon", Title: "Daemon Roles"})
	rootCmd.AddGroup(&cobra.Group{ID: "diag", Title: "Diagnostics"})

	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", "", "write a copy of the log to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
