package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deskhive",
	Short: "Desktop application launcher and instance supervisor",
	Long: `Deskhive - desktop application launcher and instance supervisor

A runtime core that launches configured applications, tracks every live
instance against OS process and window facts, and keeps launcher state
reconciled with reality:
- Launch dispatch with per-kind deduplication and process adoption
- Instance registry with a starting/running/active lifecycle state machine
- Periodic reconciliation against process liveness, memory, and windows
- Window resolution heuristics and process-identity migration
- Graceful-then-forced mass shutdown
- Prometheus metrics and a loopback management API

Examples:
  deskhive serve                     # Start the supervisor daemon
  deskhive serve --watch             # Reload the catalog on file change
  deskhive check-config              # Validate configuration and exit`,
	Version: version,
	// Default to serve command if no subcommand specified
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkConfigCmd)
}
