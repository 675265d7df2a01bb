// Package commands implements the swarmerctl operator CLI, grounded on
// cmd/sett/commands/root.go's cobra wiring (a package-level rootCmd,
// subcommands self-registering via init, version info threaded in from
// main).
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	serverAddr string
)

var rootCmd = &cobra.Command{
	Use:   "swarmerctl",
	Short: "swarmerctl submits jobs to a swarmer daemon and inspects their status",
	Long: `swarmerctl is the operator CLI for swarmer, the container job
scheduling and lifecycle daemon. It submits jobs, polls job status, and
watches a job through to completion.`,
	Version: version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo threads build metadata from main into the root
// command's --version output.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8500", "swarmer daemon address")
}
