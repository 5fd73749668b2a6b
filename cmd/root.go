// =============================================================================
// Metadata Deployer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// attaches to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (deployer)
//   ├── runCmd      (deployer run)       import, package, optionally deploy
//   ├── packageCmd  (deployer package)   rebuild descriptors from records
//   ├── deployCmd   (deployer deploy)    deploy existing descriptors
//   ├── validateCmd (deployer validate)  check config and import files
//   └── versionCmd  (deployer version)
//
// EXIT STATUS:
//   0 when the run recorded no error entries, 1 otherwise. A panic anywhere
//   below Execute is logged, the report is still written, and the exit
//   status is 1.
//
// INTERRUPTS:
//   The first Ctrl+C cancels the run: running commands are killed and the
//   report is still written. A second Ctrl+C exits at once with status 130.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging regardless of logLevel.
var verbose bool

// assumeYes skips the operator prompts.
var assumeYes bool

// exitCode is set by the command that ran.
var exitCode int

// forceExit ends the process on a second interrupt.
var forceExit = os.Exit

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "deployer",
	Short: "Metadata Deployer - Turn CSV rows into deployed custom metadata records",
	Long: `Metadata Deployer converts CSV or Excel exports into custom metadata
records, bundles them into package descriptors and deploys them with the sfdx
CLI.

Each import file is named after its type, e.g. Country_Setting__mdt.csv, and
holds one record per row keyed on DeveloperName.

Example Usage:
  deployer run                       # Import, package and (if configured) deploy
  deployer run --config ./prod.yaml  # Use another configuration file
  deployer run --yes --no-deploy     # Unattended, stop before deploying
  deployer package                   # Rebuild package_*.xml from existing records
  deployer deploy                    # Deploy the existing package_*.xml files
  deployer validate                  # Check configuration and import files`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI and exits with the run's status. It is called once by
// main.main().
func Execute() {
	os.Exit(execute())
}

func execute() (code int) {
	ctx, stop := interruptContext(context.Background())
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			code = recoverSession(r)
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return exitCode
}

// interruptContext returns a context cancelled by the first interrupt. A
// second interrupt calls forceExit(130). stop releases the signal handler.
func interruptContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigs:
			fmt.Fprintln(os.Stderr, "Interrupted, finishing up. Press Ctrl+C again to exit immediately.")
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigs:
			forceExit(130)
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
			cancel()
		})
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.json",
		"Path to the configuration file (.json with comments, .yaml or .yml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&assumeYes,
		"yes",
		"y",
		false,
		"Do not wait for a key press before starting or after a failure",
	)
}
