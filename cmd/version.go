// =============================================================================
// Metadata Deployer - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   deployer version
//
// OUTPUT:
//   Metadata Deployer
//   Version:     1.0.0
//   Build Date:  2024-01-01
//   Go Version:  go1.24.0
//   API Version: 58.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/ginjaninja78/metadata-deployer/internal/xmlwriter"
	"github.com/spf13/cobra"
)

// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/ginjaninja78/metadata-deployer/cmd.Version=1.0.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(titleStyle.Render("Metadata Deployer"))
		fmt.Printf("Version:     %s\n", Version)
		fmt.Printf("Build Date:  %s\n", BuildDate)
		fmt.Printf("Go Version:  %s\n", runtime.Version())
		fmt.Printf("API Version: %s\n", xmlwriter.APIVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
