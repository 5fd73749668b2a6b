// =============================================================================
// Metadata Deployer - Main Entry Point
// =============================================================================
//
// USAGE:
//   deployer run        - Import, package and optionally deploy
//   deployer package    - Rebuild package descriptors from existing records
//   deployer deploy     - Deploy existing package descriptors
//   deployer validate   - Check configuration and import files
//   deployer version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Pipeline stages and their supporting packages
//   - pkg/           : Shared file helpers
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/metadata-deployer/cmd"
)

func main() {
	cmd.Execute()
}
