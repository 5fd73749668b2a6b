// =============================================================================
// Metadata Deployer - Run Command
// =============================================================================
//
// This file defines the 'run' command, the full pipeline.
//
// COMMAND USAGE:
//   deployer run [flags]
//
// FLAGS:
//   --deploy     : Deploy the packages even if autoDeployPackage is off
//   --no-deploy  : Stop after writing the packages
//   --yes        : Skip the key press before starting and after failures
//
// PROCESSING PIPELINE:
//   1. Load the configuration (fatal on failure)
//   2. Wait for the operator
//   3. Import: normalize, fetch definitions, generate records, reconcile
//   4. Package: clean the records, write package_<n>.xml
//   5. Deploy the packages, one at a time (optional)
//   6. Write log.txt and errors.txt, print the summary, set the exit status
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/metadata-deployer/internal/converter"
	"github.com/ginjaninja78/metadata-deployer/internal/deployer"
	"github.com/ginjaninja78/metadata-deployer/internal/types"
	"github.com/ginjaninja78/metadata-deployer/internal/xmlwriter"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// forceDeploy deploys regardless of autoDeployPackage.
var forceDeploy bool

// skipDeploy never deploys.
var skipDeploy bool

// =============================================================================
// RUN COMMAND DEFINITION
// =============================================================================

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Import CSV files, build packages and optionally deploy them",
	Long: `The run command processes every import file in sourceDir:

  - Rows are normalized (Label dropped, DeveloperName renamed to Name) and
    written to destDir
  - The type definition is retrieved when fetchMetadataDefinition is set
  - One record file per row is generated into customMetadata
  - The generated records are bundled into package_<n>.xml descriptors

When autoDeployPackage is set (or --deploy is given) the descriptors are then
deployed one at a time. A failure in one file or package is logged and the
run continues; the exit status is 1 if anything failed.`,

	RunE: withSession(runPipeline),
}

func init() {
	runCmd.Flags().BoolVar(
		&forceDeploy,
		"deploy",
		false,
		"Deploy the packages even if autoDeployPackage is off",
	)

	runCmd.Flags().BoolVar(
		&skipDeploy,
		"no-deploy",
		false,
		"Do not deploy, even if autoDeployPackage is on",
	)

	runCmd.MarkFlagsMutuallyExclusive("deploy", "no-deploy")
	rootCmd.AddCommand(runCmd)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runPipeline(ctx context.Context, s *session) error {
	s.printBanner("Metadata Deployer")
	if err := s.gate(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: IMPORT
	// =========================================================================

	conv := converter.New(s.cfg, s.runner, s.prompter, s.component("import"))
	imported, err := conv.Run(ctx)
	s.note("Import files", len(imported.Files))
	s.note("Failed imports", imported.Failed())
	s.note("Records", len(imported.Records))
	s.note("Missing records", imported.Missing())
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: PACKAGE
	// =========================================================================

	pkgs, err := s.buildPackages(imported.Records)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: DEPLOY
	// =========================================================================

	deploy := (s.cfg.AutoDeploy() || forceDeploy) && !skipDeploy
	if !deploy {
		s.component("deploy").Info("Deploy skipped")
		return nil
	}
	s.deployPackages(ctx, packagePaths(pkgs))
	return nil
}

// =============================================================================
// SHARED STEPS
// =============================================================================

// gate waits for the operator before anything touches the org.
func (s *session) gate() error {
	return s.prompter.Wait("Press any key to continue, Ctrl+C to abort...")
}

func (s *session) printBanner(title string) {
	fmt.Println(renderBanner(title, []summaryLine{
		{"Config", s.cfg.Path()},
		{"Username", s.cfg.Username},
		{"Source", s.cfg.SourceDir + " (" + s.cfg.ImportFileType + ")"},
		{"Project", s.cfg.ProjectRoot},
		{"Packages", s.cfg.PackagesDir},
		{"Run", s.runLog.RunID()},
	}))
}

// buildPackages cleans the record files and writes the descriptors.
func (s *session) buildPackages(records []string) ([]types.Package, error) {
	b := &xmlwriter.Builder{
		RecordsDir:  s.cfg.CustomMetadataDir(),
		PackagesDir: s.cfg.PackagesDir,
		MaxMembers:  s.cfg.MaxMembersPerPackage,
		Cleaner:     xmlwriter.RecordFixer{},
		Log:         s.component("package"),
	}
	pkgs, err := b.Build(records)
	s.note("Packages", len(pkgs))
	return pkgs, err
}

// deployPackages deploys descriptors in order and notes the outcome.
func (s *session) deployPackages(ctx context.Context, paths []string) {
	d := &deployer.Deployer{
		Runner:   s.runner,
		Command:  s.cfg.SfdxCommand,
		Username: s.cfg.Username,
		Log:      s.component("deploy"),
	}
	results := d.Deploy(ctx, paths)
	s.note("Deployed", len(results)-deployer.Failed(results))
	s.note("Failed deploys", deployer.Failed(results))
}

func packagePaths(pkgs []types.Package) []string {
	paths := make([]string, len(pkgs))
	for i, p := range pkgs {
		paths[i] = p.Path
	}
	return paths
}
