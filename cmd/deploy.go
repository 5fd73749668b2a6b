package cmd

import (
	"context"

	"github.com/ginjaninja78/metadata-deployer/internal/xmlwriter"
	"github.com/spf13/cobra"
)

// deployCmd deploys descriptors written by an earlier run or package.
var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the package_<n>.xml files in packagesDir",
	Long: `The deploy command deploys every package_<n>.xml in packagesDir in index
order. A failed package is logged and the next one is still deployed.`,

	RunE: withSession(func(ctx context.Context, s *session) error {
		s.printBanner("Metadata Deployer - Deploy")

		paths, err := xmlwriter.ListPackages(s.cfg.PackagesDir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			s.component("deploy").Warnf("No package files found in %s", s.cfg.PackagesDir)
			return nil
		}
		if err := s.gate(); err != nil {
			return err
		}

		s.deployPackages(ctx, paths)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(deployCmd)
}
