package cmd

import (
	"context"

	"github.com/ginjaninja78/metadata-deployer/internal/converter"
	"github.com/spf13/cobra"
)

// packageCmd rebuilds the descriptors from the records already generated,
// for when the records were edited by hand or a run stopped after import.
var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Rebuild package descriptors from the records in customMetadata",
	Long: `The package command lists every record file in <projectRoot>/customMetadata,
removes undefined values from them and writes fresh package_<n>.xml files
into packagesDir. No import file is read and sfdx is not called.`,

	RunE: withSession(func(ctx context.Context, s *session) error {
		records, err := converter.ListRecordFiles(s.cfg.CustomMetadataDir())
		if err != nil {
			return err
		}
		s.component("package").Infof("Found %d record file(s)", len(records))
		s.note("Records", len(records))

		_, err = s.buildPackages(records)
		return err
	}),
}

func init() {
	rootCmd.AddCommand(packageCmd)
}
