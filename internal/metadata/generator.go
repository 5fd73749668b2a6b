package metadata

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/metadata-deployer/internal/runner"
	"github.com/sirupsen/logrus"
)

// Generator creates record files from a normalized CSV.
type Generator struct {
	Runner runner.Runner

	// Command is the CLI executable, usually "sfdx".
	Command string

	// ObjectsDir holds the type definitions the CLI reads.
	ObjectsDir string

	// OutputDir receives the generated records, <projectRoot>/customMetadata.
	OutputDir string

	Log *logrus.Entry
}

// Generate runs the record insert for csvPath. One record file per row is
// written to OutputDir, named by PredictFileName.
func (g *Generator) Generate(ctx context.Context, csvPath, typeName string) error {
	cmd := runner.Command{
		Name: g.Command,
		Args: []string{
			"force:cmdt:record:insert",
			"--filepath", csvPath,
			"--typename", typeName,
			"-i", g.ObjectsDir,
			"-d", g.OutputDir,
		},
	}

	res, err := runner.RunChecked(ctx, g.Runner, cmd)
	if err != nil {
		return fmt.Errorf("failed to generate records for %s: %w", typeName, err)
	}

	g.Log.WithFields(logrus.Fields{"type": typeName, "duration": res.Duration}).Info("Generated records")
	return nil
}
