// =============================================================================
// Metadata Deployer - Definition Fetcher and Record Generator
// =============================================================================
//
// Both components drive the sfdx CLI through a runner.Runner:
//
//   Fetcher    retrieves a custom metadata type definition into the local
//              project so records can be generated against it.
//   Generator  turns a normalized CSV into one record file per row.
//
// Neither component retries. A failed command is returned to the caller,
// which logs it and moves on to the next import file.
//
// =============================================================================

package metadata

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/metadata-deployer/internal/runner"
	"github.com/ginjaninja78/metadata-deployer/pkg/utils"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// FETCHER
// =============================================================================

// Fetcher makes sure a type definition exists under ObjectsDir.
type Fetcher struct {
	Runner runner.Runner

	// Command is the CLI executable, usually "sfdx".
	Command string

	// Username is the target org alias or login.
	Username string

	// ObjectsDir is <projectRoot>/objects.
	ObjectsDir string

	// Force retrieves the definition even when it is already present.
	Force bool

	Log *logrus.Entry
}

// DefinitionPresent reports whether both the object descriptor and the
// fields directory of typeName exist locally.
func DefinitionPresent(objectsDir, typeName string) bool {
	dir := filepath.Join(objectsDir, typeName)
	return utils.FileExists(filepath.Join(dir, typeName+".object-meta.xml")) &&
		utils.DirExists(filepath.Join(dir, "fields"))
}

// Ensure retrieves the definition of typeName when it is missing, or always
// when Force is set.
//
// RETURNS:
//   - true if a retrieve was run and succeeded.
//   - An error if the retrieve could not run or exited non-zero.
func (f *Fetcher) Ensure(ctx context.Context, typeName string) (bool, error) {
	if DefinitionPresent(f.ObjectsDir, typeName) && !f.Force {
		f.Log.WithField("type", typeName).Info("Definition already present, skipping retrieve")
		return false, nil
	}

	f.Log.WithField("type", typeName).Info("Retrieving definition")

	cmd := runner.Command{
		Name: f.Command,
		Args: []string{"force:source:retrieve", "-m", "CustomObject:" + typeName, "-u", f.Username},
	}
	res, err := runner.RunChecked(ctx, f.Runner, cmd)
	if err != nil {
		return false, fmt.Errorf("failed to retrieve definition for %s: %w", typeName, err)
	}

	f.Log.WithField("type", typeName).Debug(res.Stdout)
	return true, nil
}
