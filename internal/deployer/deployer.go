// =============================================================================
// Metadata Deployer - Deployer
// =============================================================================
//
// This module pushes package descriptors to the org, one after another.
//
// BEHAVIOR:
//   - Packages are deployed in the order given, never concurrently, because
//     the org serializes metadata deploys anyway.
//   - A failed deploy is logged as an error and the next package is still
//     attempted. Nothing is rolled back.
//   - Cancelling the context stops the loop before the next package.
//
// =============================================================================

package deployer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/metadata-deployer/internal/runner"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of deploying one descriptor.
type Result struct {
	// Package is the descriptor path.
	Package string

	// Success is true when the deploy command exited zero.
	Success bool

	// Error holds the failure, nil on success.
	Error error

	Duration time.Duration
}

// Deployer runs the deploy command for each descriptor.
type Deployer struct {
	Runner runner.Runner

	// Command is the CLI executable, usually "sfdx".
	Command string

	// Username is the target org alias or login.
	Username string

	Log *logrus.Entry
}

// Deploy deploys every descriptor in packages.
//
// PARAMETERS:
//   - packages: Descriptor paths, e.g. packages/package_0.xml.
//
// RETURNS:
//   - One result per attempted package, in order. Packages skipped because
//     ctx was cancelled get no result.
func (d *Deployer) Deploy(ctx context.Context, packages []string) []Result {
	results := make([]Result, 0, len(packages))

	for i, path := range packages {
		if ctx.Err() != nil {
			d.Log.Warnf("Deploy cancelled, %d package(s) not deployed", len(packages)-i)
			break
		}

		log := d.Log.WithField("package", filepath.Base(path))
		log.Infof("Deploying package %d of %d", i+1, len(packages))

		cmd := runner.Command{
			Name: d.Command,
			Args: []string{"force:source:deploy", "-x", path, "-u", d.Username},
		}
		res, err := runner.RunChecked(ctx, d.Runner, cmd)

		result := Result{Package: path, Success: err == nil, Error: err, Duration: res.Duration}
		results = append(results, result)

		if err != nil {
			log.Errorf("Deploy failed: %v", err)
			continue
		}
		log.WithField("duration", res.Duration.Round(time.Millisecond)).Info("Deployed package")
	}

	return results
}

// Failed counts the unsuccessful results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
