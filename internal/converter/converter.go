// =============================================================================
// Metadata Deployer - Import Pipeline
// =============================================================================
//
// This module turns the import files in sourceDir into generated record
// files. It orchestrates the per-file pipeline and the final reconcile.
//
// CONVERSION PIPELINE (per import file, in name order):
//   1. Read the file, transform its rows, write the normalized CSV to destDir
//   2. Validate the record names and predict the record file names
//   3. Retrieve the type definition (when fetchMetadataDefinition is set)
//   4. Generate the record files from the normalized CSV
//
// A file with a header but no data rows is normalized and then skipped with
// a warning; it has nothing to generate.
//
// Then, once every file has been attempted:
//   5. Compare the predicted record files with customMetadata
//
// ERROR HANDLING:
//   A failure in steps 1-4 is logged as an error and the next file is
//   processed. With pauseOnError set, the operator acknowledges each failure
//   before the run moves on. Files are processed one at a time because the
//   CLI shares a single project directory.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/metadata-deployer/internal/config"
	"github.com/ginjaninja78/metadata-deployer/internal/csvparser"
	"github.com/ginjaninja78/metadata-deployer/internal/metadata"
	"github.com/ginjaninja78/metadata-deployer/internal/prompt"
	"github.com/ginjaninja78/metadata-deployer/internal/runner"
	"github.com/ginjaninja78/metadata-deployer/internal/validation"
	"github.com/ginjaninja78/metadata-deployer/pkg/utils"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// FileResult is the outcome of one import file.
type FileResult struct {
	// SourceFile is the import file path.
	SourceFile string

	// FixedFile is the normalized CSV. Empty if the file could not be read.
	FixedFile string

	// TypeName is the metadata type derived from the file name.
	TypeName string

	// Expected are the predicted record file names, in row order.
	Expected []string

	// Issues is the number of validation warnings.
	Issues int

	// Fetched is true when the type definition was retrieved.
	Fetched bool

	// Error is nil when records were generated.
	Error error

	Duration time.Duration
}

// Result is the outcome of a whole import.
type Result struct {
	Files []FileResult

	// Expected are all predicted record file names, first occurrence only.
	Expected []string

	// Records are the expected names actually found in customMetadata.
	Records []string
}

// Failed counts the files that hit an error.
func (r Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != nil {
			n++
		}
	}
	return n
}

// Missing is the number of predicted records that were not generated.
func (r Result) Missing() int {
	return len(r.Expected) - len(r.Records)
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the import pipeline.
type Converter struct {
	cfg         *config.Config
	transformer Transformer
	fetcher     *metadata.Fetcher
	generator   *metadata.Generator
	prompter    prompt.Prompter
	log         *logrus.Entry
}

// New wires a Converter from the configuration.
//
// PARAMETERS:
//   - cfg: The loaded configuration.
//   - r: Runs the CLI commands.
//   - p: Asked to wait after a failure when pauseOnError is set.
//   - log: The component logger.
func New(cfg *config.Config, r runner.Runner, p prompt.Prompter, log *logrus.Entry) *Converter {
	c := &Converter{
		cfg: cfg,
		transformer: Transformer{
			RemoveLabel:         cfg.RemoveLabel(),
			RenameDeveloperName: cfg.RenameDeveloperName(),
		},
		generator: &metadata.Generator{
			Runner:     r,
			Command:    cfg.SfdxCommand,
			ObjectsDir: cfg.ObjectsDir(),
			OutputDir:  cfg.CustomMetadataDir(),
			Log:        log,
		},
		prompter: p,
		log:      log,
	}

	if cfg.FetchDefinition() {
		c.fetcher = &metadata.Fetcher{
			Runner:     r,
			Command:    cfg.SfdxCommand,
			Username:   cfg.Username,
			ObjectsDir: cfg.ObjectsDir(),
			Force:      cfg.ForceFetch(),
			Log:        log,
		}
	}
	if c.prompter == nil {
		c.prompter = prompt.NopPrompter{}
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run processes every import file and reconciles the output.
//
// RETURNS:
//   - The per-file results and the record files found.
//   - An error only when the run cannot continue: sourceDir is unreadable,
//     the context was cancelled, or the operator interrupted a pause.
func (c *Converter) Run(ctx context.Context) (Result, error) {
	var result Result

	files, err := utils.ListFilesOfType(c.cfg.SourceDir, c.cfg.ImportFileType)
	if err != nil {
		return result, fmt.Errorf("failed to scan import directory: %w", err)
	}
	if len(files) == 0 {
		c.log.Warnf("No %s files found in %s", c.cfg.ImportFileType, c.cfg.SourceDir)
		return result, nil
	}
	c.log.Infof("Found %d import file(s) in %s", len(files), c.cfg.SourceDir)

	seen := make(map[string]bool)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fr := c.processFile(ctx, name)
		result.Files = append(result.Files, fr)

		for _, e := range fr.Expected {
			if !seen[e] {
				seen[e] = true
				result.Expected = append(result.Expected, e)
			}
		}

		if fr.Error == nil {
			continue
		}
		c.log.WithField("file", name).Errorf("Import failed: %v", fr.Error)

		if errors.Is(fr.Error, context.Canceled) {
			return result, fr.Error
		}
		if c.cfg.PauseOnFailure() {
			if err := c.prompter.Wait("Import failed. Press any key to continue..."); err != nil {
				return result, err
			}
		}
	}

	actual, err := c.listRecords()
	if err != nil {
		return result, err
	}
	result.Records = metadata.Reconcile(result.Expected, actual, c.log)

	c.log.WithFields(logrus.Fields{
		"files":    len(result.Files),
		"failed":   result.Failed(),
		"expected": len(result.Expected),
		"missing":  result.Missing(),
	}).Info("Import finished")

	return result, nil
}

// processFile runs steps 1-4 for one import file.
func (c *Converter) processFile(ctx context.Context, name string) (fr FileResult) {
	start := time.Now()
	fr = FileResult{
		SourceFile: filepath.Join(c.cfg.SourceDir, name),
		TypeName:   TypeFromFileName(name),
	}
	log := c.log.WithFields(logrus.Fields{"file": name, "type": fr.TypeName})
	defer func() { fr.Duration = time.Since(start) }()

	// =========================================================================
	// STEP 1: FIX THE IMPORT FILE
	// =========================================================================

	fixed, rows, err := c.transformer.FixImportFile(
		fr.SourceFile,
		filepath.Join(c.cfg.DestDir, name),
		csvparser.Settings{Encoding: c.cfg.SourceEncoding},
	)
	if err != nil {
		fr.Error = err
		return fr
	}
	fr.FixedFile = fixed
	log.WithField("rows", len(rows)).Info("Normalized import file")

	if len(rows) == 0 {
		log.Warn("Import file has no data rows, nothing to generate")
		return fr
	}

	// =========================================================================
	// STEP 2: VALIDATE AND PREDICT
	// =========================================================================

	issues := validation.ValidateRows(fr.TypeName, rows)
	validation.LogIssues(log, issues)
	fr.Issues = len(issues)

	for _, n := range Names(rows) {
		fr.Expected = append(fr.Expected, metadata.PredictFileName(fr.TypeName, n))
	}

	// =========================================================================
	// STEP 3: FETCH THE DEFINITION
	// =========================================================================

	if c.fetcher != nil {
		fr.Fetched, err = c.fetcher.Ensure(ctx, fr.TypeName)
		if err != nil {
			fr.Error = err
			return fr
		}
	}

	// =========================================================================
	// STEP 4: GENERATE RECORDS
	// =========================================================================

	if err := c.generator.Generate(ctx, fixed, fr.TypeName); err != nil {
		fr.Error = err
	}
	return fr
}

// listRecords returns the record files in customMetadata. A directory that
// does not exist yet holds no records.
func (c *Converter) listRecords() ([]string, error) {
	dir := c.cfg.CustomMetadataDir()
	if !utils.DirExists(dir) {
		return nil, nil
	}
	return ListRecordFiles(dir)
}

// ListRecordFiles returns the record files already in dir, sorted by name.
func ListRecordFiles(dir string) ([]string, error) {
	files, err := utils.ListFilesOfType(dir, ".xml")
	if err != nil {
		return nil, err
	}
	records := files[:0]
	for _, f := range files {
		if metadata.MemberName(f) != f {
			records = append(records, f)
		}
	}
	return records, nil
}
