// =============================================================================
// Metadata Deployer - Row Transformer
// =============================================================================
//
// This module normalizes import rows into the shape the record generator
// expects. Two transformations exist, each switched by configuration:
//
//   - Label removal: the generator derives labels itself, so a Label column
//     is dropped.
//   - DeveloperName rename: the generator keys records on Name. The value of
//     DeveloperName moves to Name, keeping its column position. Rows with no
//     DeveloperName get a sentinel Name so the problem shows up in the
//     generated file names instead of disappearing.
//
// =============================================================================

package converter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/metadata-deployer/internal/csvparser"
	"github.com/ginjaninja78/metadata-deployer/internal/types"
	"github.com/ginjaninja78/metadata-deployer/pkg/utils"
)

// Column names the transformer knows about.
const (
	ColumnLabel         = "Label"
	ColumnDeveloperName = "DeveloperName"
	ColumnName          = "Name"
)

// NameNotFound is written to Name when a row has no DeveloperName.
const NameNotFound = "DeveloperName Not Found"

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies the configured row transformations.
type Transformer struct {
	// RemoveLabel drops the Label column.
	RemoveLabel bool

	// RenameDeveloperName moves DeveloperName to Name.
	RenameDeveloperName bool
}

// Apply transforms rows in place and returns them.
//
// With both switches off rows pass through untouched.
func (t Transformer) Apply(rows []types.Row) []types.Row {
	for i := range rows {
		row := &rows[i]

		if t.RemoveLabel {
			row.Delete(ColumnLabel)
		}

		if t.RenameDeveloperName {
			if !row.Rename(ColumnDeveloperName, ColumnName) {
				row.Set(ColumnName, NameNotFound)
			}
		}
	}
	return rows
}

// ApplyHeaders returns the header a file with these columns has after
// transformation. It matches what Apply does to a row with the same columns.
func (t Transformer) ApplyHeaders(headers []string) []string {
	rows := t.Apply([]types.Row{types.NewRow(headers, nil)})
	return rows[0].Columns()
}

// FixImportFile reads an import file, transforms its rows and writes them as
// CSV to dst. A file with no data rows is written with its transformed
// header only.
//
// PARAMETERS:
//   - src: The import file (.csv or .xlsx).
//   - dst: The normalized output file. Its extension is forced to .csv.
//   - settings: How to decode src.
//
// RETURNS:
//   - The path actually written.
//   - The transformed rows.
//   - An error if src cannot be read or dst cannot be written.
func (t Transformer) FixImportFile(src, dst string, settings csvparser.Settings) (string, []types.Row, error) {
	data, err := csvparser.ParseFile(src, settings)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read import file: %w", err)
	}

	headers := t.ApplyHeaders(data.Headers)
	rows := t.Apply(data.Rows)

	dst = utils.ReplaceExt(dst, ".csv")
	if err := csvparser.WriteFile(dst, headers, rows); err != nil {
		return "", nil, err
	}
	return dst, rows, nil
}

// TypeFromFileName returns the metadata type an import file is named after:
// the base name up to its first dot.
// Example: "Foo__mdt.csv" -> "Foo__mdt", "Foo__mdt.2024.csv" -> "Foo__mdt"
func TypeFromFileName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// Names returns the Name value of each row, in order. Rows without a Name
// column yield an empty string.
func Names(rows []types.Row) []string {
	names := make([]string, len(rows))
	for i := range rows {
		names[i], _ = rows[i].Get(ColumnName)
	}
	return names
}
