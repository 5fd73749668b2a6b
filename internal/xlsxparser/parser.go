// =============================================================================
// Metadata Deployer - XLSX Import Reader
// =============================================================================
//
// Business users often keep custom metadata records in a workbook rather than
// a CSV export. This module reads such a workbook so it can be fed through
// the same pipeline as a CSV file.
//
// LAYOUT EXPECTED:
//   - The first worksheet holds the records.
//   - Its first non-blank row holds the column names (DeveloperName, Label,
//     and one column per custom field).
//   - Every following non-blank row is one record.
//
// =============================================================================

package xlsxparser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadFirstSheet returns every row of the workbook's first worksheet as
// strings, exactly as Excel displays them.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//
// RETURNS:
//   - The rows, header first. Trailing empty cells are not included.
//   - An error if the workbook cannot be opened or has no worksheet.
func ReadFirstSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheetName, err)
	}

	return rows, nil
}
