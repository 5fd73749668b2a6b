// =============================================================================
// Metadata Deployer - Tabular Import Parser
// =============================================================================
//
// This module reads import files into ordered rows and writes rows back out
// as CSV. It handles:
//   - Comma-separated files in UTF-8 (with or without BOM), UTF-16,
//     Windows-1252 or ISO-8859-1
//   - Excel workbooks (.xlsx), first worksheet only
//   - Ragged rows and lazily quoted fields
//
// Whatever the source encoding, everything written back out is UTF-8, which
// is what the record generator expects.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/metadata-deployer/internal/types"
	"github.com/ginjaninja78/metadata-deployer/internal/xlsxparser"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEncoding is returned when a source file is not valid in its declared
// encoding.
var ErrEncoding = errors.New("malformed source encoding")

// utf8BOM prefixes files saved by Excel as "CSV UTF-8".
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// DATA STRUCTURES
// =============================================================================

// Settings controls how a source file is read.
type Settings struct {
	// Encoding is the source character encoding. Default: "utf-8"
	Encoding string
}

// Data represents a parsed import file.
type Data struct {
	// Headers are the column names from the first row, cleaned.
	Headers []string

	// Rows are the data rows, one per non-blank line.
	Rows []types.Row

	// SourceFile is the path the data was read from.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads an import file, choosing the parser by extension.
func ParseFile(filePath string, settings Settings) (*Data, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".xlsx") {
		return ParseXLSX(filePath)
	}
	return Parse(filePath, settings)
}

// Parse reads a CSV file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The source encoding.
//
// RETURNS:
//   - The parsed data. A file holding only a header row yields zero rows.
//   - An error if the file cannot be read, is not valid in its encoding,
//     or is not CSV.
func Parse(filePath string, settings Settings) (*Data, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	text, err := decode(raw, settings.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	data, err := ParseReader(bytes.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader reads UTF-8 CSV from r.
func ParseReader(r io.Reader) (*Data, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return fromRecords(allRows)
}

// ParseXLSX reads the first worksheet of an Excel workbook.
func ParseXLSX(filePath string) (*Data, error) {
	records, err := xlsxparser.ReadFirstSheet(filePath)
	if err != nil {
		return nil, err
	}

	data, err := fromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	data.SourceFile = filePath
	return data, nil
}

// fromRecords turns a header row plus data rows into Data.
func fromRecords(allRows [][]string) (*Data, error) {
	// Leading blank lines carry no header.
	for len(allRows) > 0 && isRowEmpty(allRows[0]) {
		allRows = allRows[1:]
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	headers := cleanHeaders(allRows[0])
	rows := make([]types.Row, 0, len(allRows)-1)

	for _, record := range allRows[1:] {
		if isRowEmpty(record) {
			continue
		}
		values := make([]string, len(record))
		for i, v := range record {
			values[i] = strings.TrimSpace(v)
		}
		rows = append(rows, types.NewRow(headers, values))
	}

	return &Data{Headers: headers, Rows: rows}, nil
}

// configureReader sets the reader up for hand-edited exports: ragged rows
// and stray quotes are tolerated.
func configureReader(reader *csv.Reader) {
	reader.Comma = ','
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// decode converts raw bytes in the named encoding to UTF-8.
func decode(raw []byte, name string) ([]byte, error) {
	var dec transform.Transformer

	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("%w: not valid UTF-8", ErrEncoding)
		}
		return raw, nil
	case "utf-16", "utf16":
		dec = unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	case "windows-1252", "cp1252":
		dec = charmap.Windows1252.NewDecoder()
	case "iso-8859-1", "latin1":
		dec = charmap.ISO8859_1.NewDecoder()
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %q", ErrEncoding, name)
	}

	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return out, nil
}

// cleanHeaders trims header names and names blank ones after their
// position, so every column can still be addressed.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WRITER
// =============================================================================

// Write renders rows as CSV. The header starts with headers, followed by any
// other row column in first-appearance order, so a file with no rows keeps
// its column layout. A row missing a column gets an empty cell.
func Write(w io.Writer, headers []string, rows []types.Row) error {
	headers = UnionColumns(headers, rows)

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(headers))
	for i := range rows {
		for j, h := range headers {
			record[j], _ = rows[i].Get(h)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows as CSV to path, replacing any existing file.
func WriteFile(path string, headers []string, rows []types.Row) error {
	var buf bytes.Buffer
	if err := Write(&buf, headers, rows); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// UnionColumns returns headers followed by every other column name across
// rows, in the order each was first seen.
func UnionColumns(headers []string, rows []types.Row) []string {
	seen := make(map[string]bool)
	var union []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			union = append(union, c)
		}
	}
	for _, h := range headers {
		add(h)
	}
	for i := range rows {
		for _, c := range rows[i].Columns() {
			add(c)
		}
	}
	return union
}
