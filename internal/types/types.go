// =============================================================================
// Metadata Deployer - Shared Types
// =============================================================================
//
// This package contains the types shared by the import, packaging and deploy
// stages so that none of them has to import another:
//   - csvparser   (produces Rows)
//   - converter   (mutates Rows, predicts record identifiers)
//   - xmlwriter   (produces Packages)
//   - deployer    (consumes Packages)
//
// =============================================================================

package types

// =============================================================================
// ROW
// =============================================================================

// Row is a single data line of an import file.
//
// Unlike a plain map, a Row remembers the order its columns were first seen
// in, so a file written back out keeps the column layout of the file it was
// read from. The zero value is an empty row ready for use.
type Row struct {
	columns []string
	values  map[string]string
}

// NewRow builds a row from parallel header and value slices.
// Values beyond the header are dropped; missing values are empty strings.
func NewRow(headers, values []string) Row {
	r := Row{}
	for i, h := range headers {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		r.Set(h, v)
	}
	return r
}

// Get returns the value of a column and whether the column is present.
func (r *Row) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Has reports whether the column is present on the row.
func (r *Row) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Set assigns a value. A new column is appended after the existing ones.
func (r *Row) Set(column, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Delete removes a column. Deleting an absent column is a no-op.
func (r *Row) Delete(column string) {
	if _, ok := r.values[column]; !ok {
		return
	}
	delete(r.values, column)
	for i, c := range r.columns {
		if c == column {
			r.columns = append(r.columns[:i], r.columns[i+1:]...)
			break
		}
	}
}

// Rename moves the value of old to new, keeping old's column position.
// An existing column named new is replaced. Renaming an absent column is a
// no-op and returns false.
func (r *Row) Rename(old, new string) bool {
	v, ok := r.values[old]
	if !ok {
		return false
	}
	if old == new {
		return true
	}
	r.Delete(new)
	for i, c := range r.columns {
		if c == old {
			r.columns[i] = new
			break
		}
	}
	delete(r.values, old)
	r.values[new] = v
	return true
}

// Columns returns the column names in order.
func (r *Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.columns)
}

// =============================================================================
// PACKAGE
// =============================================================================

// Package is one rendered package descriptor (package.xml).
type Package struct {
	// FileName is the base name of the descriptor, e.g. "package_0.xml".
	FileName string

	// Path is where the descriptor was written. Empty until written.
	Path string

	// TypeName is the metadata type tag carried in <name>.
	TypeName string

	// Members are the record identifiers in batch order.
	Members []string

	// Content is the rendered document.
	Content []byte
}
