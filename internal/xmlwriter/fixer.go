package xmlwriter

import (
	"fmt"
	"os"
	"regexp"
)

// undefinedValue matches a <values> block whose field and value are both the
// literal "undefined", together with its indentation and line break. The
// generator emits one for every header cell it could not map.
var undefinedValue = regexp.MustCompile(
	`[ \t]*<values>\s*<field>undefined</field>\s*<value(?:\s[^>]*)?>undefined</value>\s*</values>[ \t]*(?:\r?\n)?`)

// RecordFixer removes undefined value blocks from record files.
type RecordFixer struct{}

// Fix rewrites path without its undefined value blocks.
//
// RETURNS:
//   - true if anything was removed. The file is only written in that case.
//   - An error if the file cannot be read or written.
func (RecordFixer) Fix(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read record file: %w", err)
	}

	cleaned := undefinedValue.ReplaceAll(data, nil)
	if len(cleaned) == len(data) {
		return false, nil
	}

	if err := os.WriteFile(path, cleaned, 0644); err != nil {
		return false, fmt.Errorf("failed to write record file: %w", err)
	}
	return true, nil
}
