// =============================================================================
// Metadata Deployer - Row Validation
// =============================================================================
//
// This module checks transformed rows for problems the record generator
// would not report itself:
//   - an empty Name, which produces a record file named "Foo..md-meta.xml"
//   - a Name holding path separators, colons or whitespace, which cannot be
//     part of a record file name
//   - a Name used twice in one file, where the second record silently
//     overwrites the first
//
// ERROR HANDLING:
//   - Issues are collected, never returned as an error
//   - Every issue is a warning: the file is still generated, and the
//     reconcile step reports any record that fails to appear
//   - Each issue carries the CSV line number for troubleshooting
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ginjaninja78/metadata-deployer/internal/types"
	"github.com/sirupsen/logrus"
)

// Rule names.
const (
	RuleRequired  = "required"
	RuleFileName  = "file-name"
	RuleDuplicate = "unique"
)

// nameField is the column the generator keys records on.
const nameField = "Name"

// =============================================================================
// ISSUE
// =============================================================================

// Issue is a single validation finding.
type Issue struct {
	// TypeName is the metadata type of the file the row came from.
	TypeName string

	// Field is the column that failed.
	Field string

	// Value is the offending value.
	Value string

	// Rule is the check that was violated.
	Rule string

	// Message is a human-readable description.
	Message string

	// LineNumber is the CSV line, counting the header as line 1.
	LineNumber int
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s line %d, Field '%s': %s (value: '%s')",
		i.TypeName, i.LineNumber, i.Field, i.Message, i.Value)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateRows checks the Name of every row.
//
// PARAMETERS:
//   - typeName: The metadata type, used in messages.
//   - rows: Rows after transformation.
//
// RETURNS:
//   - The issues found, in row order. Nil when every row is fine.
func ValidateRows(typeName string, rows []types.Row) []Issue {
	var issues []Issue
	firstSeen := make(map[string]int)

	for i := range rows {
		line := i + 2
		name, ok := rows[i].Get(nameField)

		issue := Issue{TypeName: typeName, Field: nameField, Value: name, LineNumber: line}

		switch {
		case !ok || strings.TrimSpace(name) == "":
			issue.Rule = RuleRequired
			issue.Message = "Name is empty"
			issues = append(issues, issue)
			continue
		case !validFileNamePart(name):
			issue.Rule = RuleFileName
			issue.Message = "Name contains characters not allowed in a record file name"
			issues = append(issues, issue)
		}

		if prev, dup := firstSeen[name]; dup {
			issue.Rule = RuleDuplicate
			issue.Message = fmt.Sprintf("Name duplicates line %d", prev)
			issues = append(issues, issue)
			continue
		}
		firstSeen[name] = line
	}

	return issues
}

// validFileNamePart rejects separators and whitespace.
func validFileNamePart(s string) bool {
	for _, r := range s {
		if r == '/' || r == '\\' || r == ':' || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// LogIssues writes each issue to log as a warning.
func LogIssues(log *logrus.Entry, issues []Issue) {
	for _, issue := range issues {
		log.WithFields(logrus.Fields{
			"rule": issue.Rule,
			"line": issue.LineNumber,
		}).Warn(issue.Error())
	}
}
