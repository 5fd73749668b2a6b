package metadata

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// RecordSuffix ends every generated record file name.
const RecordSuffix = ".md-meta.xml"

// RecordID is the identifier the CLI gives a record: the type without its
// first "__mdt", a dot, then the record name.
// Example: RecordID("Foo__mdt", "Bar") == "Foo.Bar"
func RecordID(typeName, name string) string {
	return strings.Replace(typeName, "__mdt", "", 1) + "." + name
}

// PredictFileName is the file the generator will write for a record.
// Example: PredictFileName("Foo__mdt", "Bar") == "Foo.Bar.md-meta.xml"
func PredictFileName(typeName, name string) string {
	return RecordID(typeName, name) + RecordSuffix
}

// MemberName strips RecordSuffix from a record file name.
func MemberName(fileName string) string {
	return strings.TrimSuffix(fileName, RecordSuffix)
}

// Reconcile compares the predicted record files with what is on disk.
//
// PARAMETERS:
//   - expected: Predicted file names, in the order they were predicted.
//   - actual: File names found in the output directory.
//   - log: Receives one error entry per missing file.
//
// RETURNS:
//   - The expected names that exist, in expected order.
func Reconcile(expected, actual []string, log *logrus.Entry) []string {
	present := make(map[string]bool, len(actual))
	for _, name := range actual {
		present[name] = true
	}

	found := make([]string, 0, len(expected))
	for _, name := range expected {
		if present[name] {
			found = append(found, name)
			continue
		}
		log.WithField("file", name).Error("Expected record file was not generated")
	}
	return found
}
