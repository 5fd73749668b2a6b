// =============================================================================
// Metadata Deployer - Package Writer
// =============================================================================
//
// This module turns generated record files into package descriptors that the
// deploy command accepts. A descriptor lists at most MaxMembers records, so a
// large import is split over several numbered files:
//
//   packages/
//     package_0.xml    members 1..1000
//     package_1.xml    members 1001..2000
//     package_2.xml    the remainder
//
// DESCRIPTOR FORMAT:
//
//   <?xml version="1.0" encoding="UTF-8" standalone="yes"?>
//   <Package xmlns="http://soap.sforce.com/2006/04/metadata">
//   	<types>
//   		<members>Foo.Bar</members>
//   		<name>CustomMetadata</name>
//   	</types>
//   	<version>58.0</version>
//   </Package>
//
// Lines end with CRLF. Member text is written as is; record names that
// need XML escaping are not supported by the generator either.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ginjaninja78/metadata-deployer/internal/metadata"
	"github.com/ginjaninja78/metadata-deployer/internal/types"
	"github.com/ginjaninja78/metadata-deployer/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Descriptor constants.
const (
	// DefaultMaxMembers caps a descriptor when no positive limit is given.
	DefaultMaxMembers = 1000

	// TypeCustomMetadata is the <name> of every descriptor this tool writes.
	TypeCustomMetadata = "CustomMetadata"

	// APIVersion is the <version> of every descriptor.
	APIVersion = "58.0"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`
	namespace = "http://soap.sforce.com/2006/04/metadata"
	crlf      = "\r\n"
)

// packageFilePattern matches descriptor names and captures the index.
var packageFilePattern = regexp.MustCompile(`^package_(\d+)\.xml$`)

// =============================================================================
// BATCHING AND RENDERING
// =============================================================================

// Batch splits ids into consecutive groups of at most max, preserving order.
//
// PARAMETERS:
//   - ids: The identifiers to split.
//   - max: Group size. Values <= 0 mean DefaultMaxMembers.
//
// RETURNS:
//   - ceil(len(ids)/max) groups. Only the last one may be short. Empty input
//     yields no groups.
func Batch(ids []string, max int) [][]string {
	if max <= 0 {
		max = DefaultMaxMembers
	}

	batches := make([][]string, 0, (len(ids)+max-1)/max)
	for start := 0; start < len(ids); start += max {
		end := start + max
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end:end])
	}
	return batches
}

// RenderPackage renders one descriptor listing members under typeName.
func RenderPackage(members []string, typeName string) []byte {
	var buffer bytes.Buffer

	buffer.WriteString(xmlHeader + crlf)
	buffer.WriteString(`<Package xmlns="` + namespace + `">` + crlf)
	buffer.WriteString("\t<types>" + crlf)
	for _, m := range members {
		buffer.WriteString("\t\t<members>" + m + "</members>" + crlf)
	}
	buffer.WriteString("\t\t<name>" + typeName + "</name>" + crlf)
	buffer.WriteString("\t</types>" + crlf)
	buffer.WriteString("\t<version>" + APIVersion + "</version>" + crlf)
	buffer.WriteString("</Package>" + crlf)

	return buffer.Bytes()
}

// PackageFileName is the descriptor name for batch index n.
func PackageFileName(n int) string {
	return "package_" + strconv.Itoa(n) + ".xml"
}

// =============================================================================
// BUILDER
// =============================================================================

// Cleaner repairs a generated record file before it is packaged.
type Cleaner interface {
	Fix(path string) (bool, error)
}

// Builder writes descriptors for a set of record files.
type Builder struct {
	// RecordsDir holds the record files, <projectRoot>/customMetadata.
	RecordsDir string

	// PackagesDir receives the descriptors.
	PackagesDir string

	// MaxMembers caps each descriptor. <= 0 means DefaultMaxMembers.
	MaxMembers int

	// Cleaner, when set, runs against every record file first.
	Cleaner Cleaner

	Log *logrus.Entry
}

// Build cleans each record file, then writes package_0.xml, package_1.xml
// and so on listing the records in the order given.
//
// Descriptors left in PackagesDir by an earlier run are removed first, so
// the directory only ever holds the current batches.
//
// PARAMETERS:
//   - recordFiles: Record file base names, e.g. "Foo.Bar.md-meta.xml".
//
// RETURNS:
//   - The written packages, in index order.
//   - An error if a descriptor could not be written. Cleaning failures are
//     logged and do not stop the build.
func (b *Builder) Build(recordFiles []string) ([]types.Package, error) {
	members := make([]string, 0, len(recordFiles))
	for _, name := range recordFiles {
		if b.Cleaner != nil {
			path := filepath.Join(b.RecordsDir, name)
			changed, err := b.Cleaner.Fix(path)
			if err != nil {
				b.Log.WithField("file", name).Errorf("Failed to clean record file: %v", err)
			} else if changed {
				b.Log.WithField("file", name).Info("Removed undefined values from record file")
			}
		}
		members = append(members, metadata.MemberName(name))
	}

	if err := b.removeStale(); err != nil {
		return nil, err
	}

	batches := Batch(members, b.MaxMembers)
	packages := make([]types.Package, 0, len(batches))

	for i, batch := range batches {
		pkg := types.Package{
			FileName: PackageFileName(i),
			TypeName: TypeCustomMetadata,
			Members:  batch,
			Content:  RenderPackage(batch, TypeCustomMetadata),
		}
		pkg.Path = filepath.Join(b.PackagesDir, pkg.FileName)

		if err := os.WriteFile(pkg.Path, pkg.Content, 0644); err != nil {
			return packages, fmt.Errorf("failed to write package file %s: %w", pkg.FileName, err)
		}

		b.Log.WithFields(logrus.Fields{"file": pkg.FileName, "members": len(batch)}).Info("Wrote package")
		packages = append(packages, pkg)
	}

	return packages, nil
}

func (b *Builder) removeStale() error {
	existing, err := ListPackages(b.PackagesDir)
	if err != nil {
		return err
	}
	for _, path := range existing {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove old package file: %w", err)
		}
		b.Log.WithField("file", filepath.Base(path)).Debug("Removed old package file")
	}
	return nil
}

// ListPackages returns the descriptor paths in dir ordered by index.
func ListPackages(dir string) ([]string, error) {
	files, err := utils.ListFilesOfType(dir, ".xml")
	if err != nil {
		return nil, err
	}

	type indexed struct {
		n    int
		name string
	}
	var found []indexed
	for _, f := range files {
		m := packageFilePattern.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, indexed{n, f})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = filepath.Join(dir, f.name)
	}
	return paths, nil
}
