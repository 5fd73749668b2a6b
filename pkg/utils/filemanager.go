// =============================================================================
// Metadata Deployer - File Manager Utility
// =============================================================================
//
// This module provides the small file-system helpers shared by the pipeline:
//   - Non-recursive file discovery filtered by extension
//   - Existence checks for files and directories
//   - Directory creation
//
// All paths are built with path/filepath so the tool behaves the same on
// Windows and POSIX systems.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// ListFilesOfType lists the regular files in dir whose extension matches ext.
//
// PARAMETERS:
//   - dir: The directory to scan. Subdirectories are not descended into.
//   - ext: The extension to keep, e.g. ".csv". Matching ignores case.
//     An empty ext keeps every file.
//
// RETURNS:
//   - The matching base names, sorted so runs are repeatable.
//   - An error if the directory cannot be read.
func ListFilesOfType(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	ext = strings.ToLower(ext)
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if ext != "" && strings.ToLower(filepath.Ext(name)) != ext {
			continue
		}
		files = append(files, name)
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// EXISTENCE CHECKS
// =============================================================================

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// WRITING
// =============================================================================

// WriteLines writes lines to path joined and terminated by CRLF, replacing
// any existing file.
func WriteLines(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReplaceExt swaps the extension of name for ext.
// Example: ReplaceExt("Foo__mdt.xlsx", ".csv") == "Foo__mdt.csv"
func ReplaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
