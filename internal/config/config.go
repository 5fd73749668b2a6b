// =============================================================================
// Metadata Deployer - Configuration Module
// =============================================================================
//
// This module loads the run configuration. A configuration is a flat set of
// options read once at startup and never changed afterwards.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults
//   2. The configuration file (config.json with comments, or config.yaml)
//   3. A .env file next to the configuration file, if present
//   4. SFMD_* environment variables
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/ginjaninja78/metadata-deployer/pkg/utils"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Default values applied to unset options.
const (
	DefaultSourceDir      = "input"
	DefaultDestDir        = "output"
	DefaultImportFileType = ".csv"
	DefaultProjectRoot    = "force-app/main/default"
	DefaultPackagesDir    = "packages"
	DefaultMaxMembers     = 1000
	DefaultSfdxCommand    = "sfdx"
	DefaultCommandTimeout = 30 * time.Minute
	DefaultSourceEncoding = "utf-8"
	DefaultLogFile        = "log.txt"
	DefaultErrorLogFile   = "errors.txt"
	DefaultLogLevel       = "info"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the options for a single run.
//
// Boolean feature flags are pointers while decoding so that an explicit
// false in the file can be told apart from an absent key; the accessors
// below resolve them against their defaults.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// SourceDir holds the import files to process.
	SourceDir string `json:"sourceDir" yaml:"sourceDir" env:"SFMD_SOURCE_DIR"`

	// DestDir receives the normalized CSV files fed to the generator.
	DestDir string `json:"destDir" yaml:"destDir" env:"SFMD_DEST_DIR"`

	// ImportFileType is the extension filter for import files (".csv" or ".xlsx").
	ImportFileType string `json:"importFileType" yaml:"importFileType" env:"SFMD_IMPORT_FILE_TYPE"`

	// ProjectRoot is the source-format project folder holding objects/ and
	// customMetadata/.
	ProjectRoot string `json:"projectRoot" yaml:"projectRoot" env:"SFMD_PROJECT_ROOT"`

	// PackagesDir receives the generated package_<n>.xml descriptors.
	PackagesDir string `json:"packagesDir" yaml:"packagesDir" env:"SFMD_PACKAGES_DIR"`

	// =========================================================================
	// TARGET ORG
	// =========================================================================

	// Username is the org alias or username passed to every sfdx call.
	Username string `json:"username" yaml:"username" env:"SFMD_USERNAME"`

	// SfdxCommand is the executable used for fetch, generate and deploy.
	SfdxCommand string `json:"sfdxCommand" yaml:"sfdxCommand" env:"SFMD_SFDX_COMMAND"`

	// CommandTimeout bounds every external command, e.g. "30m".
	CommandTimeout Duration `json:"commandTimeout" yaml:"commandTimeout" env:"SFMD_COMMAND_TIMEOUT"`

	// =========================================================================
	// PACKAGING
	// =========================================================================

	// MaxMembersPerPackage caps the members per package.xml. Default: 1000
	MaxMembersPerPackage int `json:"maxMembersPerPackage" yaml:"maxMembersPerPackage" env:"SFMD_MAX_MEMBERS_PER_PACKAGE"`

	// =========================================================================
	// FEATURE FLAGS
	// =========================================================================

	AutoDeployPackage          *bool `json:"autoDeployPackage" yaml:"autoDeployPackage" env:"SFMD_AUTO_DEPLOY_PACKAGE"`
	FetchMetadataDefinition    *bool `json:"fetchMetadataDefinition" yaml:"fetchMetadataDefinition" env:"SFMD_FETCH_METADATA_DEFINITION"`
	ForceFetchExistingMetadata *bool `json:"forceFetchExistingMetadata" yaml:"forceFetchExistingMetadata" env:"SFMD_FORCE_FETCH_EXISTING_METADATA"`
	RenameDeveloperNameCol     *bool `json:"renameDeveloperNameCol" yaml:"renameDeveloperNameCol" env:"SFMD_RENAME_DEVELOPER_NAME_COL"`
	RemoveLabelCol             *bool `json:"removeLabelCol" yaml:"removeLabelCol" env:"SFMD_REMOVE_LABEL_COL"`
	PauseOnError               *bool `json:"pauseOnError" yaml:"pauseOnError" env:"SFMD_PAUSE_ON_ERROR"`

	// =========================================================================
	// INPUT AND LOGGING
	// =========================================================================

	// SourceEncoding is the character encoding of the import files.
	// Valid values: "utf-8", "utf-16", "windows-1252", "iso-8859-1"
	SourceEncoding string `json:"sourceEncoding" yaml:"sourceEncoding" env:"SFMD_SOURCE_ENCODING"`

	// LogFile receives every log entry at the end of the run.
	LogFile string `json:"logFile" yaml:"logFile" env:"SFMD_LOG_FILE"`

	// ErrorLogFile receives the error entries at the end of the run.
	ErrorLogFile string `json:"errorLogFile" yaml:"errorLogFile" env:"SFMD_ERROR_LOG_FILE"`

	// LogLevel controls console verbosity: "debug", "info", "warn", "error".
	LogLevel string `json:"logLevel" yaml:"logLevel" env:"SFMD_LOG_LEVEL"`

	// path is the file the configuration was loaded from.
	path string
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads, overrides, defaults and validates the configuration at path.
//
// PARAMETERS:
//   - path: a .json (comments allowed), .yaml or .yml file.
//
// RETURNS:
//   - The loaded configuration.
//   - An error if the file cannot be read or parsed, or fails validation.
//     A parse failure is fatal to the run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.path = path

	// A .env file beside the config feeds the environment overrides.
	// Variables already set in the process environment are not replaced.
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes configuration bytes. ext selects the format: ".yaml" and
// ".yml" are YAML, anything else is JSON with comments.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := unmarshalJSONC(data, &cfg); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// ApplyDefaults fills every unset option.
func (c *Config) ApplyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	if c.DestDir == "" {
		c.DestDir = DefaultDestDir
	}
	if c.ImportFileType == "" {
		c.ImportFileType = DefaultImportFileType
	}
	if c.ProjectRoot == "" {
		c.ProjectRoot = DefaultProjectRoot
	}
	if c.PackagesDir == "" {
		c.PackagesDir = DefaultPackagesDir
	}
	if c.MaxMembersPerPackage == 0 {
		c.MaxMembersPerPackage = DefaultMaxMembers
	}
	if c.SfdxCommand == "" {
		c.SfdxCommand = DefaultSfdxCommand
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = Duration(DefaultCommandTimeout)
	}
	if c.SourceEncoding == "" {
		c.SourceEncoding = DefaultSourceEncoding
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.ErrorLogFile == "" {
		c.ErrorLogFile = DefaultErrorLogFile
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	c.ImportFileType = strings.ToLower(c.ImportFileType)
	if !strings.HasPrefix(c.ImportFileType, ".") {
		c.ImportFileType = "." + c.ImportFileType
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the options and creates the output directories the run
// writes into.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalid)
	}
	if c.MaxMembersPerPackage <= 0 {
		return fmt.Errorf("%w: maxMembersPerPackage must be positive, got %d", ErrInvalid, c.MaxMembersPerPackage)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("%w: commandTimeout must be positive", ErrInvalid)
	}
	switch c.ImportFileType {
	case ".csv", ".xlsx":
	default:
		return fmt.Errorf("%w: unsupported importFileType %q", ErrInvalid, c.ImportFileType)
	}
	if !KnownEncoding(c.SourceEncoding) {
		return fmt.Errorf("%w: unsupported sourceEncoding %q", ErrInvalid, c.SourceEncoding)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unsupported logLevel %q", ErrInvalid, c.LogLevel)
	}

	for _, dir := range []string{c.DestDir, c.PackagesDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}

	return nil
}

// KnownEncoding reports whether name is a supported source encoding.
func KnownEncoding(name string) bool {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "utf-8", "utf8", "utf-16", "utf16", "windows-1252", "cp1252", "iso-8859-1", "latin1":
		return true
	}
	return false
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// ObjectsDir is where metadata type definitions live.
func (c *Config) ObjectsDir() string { return filepath.Join(c.ProjectRoot, "objects") }

// CustomMetadataDir is where generated record files are written.
func (c *Config) CustomMetadataDir() string { return filepath.Join(c.ProjectRoot, "customMetadata") }

// Timeout returns CommandTimeout as a time.Duration.
func (c *Config) Timeout() time.Duration { return time.Duration(c.CommandTimeout) }

func (c *Config) AutoDeploy() bool          { return flag(c.AutoDeployPackage, false) }
func (c *Config) FetchDefinition() bool     { return flag(c.FetchMetadataDefinition, false) }
func (c *Config) ForceFetch() bool          { return flag(c.ForceFetchExistingMetadata, false) }
func (c *Config) RenameDeveloperName() bool { return flag(c.RenameDeveloperNameCol, true) }
func (c *Config) RemoveLabel() bool         { return flag(c.RemoveLabelCol, true) }
func (c *Config) PauseOnFailure() bool      { return flag(c.PauseOnError, false) }

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Bool returns a pointer to b, for building configurations in code.
func Bool(b bool) *bool { return &b }
