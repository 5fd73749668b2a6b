// =============================================================================
// Metadata Deployer - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads the configuration,
// prints the effective settings, and checks every import file the way 'run'
// would read it. It never calls sfdx and writes no normalized files, records
// or packages. Loading the configuration still creates destDir and
// packagesDir, and log.txt and errors.txt are written as for any command.
//
// CHECKS:
//   - The configuration loads and passes validation
//   - Each import file can be read in sourceEncoding
//   - Each record Name is present, unique and usable in a file name
//
// Name problems are warnings. Only unreadable files make the exit status 1.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/metadata-deployer/internal/config"
	"github.com/ginjaninja78/metadata-deployer/internal/converter"
	"github.com/ginjaninja78/metadata-deployer/internal/csvparser"
	"github.com/ginjaninja78/metadata-deployer/internal/validation"
	"github.com/ginjaninja78/metadata-deployer/pkg/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and import files without deploying",
	RunE:  withSession(validateAll),
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// effectiveSettings is the configuration with every default resolved.
type effectiveSettings struct {
	Config                     string `yaml:"config"`
	SourceDir                  string `yaml:"sourceDir"`
	DestDir                    string `yaml:"destDir"`
	ImportFileType             string `yaml:"importFileType"`
	ProjectRoot                string `yaml:"projectRoot"`
	PackagesDir                string `yaml:"packagesDir"`
	Username                   string `yaml:"username"`
	SfdxCommand                string `yaml:"sfdxCommand"`
	CommandTimeout             string `yaml:"commandTimeout"`
	MaxMembersPerPackage       int    `yaml:"maxMembersPerPackage"`
	AutoDeployPackage          bool   `yaml:"autoDeployPackage"`
	FetchMetadataDefinition    bool   `yaml:"fetchMetadataDefinition"`
	ForceFetchExistingMetadata bool   `yaml:"forceFetchExistingMetadata"`
	RenameDeveloperNameCol     bool   `yaml:"renameDeveloperNameCol"`
	RemoveLabelCol             bool   `yaml:"removeLabelCol"`
	PauseOnError               bool   `yaml:"pauseOnError"`
	SourceEncoding             string `yaml:"sourceEncoding"`
	LogFile                    string `yaml:"logFile"`
	ErrorLogFile               string `yaml:"errorLogFile"`
	LogLevel                   string `yaml:"logLevel"`
}

func settingsOf(cfg *config.Config) effectiveSettings {
	return effectiveSettings{
		Config:                     cfg.Path(),
		SourceDir:                  cfg.SourceDir,
		DestDir:                    cfg.DestDir,
		ImportFileType:             cfg.ImportFileType,
		ProjectRoot:                cfg.ProjectRoot,
		PackagesDir:                cfg.PackagesDir,
		Username:                   cfg.Username,
		SfdxCommand:                cfg.SfdxCommand,
		CommandTimeout:             cfg.CommandTimeout.String(),
		MaxMembersPerPackage:       cfg.MaxMembersPerPackage,
		AutoDeployPackage:          cfg.AutoDeploy(),
		FetchMetadataDefinition:    cfg.FetchDefinition(),
		ForceFetchExistingMetadata: cfg.ForceFetch(),
		RenameDeveloperNameCol:     cfg.RenameDeveloperName(),
		RemoveLabelCol:             cfg.RemoveLabel(),
		PauseOnError:               cfg.PauseOnFailure(),
		SourceEncoding:             cfg.SourceEncoding,
		LogFile:                    cfg.LogFile,
		ErrorLogFile:               cfg.ErrorLogFile,
		LogLevel:                   cfg.LogLevel,
	}
}

func validateAll(ctx context.Context, s *session) error {
	out, err := yaml.Marshal(settingsOf(s.cfg))
	if err != nil {
		return fmt.Errorf("failed to render settings: %w", err)
	}
	fmt.Println(titleStyle.Render("Effective configuration"))
	fmt.Print(string(out))

	log := s.component("validate")
	files, err := utils.ListFilesOfType(s.cfg.SourceDir, s.cfg.ImportFileType)
	if err != nil {
		return err
	}

	tr := converter.Transformer{
		RemoveLabel:         s.cfg.RemoveLabel(),
		RenameDeveloperName: s.cfg.RenameDeveloperName(),
	}
	settings := csvparser.Settings{Encoding: s.cfg.SourceEncoding}

	var rows, warnings int
	for _, name := range files {
		typeName := converter.TypeFromFileName(name)
		fileLog := log.WithField("file", name)

		data, err := csvparser.ParseFile(filepath.Join(s.cfg.SourceDir, name), settings)
		if err != nil {
			fileLog.Errorf("Cannot read import file: %v", err)
			continue
		}

		transformed := tr.Apply(data.Rows)
		issues := validation.ValidateRows(typeName, transformed)
		validation.LogIssues(fileLog, issues)

		rows += len(transformed)
		warnings += len(issues)
		fileLog.Infof("%d row(s), %d issue(s)", len(transformed), len(issues))
	}

	s.note("Import files", len(files))
	s.note("Rows", rows)
	s.note("Warnings", warnings)
	return nil
}
