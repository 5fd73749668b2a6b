package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/ginjaninja78/metadata-deployer/internal/config"
	"github.com/ginjaninja78/metadata-deployer/internal/prompt"
	"github.com/ginjaninja78/metadata-deployer/internal/runlog"
	"github.com/ginjaninja78/metadata-deployer/internal/runner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// session is the explicit context of one command invocation: the loaded
// configuration, the run log every component reports into, and the shared
// command runner.
type session struct {
	cfg    *config.Config
	runLog *runlog.Log
	log    *logrus.Entry
	runner runner.Runner

	prompter prompt.Prompter
	summary  []summaryLine
	closed   bool
}

// current is the open session, for the panic handler.
var current *session

// newRunner builds the command runner a session shares between components.
var newRunner = func(cfg *config.Config, log *logrus.Entry) runner.Runner {
	return runner.NewExecRunner(cfg.Timeout(), log)
}

// openSession loads the configuration and builds the logger and runner.
// The returned session is usable for reporting even when err is non-nil.
func openSession() (*session, error) {
	s := &session{runLog: runlog.New()}
	s.log = runlog.NewLogger(config.DefaultLogLevel, os.Stdout, s.runLog)
	if verbose {
		s.log.Logger.SetLevel(logrus.DebugLevel)
	}
	current = s

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return s, fmt.Errorf("failed to load configuration: %w", err)
	}
	s.cfg = cfg

	if !verbose {
		if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			s.log.Logger.SetLevel(level)
		}
	}

	s.runner = newRunner(cfg, runlog.Component(s.log, "runner"))
	s.prompter = prompt.NewTerminalPrompter()
	if assumeYes {
		s.prompter = prompt.NopPrompter{}
	}

	s.log.WithFields(logrus.Fields{"config": cfg.Path(), "username": cfg.Username}).Debug("Configuration loaded")
	return s, nil
}

// component returns a logger tagged for one part of the pipeline.
func (s *session) component(name string) *logrus.Entry {
	return runlog.Component(s.log, name)
}

// note adds a line to the end-of-run summary.
func (s *session) note(label string, value any) {
	s.summary = append(s.summary, summaryLine{label, fmt.Sprint(value)})
}

// close writes both log files, prints the summary and returns the exit
// status. Later calls return the same status without writing again.
func (s *session) close() int {
	code := runlog.ExitCode(s.runLog)
	if s.closed {
		return code
	}
	s.closed = true

	logPath, errPath := config.DefaultLogFile, config.DefaultErrorLogFile
	if s.cfg != nil {
		logPath, errPath = s.cfg.LogFile, s.cfg.ErrorLogFile
	}

	elapsed := time.Since(s.runLog.Started()).Round(time.Millisecond)
	s.log.WithField("elapsed", elapsed).Info("Run finished")

	if err := s.runLog.WriteFiles(logPath, errPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	}

	s.note("Log entries", len(s.runLog.Entries()))
	s.note("Errors", len(s.runLog.Errors()))
	s.note("Log file", logPath)
	s.note("Error file", errPath)
	fmt.Println(renderSummary(s.summary, code == 0))

	return code
}

// withSession adapts a pipeline function into a cobra RunE. Errors returned
// by fn are logged into the run log rather than handed back to cobra, so
// they land in errors.txt and set the exit status.
func withSession(fn func(ctx context.Context, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err == nil {
			err = fn(cmd.Context(), s)
		}
		if err != nil {
			s.log.Error(err.Error())
		}
		exitCode = s.close()
		return nil
	}
}

// recoverSession reports a panic through the open session, if any.
func recoverSession(r any) int {
	s := current
	if s == nil || s.closed {
		fmt.Fprintf(os.Stderr, "Unexpected error: %v\n%s", r, debug.Stack())
		return 1
	}
	s.log.Errorf("Unexpected error: %v", r)
	s.log.Debug(string(debug.Stack()))
	s.close()
	return 1
}
