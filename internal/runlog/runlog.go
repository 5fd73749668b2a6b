// =============================================================================
// Metadata Deployer - Run Log
// =============================================================================
//
// The run log collects every line the pipeline reports while it works and
// persists them once, at the end of the run, to two plain-text files:
//
//   log.txt     - every entry, in order
//   errors.txt  - error entries only, in the same relative order
//
// Components never touch the Log directly. They log through logrus, and the
// Hook below copies each entry into the Log, so the console and the files
// always agree.
//
// =============================================================================

package runlog

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/ginjaninja78/metadata-deployer/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Recorder is the sink every log entry is appended to.
type Recorder interface {
	Record(entry string, isError bool)
}

// =============================================================================
// LOG
// =============================================================================

// Log is an append-only pair of entry sequences.
type Log struct {
	mu      sync.Mutex
	runID   string
	started time.Time
	entries []string
	errors  []string
}

// New returns an empty log stamped with a fresh run id.
func New() *Log {
	return &Log{
		runID:   uuid.NewString(),
		started: time.Now(),
	}
}

// RunID identifies this run in both persisted files.
func (l *Log) RunID() string { return l.runID }

// Started is when the log was created.
func (l *Log) Started() time.Time { return l.started }

// Record appends an entry. Error entries are also appended to the error
// subset.
func (l *Log) Record(entry string, isError bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if isError {
		l.errors = append(l.errors, entry)
	}
}

// Entries returns a copy of every entry.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Errors returns a copy of the error entries.
func (l *Log) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// HasErrors reports whether any error entry was recorded.
func (l *Log) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors) > 0
}

// =============================================================================
// REPORT
// =============================================================================

// WriteFiles persists the log. Both files are overwritten; the error file is
// written even when empty so a stale one from an earlier run never survives.
//
// PARAMETERS:
//   - logPath: destination for every entry.
//   - errPath: destination for the error entries.
func (l *Log) WriteFiles(logPath, errPath string) error {
	header := fmt.Sprintf("Run %s started %s", l.runID, l.started.Format(time.RFC3339))

	if err := utils.WriteLines(logPath, append([]string{header}, l.Entries()...)); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	if err := utils.WriteLines(errPath, append([]string{header}, l.Errors()...)); err != nil {
		return fmt.Errorf("failed to write error log file: %w", err)
	}
	return nil
}

// ExitCode is 0 when the run recorded no errors and 1 otherwise.
func ExitCode(l *Log) int {
	if l.HasErrors() {
		return 1
	}
	return 0
}

// =============================================================================
// LOGRUS INTEGRATION
// =============================================================================

// Hook copies every logrus entry into a Recorder. Entries at error level or
// above are recorded as errors.
type Hook struct {
	rec Recorder
}

// NewHook returns a hook feeding rec.
func NewHook(rec Recorder) *Hook {
	return &Hook{rec: rec}
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *Hook) Fire(e *logrus.Entry) error {
	h.rec.Record(formatEntry(e), e.Level <= logrus.ErrorLevel)
	return nil
}

// formatEntry renders an entry as "LEVEL message key=value ..." with the
// fields sorted, omitting the fields every entry carries.
func formatEntry(e *logrus.Entry) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(e.Level.String()))
	b.WriteString(" ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k == FieldRunID {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	return b.String()
}

// Field names shared by every component.
const (
	FieldRunID     = "run"
	FieldComponent = "component"
)

// NewLogger builds the run's logger: coloured text on out, every entry
// mirrored into the log.
//
// PARAMETERS:
//   - level: "debug", "info", "warn" or "error". Unknown values mean info.
//   - out: console destination, usually os.Stdout.
//   - l: the run log to mirror into.
//
// RETURNS:
//   - An entry carrying the run id, to derive component loggers from.
func NewLogger(level string, out io.Writer, l *Log) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
		ForceColors:     isTerminal(out),
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	logger.AddHook(NewHook(l))

	return logger.WithField(FieldRunID, l.RunID())
}

// Component derives a logger tagged with a component name.
func Component(base *logrus.Entry, name string) *logrus.Entry {
	return base.WithField(FieldComponent, name)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}
