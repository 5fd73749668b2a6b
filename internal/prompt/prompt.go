// =============================================================================
// Metadata Deployer - Operator Prompt
// =============================================================================
//
// The pipeline stops twice for the operator: once before it touches the org,
// and after a failed import file when pauseOnError is set. Both go through a
// Prompter so that unattended runs (--yes) and tests never block.
//
// =============================================================================

package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
)

// ErrInterrupted is returned when the operator presses Ctrl+C at a prompt.
var ErrInterrupted = errors.New("interrupted by operator")

// ctrlC is what a raw terminal delivers for Ctrl+C.
const ctrlC = 0x03

// Prompter blocks until the operator acknowledges msg.
type Prompter interface {
	Wait(msg string) error
}

// NopPrompter never blocks.
type NopPrompter struct{}

// Wait implements Prompter.
func (NopPrompter) Wait(string) error { return nil }

// TerminalPrompter waits for a key press on a terminal, or a line on any
// other input.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminalPrompter prompts on stdout and reads stdin.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stdout}
}

// Wait prints msg and blocks for input. End of input counts as an
// acknowledgement.
func (p *TerminalPrompter) Wait(msg string) error {
	fmt.Fprint(p.Out, msg)
	defer fmt.Fprintln(p.Out)

	if f, ok := p.In.(*os.File); ok && term.IsTerminal(f.Fd()) {
		return waitKey(f)
	}
	return waitLine(p.In)
}

func waitKey(f *os.File) error {
	state, err := term.MakeRaw(f.Fd())
	if err != nil {
		return fmt.Errorf("failed to switch terminal to raw mode: %w", err)
	}
	defer term.Restore(f.Fd(), state)

	var key [1]byte
	if _, err := f.Read(key[:]); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read key: %w", err)
	}
	if key[0] == ctrlC {
		return ErrInterrupted
	}
	return nil
}

func waitLine(r io.Reader) error {
	_, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
