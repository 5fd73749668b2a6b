package runner

import (
	"context"
	"sync"
)

// Fake is a Runner that records every command and answers from Handler.
// A nil Handler makes every command succeed with empty output.
type Fake struct {
	Handler func(cmd Command) (Result, error)

	mu    sync.Mutex
	calls []Command
}

// Run implements Runner.
func (f *Fake) Run(ctx context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{Command: cmd, ExitCode: -1}, err
	}
	if f.Handler == nil {
		return Result{Command: cmd}, nil
	}
	res, err := f.Handler(cmd)
	res.Command = cmd
	return res, err
}

// Calls returns the commands run so far, in order.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}
