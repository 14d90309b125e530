// Package exectest provides a scripted tools.Runner for subprocess tests.
package exectest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Call records one command invocation, including its working directory.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call the way assertions want to read it.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result scripts the outcome of one invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Err      error
}

// Runner replays scripted results in call order and records every call.
// An exhausted script yields clean successes. Safe for concurrent use.
type Runner struct {
	mu      sync.Mutex
	Calls   []Call
	Results []Result
}

func (r *Runner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, int, error) {
	res := r.record(dir, name, args)
	return res.Stdout, res.Stderr, res.ExitCode, res.Err
}

func (r *Runner) RunStreaming(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	res := r.record(dir, name, args)
	if stdout != nil && len(res.Stdout) > 0 {
		stdout.Write(res.Stdout)
	}
	if stderr != nil && len(res.Stderr) > 0 {
		stderr.Write(res.Stderr)
	}
	return res.ExitCode, res.Err
}

// Commands returns every recorded call as a joined string.
func (r *Runner) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}

func (r *Runner) record(dir string, name string, args []string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, Call{Dir: dir, Name: name, Args: append([]string(nil), args...)})
	if len(r.Results) == 0 {
		return Result{}
	}
	next := r.Results[0]
	r.Results = r.Results[1:]
	if next.ExitCode != 0 && next.Err == nil {
		next.Err = fmt.Errorf("exit status %d", next.ExitCode)
	}
	return next
}
