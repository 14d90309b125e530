package tools

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Runner abstracts shell command execution for the orchestrator.
//
// Both methods run name with args in dir (process working directory is never
// mutated) and block until the command exits. Exit code conventions follow
// the shell: 0 success, 127 command-not-found. A non-nil error accompanies
// every non-zero exit; callers that treat non-zero exits as data inspect the
// code and fold the error into their report.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, int, error)
	RunStreaming(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) (int, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), exitCode(err), err
}

func (r ExecRunner) RunStreaming(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}

	err := cmd.Run()
	return exitCode(err), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return 127
	}
	return 1
}
