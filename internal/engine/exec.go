package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultWaitDelay caps how long Run waits for stdout/stderr to close after
// the engine has been killed.
const defaultWaitDelay = 2 * time.Second

// ExecRunner runs engines as subprocesses found on PATH.
type ExecRunner struct {
	// Env, when non-nil, replaces the inherited environment of the subprocess.
	Env []string
	// WaitDelay overrides defaultWaitDelay.
	WaitDelay time.Duration
}

// NewExecRunner returns an ExecRunner that inherits the process environment.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Probe looks the engine up on PATH and runs `<engine> --version`.
func (r *ExecRunner) Probe(ctx context.Context, e Engine) (string, error) {
	path, err := exec.LookPath(e.Name)
	if err != nil {
		return "", err
	}

	// #nosec G204 -- path comes from exec.LookPath over a fixed candidate list
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Env = r.Env
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", e.Name, err)
	}
	return firstLine(out), nil
}

// Run executes the engine in inv.OutputDir. The engine and its children run
// in their own process group so cancellation kills the whole tree.
func (r *ExecRunner) Run(ctx context.Context, e Engine, inv Invocation) (*Result, error) {
	// #nosec G204 -- engine name comes from configuration, arguments are fixed
	cmd := exec.CommandContext(ctx, e.Name, e.Args(inv)...)
	cmd.Dir = inv.OutputDir
	cmd.Env = r.Env
	cmd.WaitDelay = r.waitDelay()
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	// Context expiry takes precedence over the "signal: killed" exit error.
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return nil, fmt.Errorf("run %s: %w", e.Name, err)
}

func (r *ExecRunner) waitDelay() time.Duration {
	if r.WaitDelay > 0 {
		return r.WaitDelay
	}
	return defaultWaitDelay
}

func firstLine(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}
