// Package execx provides a narrow interface for invoking external CLI tools,
// so packages that shell out to kubectl, minikube, terraform and helm can be
// exercised in tests without the real binaries.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Command describes a single external tool invocation.
type Command struct {
	// Name is the binary to invoke (e.g. "kubectl").
	Name string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env lists extra KEY=VALUE entries appended to the process environment.
	Env []string
	// Stdin is fed to the process when non-nil.
	Stdin []byte
	// Stdout receives streamed output for Run; defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives streamed diagnostics for Run; defaults to os.Stderr.
	Stderr io.Writer
}

// Handle tracks a long-running background process started with Start.
type Handle interface {
	// Pid returns the OS process id.
	Pid() int
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// Err returns the exit error; only valid after Done is closed.
	Err() error
	// Stderr returns diagnostics captured so far; only meaningful after exit.
	Stderr() string
	// Kill terminates the process.
	Kill() error
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command to completion, streaming output.
	Run(ctx context.Context, cmd Command) error
	// Output executes the command to completion and returns captured stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
	// Start launches the command as a background process.
	Start(ctx context.Context, cmd Command) (Handle, error)
	// LookPath reports whether the named binary is on PATH.
	LookPath(name string) error
}

// Local is a Runner backed by os/exec.
type Local struct{}

// NewLocal constructs a Runner that executes commands on the local host.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) build(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != nil {
		c.Stdin = bytes.NewReader(cmd.Stdin)
	}
	return c
}

// Run executes the command, streaming stdout/stderr to the configured writers.
func (l *Local) Run(ctx context.Context, cmd Command) error {
	c := l.build(ctx, cmd)
	c.Stdout = cmd.Stdout
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	c.Stderr = cmd.Stderr
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if err := c.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", cmd.Name, strings.Join(cmd.Args, " "), err)
	}
	return nil
}

// Output executes the command and returns its stdout, folding stderr into the error.
func (l *Local) Output(ctx context.Context, cmd Command) ([]byte, error) {
	c := l.build(ctx, cmd)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s %s: %w: %s", cmd.Name, strings.Join(cmd.Args, " "), err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%s %s: %w", cmd.Name, strings.Join(cmd.Args, " "), err)
	}
	return stdout.Bytes(), nil
}

// Start launches the command in the background and returns a Handle for it.
func (l *Local) Start(ctx context.Context, cmd Command) (Handle, error) {
	c := l.build(ctx, cmd)
	h := &localHandle{done: make(chan struct{})}
	c.Stdout = io.Discard
	c.Stderr = &h.stderr
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("start %s %s: %w", cmd.Name, strings.Join(cmd.Args, " "), err)
	}
	h.cmd = c
	go func() {
		err := c.Wait()
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	}()
	return h, nil
}

// NotInstalledError indicates a required external binary is missing from PATH.
type NotInstalledError struct {
	// Tool is the binary name that was looked up.
	Tool string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("%s not found in PATH", e.Tool)
}

// IsNotInstalled reports whether err indicates a missing external binary.
func IsNotInstalled(err error) bool {
	var target *NotInstalledError
	return errors.As(err, &target)
}

// LookPath reports whether the named binary can be found on PATH.
func (l *Local) LookPath(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return &NotInstalledError{Tool: name}
	}
	return nil
}

type localHandle struct {
	cmd    *exec.Cmd
	done   chan struct{}
	mu     sync.Mutex
	err    error
	stderr bytes.Buffer
}

func (h *localHandle) Pid() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *localHandle) Done() <-chan struct{} { return h.done }

func (h *localHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stderr must only be called after Done is closed; the buffer is written by
// the process copier until Wait returns.
func (h *localHandle) Stderr() string {
	return strings.TrimSpace(h.stderr.String())
}

func (h *localHandle) Kill() error {
	if h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}
