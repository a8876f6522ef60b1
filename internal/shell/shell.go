// Package shell runs the commands bound to secrets by directives.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/schaermu/sops-shell/internal/failure"
)

// DefaultShell is the interpreter used when none is configured
const DefaultShell = "sh"

// Runner executes a command line and returns its trimmed standard output
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ShellRunner implements Runner by passing the command to "<shell> -c".
//
// Commands run synchronously with no timeout. Stdin is shared with the caller
// so commands may prompt for credentials.
type ShellRunner struct {
	shell string
	env   []string
	stdin io.Reader
}

// Option configures a ShellRunner
type Option func(*ShellRunner)

// WithShell overrides the interpreter
func WithShell(path string) Option {
	return func(r *ShellRunner) {
		if path != "" {
			r.shell = path
		}
	}
}

// WithEnv appends variables to the environment snapshot
func WithEnv(vars map[string]string) Option {
	return func(r *ShellRunner) {
		r.env = append(r.env, envList(vars)...)
	}
}

// WithStdin replaces the inherited standard input
func WithStdin(stdin io.Reader) Option {
	return func(r *ShellRunner) {
		r.stdin = stdin
	}
}

// NewShellRunner creates a runner whose children inherit a snapshot of the
// current process environment, taken now.
func NewShellRunner(opts ...Option) *ShellRunner {
	r := &ShellRunner{
		shell: DefaultShell,
		env:   os.Environ(),
		stdin: os.Stdin,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes command and returns its standard output without surrounding
// whitespace. A non-zero exit yields a CommandExecution failure carrying the
// command's stderr.
func (r *ShellRunner) Run(ctx context.Context, command string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Env = r.env
	cmd.Stdin = r.stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", failure.New(failure.CommandExecution, fmt.Errorf("command failed: %w", err))
		}
		return "", failure.New(failure.CommandExecution, fmt.Errorf("command failed: %w: %s", err, msg))
	}

	if !utf8.Valid(stdout.Bytes()) {
		return "", failure.Errorf(failure.Encoding, "command output is not valid UTF-8")
	}

	return strings.TrimSpace(stdout.String()), nil
}

// envList renders vars as KEY=VALUE pairs in a stable order
func envList(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+vars[k])
	}
	return result
}
