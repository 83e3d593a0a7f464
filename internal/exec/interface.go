// Package exec provides an interface for command execution.
package exec

import "context"

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty, and env
	// entries ("KEY=value") are appended to the inherited environment.
	Run(ctx context.Context, workDir string, env []string, name string, args ...string) (output []byte, err error)

	// RunShell executes a shell command through "sh -c".
	RunShell(ctx context.Context, workDir string, env []string, command string) (output []byte, err error)

	// RunStdin executes a command with the given text piped to stdin.
	RunStdin(ctx context.Context, workDir string, stdin string, name string, args ...string) (output []byte, err error)
}
