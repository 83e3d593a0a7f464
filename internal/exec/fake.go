package exec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// CommandCall records one invocation against a FakeRunner.
type CommandCall struct {
	Name  string
	Args  []string
	Dir   string
	Stdin string
}

// stub holds the scripted outcome for one command.
type stub struct {
	output []byte
	err    error
}

// FakeRunner is a CommandRunner test double. Outcomes are scripted per
// command with Script; unscripted commands fail loudly.
type FakeRunner struct {
	mu    sync.Mutex
	calls []CommandCall
	stubs map[string]stub
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{stubs: make(map[string]stub)}
}

// Script registers the output and error returned for a command.
func (f *FakeRunner) Script(name string, args []string, output []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs[stubKey(name, args)] = stub{output: output, err: err}
}

// Run returns the scripted outcome for the command.
func (f *FakeRunner) Run(ctx context.Context, workDir string, env []string, name string, args ...string) ([]byte, error) {
	return f.record(CommandCall{Name: name, Args: append([]string(nil), args...), Dir: workDir})
}

// RunShell routes through Run the way ExecRunner does.
func (f *FakeRunner) RunShell(ctx context.Context, workDir string, env []string, command string) ([]byte, error) {
	return f.Run(ctx, workDir, env, "sh", "-c", command)
}

// RunStdin returns the scripted outcome, recording the stdin text.
func (f *FakeRunner) RunStdin(ctx context.Context, workDir string, stdin string, name string, args ...string) ([]byte, error) {
	return f.record(CommandCall{Name: name, Args: append([]string(nil), args...), Dir: workDir, Stdin: stdin})
}

// Calls returns a copy of every recorded invocation in order.
func (f *FakeRunner) Calls() []CommandCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CommandCall(nil), f.calls...)
}

func (f *FakeRunner) record(call CommandCall) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	s, ok := f.stubs[stubKey(call.Name, call.Args)]
	if !ok {
		return nil, fmt.Errorf("missing stub for command %s %s", call.Name, strings.Join(call.Args, " "))
	}
	return s.output, s.err
}

func stubKey(name string, args []string) string {
	return fmt.Sprintf("%s\x00%s", name, strings.Join(args, "\x00"))
}

var _ CommandRunner = (*FakeRunner)(nil)
