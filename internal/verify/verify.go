// Package verify runs the external check suite against a workspace and
// reduces raw tool output into a bounded, prompt-sized error list.
package verify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	execpkg "github.com/patchpilot/patchpilot/internal/exec"
	"github.com/patchpilot/patchpilot/pkg/models"
)

// DefaultTimeout bounds each individual verification command.
const DefaultTimeout = 60 * time.Second

// DefaultCommands is the standard check suite: type-check, lint, build.
var DefaultCommands = []string{
	"npm run typecheck",
	"npm run lint",
	"npm run build",
}

// Gate runs verification commands sequentially against a workspace.
// Commands run in order, not in parallel: later commands (build) may
// depend on artifacts of earlier ones (type-check), and sequential runs
// keep error attribution meaningful.
type Gate struct {
	runner   execpkg.CommandRunner
	commands []string
	timeout  time.Duration
}

// NewGate creates a verification gate. Empty commands or a zero timeout
// fall back to the defaults.
func NewGate(runner execpkg.CommandRunner, commands []string, timeout time.Duration) *Gate {
	if len(commands) == 0 {
		commands = DefaultCommands
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{runner: runner, commands: commands, timeout: timeout}
}

// Run executes every command against the workspace, each under its own
// timeout and with CI=true set. Success requires all commands to exit
// zero. A timed-out command is killed and treated as a failure.
func (g *Gate) Run(ctx context.Context, workspaceRoot string) models.VerifyResult {
	var log strings.Builder
	var errs []string

	for _, command := range g.commands {
		output, err := g.runOne(ctx, workspaceRoot, command)

		log.WriteString(fmt.Sprintf("$ %s\n", command))
		log.Write(output)
		if log.Len() > 0 && !strings.HasSuffix(log.String(), "\n") {
			log.WriteString("\n")
		}

		if err == nil {
			continue
		}

		switch {
		case isTimeout(err):
			errs = append(errs, fmt.Sprintf("[%s] command timed out after %s", command, g.timeout))
		case len(output) == 0 && !isExitError(err):
			// Command failed to start; the diagnostic is in err, not output.
			errs = append(errs, fmt.Sprintf("[%s] error running command: %v", command, err))
		default:
			errs = append(errs, ParseErrors(string(output), command)...)
		}
	}

	return models.VerifyResult{
		OK:     len(errs) == 0,
		Errors: errs,
		Log:    log.String(),
	}
}

// runOne runs a single command under the gate's timeout.
func (g *Gate) runOne(ctx context.Context, workspaceRoot, command string) ([]byte, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	output, err := g.runner.RunShell(cmdCtx, workspaceRoot, []string{"CI=true"}, command)
	if err != nil && cmdCtx.Err() == context.DeadlineExceeded {
		return output, context.DeadlineExceeded
	}
	return output, err
}

// isTimeout reports whether the command was killed by its deadline.
func isTimeout(err error) bool {
	return err == context.DeadlineExceeded
}

// isExitError reports whether the command ran but exited nonzero, as
// opposed to failing to start.
func isExitError(err error) bool {
	_, ok := err.(*exec.ExitError)
	return ok
}
