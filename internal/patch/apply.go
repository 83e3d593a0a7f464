package patch

import (
	"context"
	"fmt"
	"strings"

	execpkg "github.com/patchpilot/patchpilot/internal/exec"
)

// Applier applies unified diffs to a workspace via the external patch
// utility. Hunks are applied forward-only and no .orig backups are
// created; a failed apply leaves diagnostics, never a retried patch.
type Applier struct {
	runner execpkg.CommandRunner
}

// NewApplier creates an Applier using the given command runner.
func NewApplier(runner execpkg.CommandRunner) *Applier {
	return &Applier{runner: runner}
}

// Apply pipes the diff to patch(1) with the workspace as working
// directory. A nonzero exit is surfaced as an error carrying the
// utility's diagnostic output.
func (a *Applier) Apply(ctx context.Context, diffText, workspaceRoot string) error {
	if !strings.HasSuffix(diffText, "\n") {
		diffText += "\n"
	}
	output, err := a.runner.RunStdin(ctx, workspaceRoot, diffText,
		"patch", "-p1", "--forward", "--no-backup-if-mismatch")
	if err != nil {
		return fmt.Errorf("patch apply failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
