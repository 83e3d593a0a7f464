// Package driver composes the tier policy, concurrency gates, patch
// pipeline, and verification gate into the attempt/escalation state
// machine: attempt → apply → verify → escalate/abort, until success or
// exhaustion.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/patchpilot/patchpilot/internal/events"
	"github.com/patchpilot/patchpilot/internal/gate"
	"github.com/patchpilot/patchpilot/internal/llm"
	"github.com/patchpilot/patchpilot/internal/patch"
	"github.com/patchpilot/patchpilot/internal/policy"
	"github.com/patchpilot/patchpilot/internal/verify"
	"github.com/patchpilot/patchpilot/pkg/models"
)

// Outcome is the terminal result of driving one task.
type Outcome struct {
	// Task is the final task value: total attempts, final tier, per-tier
	// counters.
	Task models.Task
	// State is Succeeded or Aborted.
	State models.TaskState
	// LastErrors is the error list from the most recent failed step.
	// Empty on success.
	LastErrors []string
	// TokensUsed sums the backend-reported token usage across attempts.
	TokensUsed int
}

// Driver runs tasks to completion. One Driver serves any number of
// concurrent tasks; the gate registry it holds is the shared admission
// control across all of them.
type Driver struct {
	completer llm.Completer
	applier   *patch.Applier
	verifier  *verify.Gate
	gates     *gate.Registry
	emitter   *events.Emitter
	// tierModels maps each tier to the model identifier it invokes.
	tierModels    map[models.Tier]string
	workspaceRoot string
	maxPatchLines int
}

// Deps bundles the collaborators a Driver composes.
type Deps struct {
	Completer     llm.Completer
	Applier       *patch.Applier
	Verifier      *verify.Gate
	Gates         *gate.Registry
	Emitter       *events.Emitter
	TierModels    map[models.Tier]string
	WorkspaceRoot string
	// MaxPatchLines overrides the default changed-line budget when > 0.
	MaxPatchLines int
}

// New creates a Driver from its collaborators.
func New(deps Deps) *Driver {
	return &Driver{
		completer:     deps.Completer,
		applier:       deps.Applier,
		verifier:      deps.Verifier,
		gates:         deps.Gates,
		emitter:       deps.Emitter,
		tierModels:    deps.TierModels,
		workspaceRoot: deps.WorkspaceRoot,
		maxPatchLines: deps.MaxPatchLines,
	}
}

// Run drives one task until it succeeds or exhausts its budget. The
// task value is never mutated; every transition produces a new value.
func (d *Driver) Run(ctx context.Context, task models.Task) Outcome {
	task = prepare(task)
	d.emitter.Emit(task, events.TaskCreated, "")

	var lastErrors []string
	tokens := 0

	for {
		// Abort is always evaluated first, before escalation and before
		// any work is spent on the next attempt.
		if err := ctx.Err(); err != nil {
			return d.abort(task, lastErrors, tokens, fmt.Sprintf("run cancelled: %v", err))
		}
		if policy.ShouldAbort(task) {
			return d.abort(task, lastErrors, tokens, "attempt budget exhausted")
		}

		// Counted before any network or filesystem work so a crash
		// mid-attempt still spends budget.
		task = policy.IncrementAttempt(task)
		d.emitter.Emit(task, events.AttemptStart, "")

		attemptErrs, attemptTokens, ok := d.attempt(ctx, task, lastErrors)
		tokens += attemptTokens
		d.emitter.Emit(task, events.AttemptEnd, attemptDetail(attemptErrs, ok))

		if ok {
			d.emitter.Emit(task, events.Completion, terminalDetail(task, nil))
			slog.Info("task succeeded",
				"task_id", task.ID, "tier", string(task.Tier), "attempts", task.Attempt)
			return Outcome{Task: task, State: models.TaskStateSucceeded, TokensUsed: tokens}
		}

		// The next prompt sees exactly this attempt's errors, never
		// anything older.
		lastErrors = attemptErrs

		if !policy.ShouldAbort(task) && policy.ShouldEscalate(task) {
			escalated, err := policy.Escalate(task)
			if err != nil {
				// ShouldEscalate guarantees a successor; reaching this is
				// a bug worth crashing over in tests, but in production
				// we abort the task instead of the process.
				return d.abort(task, lastErrors, tokens, fmt.Sprintf("escalation failed: %v", err))
			}
			task = escalated
			d.emitter.Emit(task, events.Escalation, fmt.Sprintf("escalated to %s", task.Tier))
		}
	}
}

// RunBatch drives independent tasks concurrently within one process.
// All tasks share the driver's gate registry, so per-tier admission
// limits hold across the whole batch. Outcomes are returned in input
// order.
func (d *Driver) RunBatch(ctx context.Context, tasks []models.Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	g := new(errgroup.Group)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			outcomes[i] = d.Run(ctx, task)
			return nil
		})
	}
	g.Wait()
	return outcomes
}

// attempt performs one full cycle: read files, build prompt, call the
// model under the tier's gate lease, parse, scope-check, apply, verify.
// It returns the error list for the next prompt and whether the attempt
// succeeded.
func (d *Driver) attempt(ctx context.Context, task models.Task, priorErrors []string) ([]string, int, bool) {
	snapshot := patch.ReadFiles(task.Files, d.workspaceRoot)
	prompt := patch.BuildPrompt(task, snapshot, priorErrors)

	// The gate lease covers only the model call. Holding it across
	// apply/verify would serialize child processes behind backend
	// capacity for no reason.
	var completion llm.Completion
	err := d.gates.Get(task.Tier).WithSlot(ctx, func(ctx context.Context) error {
		var callErr error
		completion, callErr = d.completer.Complete(ctx, d.tierModels[task.Tier], prompt)
		return callErr
	})
	if err != nil {
		// Retryable: surfaces as a synthetic error and rides the normal
		// escalate/abort path instead of crashing the driver.
		return []string{fmt.Sprintf("model call failed: %v", err)}, 0, false
	}
	tokens := completion.TotalTokens

	result := patch.ParseWithLimit(completion.Text, d.maxPatchLines)
	if result.Rejected {
		d.emitter.Emit(task, events.PatchRejected, result.Reason)
		return []string{result.Reason}, tokens, false
	}

	if err := patch.CheckScope(result.Diff, task.Files); err != nil {
		d.emitter.Emit(task, events.PatchRejected, err.Error())
		return []string{err.Error()}, tokens, false
	}

	if err := d.applier.Apply(ctx, result.Diff, d.workspaceRoot); err != nil {
		d.emitter.Emit(task, events.PatchRejected, err.Error())
		return []string{err.Error()}, tokens, false
	}
	d.emitter.Emit(task, events.PatchApplied, fmt.Sprintf("%d changed lines", result.ChangedLines))

	d.emitter.Emit(task, events.VerifyStart, "")
	vr := d.verifier.Run(ctx, d.workspaceRoot)
	if vr.OK {
		d.emitter.Emit(task, events.VerifyPass, "")
		return nil, tokens, true
	}
	d.emitter.Emit(task, events.VerifyFail, fmt.Sprintf("%d errors", len(vr.Errors)))
	return vr.Errors, tokens, false
}

// abort records the terminal failure with its full attempt history.
func (d *Driver) abort(task models.Task, lastErrors []string, tokens int, reason string) Outcome {
	d.emitter.Emit(task, events.Abort, terminalDetail(task, lastErrors))
	slog.Warn("task aborted",
		"task_id", task.ID,
		"tier", string(task.Tier),
		"attempts", task.Attempt,
		"reason", reason,
		"last_errors", strings.Join(lastErrors, "; "))
	return Outcome{Task: task, State: models.TaskStateAborted, LastErrors: lastErrors, TokensUsed: tokens}
}

// prepare fills the bookkeeping fields a fresh task record leaves empty.
func prepare(task models.Task) models.Task {
	task = task.Clone()
	if !task.Tier.Valid() {
		task.Tier = policy.InitialTier(task)
	}
	if task.MaxAttempts == 0 {
		task.MaxAttempts = policy.MaxTotalAttempts
	}
	return task
}

// attemptDetail summarizes one attempt for the attempt_end event.
func attemptDetail(errs []string, ok bool) string {
	if ok {
		return "succeeded"
	}
	return fmt.Sprintf("failed: %d errors", len(errs))
}

// terminalDetail captures the attempt history a human needs to see why
// escalation was (in)sufficient.
func terminalDetail(task models.Task, lastErrors []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "attempts=%d final_tier=%s", task.Attempt, task.Tier)
	for _, tier := range models.TierOrder {
		if n := task.TierAttempts[tier]; n > 0 {
			fmt.Fprintf(&b, " %s=%d", tier, n)
		}
	}
	if len(lastErrors) > 0 {
		fmt.Fprintf(&b, " last_errors=%q", strings.Join(lastErrors, "; "))
	}
	return b.String()
}
