// Package policy decides which tier a task runs at, when it escalates,
// and when it gives up. Every function is pure over a Task value so the
// state machine is testable without any I/O.
package policy

import (
	"fmt"

	"github.com/patchpilot/patchpilot/pkg/models"
)

const (
	// MaxTotalAttempts is the global attempt budget per task.
	MaxTotalAttempts = 5
	// MaxTierAttempts is the attempt budget at any single tier before
	// the task must escalate or abort.
	MaxTierAttempts = 2

	// initialFileThreshold and initialDescThreshold route large or
	// vague tasks straight to the deep tier, skipping a wasted cheap
	// attempt.
	initialFileThreshold = 5
	initialDescThreshold = 1000
)

// ErrLastTier is returned by Escalate when the task is already at the
// last tier. Callers must check ShouldEscalate or Tier.Next first.
var ErrLastTier = fmt.Errorf("policy: no tier above %q", models.TierReviewer)

// InitialTier returns the tier a task should start at. Tasks owning
// more than 5 files or described in more than 1000 characters start at
// deep; everything else starts at fast.
func InitialTier(task models.Task) models.Tier {
	if len(task.Files) > initialFileThreshold || len(task.Description) > initialDescThreshold {
		return models.TierDeep
	}
	return models.TierFast
}

// NextTier returns the successor of the given tier, or false when the
// tier is the last one.
func NextTier(tier models.Tier) (models.Tier, bool) {
	return tier.Next()
}

// tierExhausted is the single authoritative budget check for the current
// tier. ShouldEscalate and ShouldAbort both derive from it so they can
// never disagree about whether a tier is spent.
func tierExhausted(task models.Task) bool {
	return task.CurrentTierAttempts() >= MaxTierAttempts
}

// ShouldEscalate returns true when the task has exhausted its current
// tier and a stronger tier exists.
func ShouldEscalate(task models.Task) bool {
	if !tierExhausted(task) {
		return false
	}
	_, ok := task.Tier.Next()
	return ok
}

// ShouldAbort returns true when the task has spent its global attempt
// budget, or its current tier is exhausted with nowhere left to
// escalate. The driver must evaluate this before ShouldEscalate.
func ShouldAbort(task models.Task) bool {
	if task.Attempt >= task.MaxAttempts {
		return true
	}
	if tierExhausted(task) {
		_, ok := task.Tier.Next()
		return !ok
	}
	return false
}

// Escalate returns a copy of the task moved to the next tier with that
// tier's attempt counter reset to zero. The global counter is untouched;
// it is incremented per attempt, not per escalation. Calling Escalate at
// the last tier is a programming error and returns ErrLastTier.
func Escalate(task models.Task) (models.Task, error) {
	next, ok := task.Tier.Next()
	if !ok {
		return models.Task{}, ErrLastTier
	}
	out := task.Clone()
	out.Tier = next
	out.TierAttempts[next] = 0
	return out, nil
}

// IncrementAttempt returns a copy of the task with both the global and
// the current tier's attempt counters incremented. The driver calls this
// exactly once per loop iteration, before any network or filesystem
// work, so a crash mid-attempt still counts against the budget.
func IncrementAttempt(task models.Task) models.Task {
	out := task.Clone()
	out.Attempt++
	out.TierAttempts[out.Tier]++
	return out
}
