package models

import "time"

// TaskState represents the current state of a task in the driver loop.
type TaskState string

const (
	// TaskStatePending indicates the task has not started.
	TaskStatePending TaskState = "pending"
	// TaskStateAttempting indicates an attempt is in flight.
	TaskStateAttempting TaskState = "attempting"
	// TaskStateEscalating indicates the task is moving to the next tier.
	TaskStateEscalating TaskState = "escalating"
	// TaskStateSucceeded indicates verification passed.
	TaskStateSucceeded TaskState = "succeeded"
	// TaskStateAborted indicates the attempt budget was exhausted.
	TaskStateAborted TaskState = "aborted"
)

// Valid returns true if the state is a known value.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStatePending, TaskStateAttempting, TaskStateEscalating, TaskStateSucceeded, TaskStateAborted:
		return true
	default:
		return false
	}
}

// Task is a unit of code-editing work. Task values are immutable by
// convention: every state transition returns a new Task rather than
// mutating in place, so concurrent observers never see a half-updated
// task.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" yaml:"id"`
	// Description is the natural-language statement of the work.
	Description string `json:"description" yaml:"description"`
	// Files are the workspace-relative paths this task exclusively
	// owns for writing, in order.
	Files []string `json:"files" yaml:"files"`
	// Tier is the capability level the next attempt will use.
	Tier Tier `json:"tier" yaml:"-"`
	// Attempt is the total attempt counter across all tiers. It never
	// decreases.
	Attempt int `json:"attempt" yaml:"-"`
	// TierAttempts counts attempts per tier. A tier's counter is reset
	// to zero only when that tier is newly entered.
	TierAttempts map[Tier]int `json:"tier_attempts" yaml:"-"`
	// MaxAttempts is the global attempt budget.
	MaxAttempts int `json:"max_attempts" yaml:"-"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Clone returns a copy of the task with its own TierAttempts map, so
// transitions on the copy never show through to the original.
func (t Task) Clone() Task {
	attempts := make(map[Tier]int, len(t.TierAttempts))
	for tier, n := range t.TierAttempts {
		attempts[tier] = n
	}
	files := make([]string, len(t.Files))
	copy(files, t.Files)
	t.TierAttempts = attempts
	t.Files = files
	return t
}

// CurrentTierAttempts returns the attempt count at the task's current tier.
func (t Task) CurrentTierAttempts() int {
	return t.TierAttempts[t.Tier]
}
