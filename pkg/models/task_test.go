package models

import "testing"

func TestTaskState_Valid(t *testing.T) {
	tests := []struct {
		name  string
		state TaskState
		want  bool
	}{
		{"pending is valid", TaskStatePending, true},
		{"attempting is valid", TaskStateAttempting, true},
		{"escalating is valid", TaskStateEscalating, true},
		{"succeeded is valid", TaskStateSucceeded, true},
		{"aborted is valid", TaskStateAborted, true},
		{"empty is invalid", TaskState(""), false},
		{"unknown is invalid", TaskState("paused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Valid(); got != tt.want {
				t.Errorf("TaskState(%q).Valid() = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}

func TestTask_Clone_Isolation(t *testing.T) {
	orig := Task{
		ID:           "t-1",
		Description:  "rename a symbol",
		Files:        []string{"a.ts", "b.ts"},
		Tier:         TierFast,
		Attempt:      2,
		TierAttempts: map[Tier]int{TierFast: 2},
		MaxAttempts:  5,
	}

	clone := orig.Clone()
	clone.TierAttempts[TierFast] = 99
	clone.Files[0] = "z.ts"

	if orig.TierAttempts[TierFast] != 2 {
		t.Errorf("mutating clone's TierAttempts leaked into original: got %d", orig.TierAttempts[TierFast])
	}
	if orig.Files[0] != "a.ts" {
		t.Errorf("mutating clone's Files leaked into original: got %q", orig.Files[0])
	}
}

func TestTask_CurrentTierAttempts(t *testing.T) {
	task := Task{
		Tier:         TierDeep,
		TierAttempts: map[Tier]int{TierFast: 2, TierDeep: 1},
	}
	if got := task.CurrentTierAttempts(); got != 1 {
		t.Errorf("CurrentTierAttempts() = %d, want 1", got)
	}

	// A tier that was never entered reads as zero.
	task.Tier = TierReviewer
	if got := task.CurrentTierAttempts(); got != 0 {
		t.Errorf("CurrentTierAttempts() for fresh tier = %d, want 0", got)
	}
}

func TestPatchResult_Accepted(t *testing.T) {
	ok := PatchResult{Diff: "--- a\n+++ b\n", ChangedLines: 1}
	if !ok.Accepted() {
		t.Error("result with diff should be accepted")
	}
	rej := PatchResult{Rejected: true, Reason: "no diff block found"}
	if rej.Accepted() {
		t.Error("rejected result should not be accepted")
	}
}
