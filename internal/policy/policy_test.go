package policy

import (
	"strings"
	"testing"

	"github.com/patchpilot/patchpilot/pkg/models"
)

func newTask(tier models.Tier, attempt int, tierAttempts map[models.Tier]int) models.Task {
	return models.Task{
		ID:           "t-1",
		Tier:         tier,
		Attempt:      attempt,
		TierAttempts: tierAttempts,
		MaxAttempts:  MaxTotalAttempts,
	}
}

func TestInitialTier(t *testing.T) {
	tests := []struct {
		name  string
		files int
		desc  int
		want  models.Tier
	}{
		{"small task starts fast", 2, 50, models.TierFast},
		{"six files starts deep", 6, 50, models.TierDeep},
		{"long description starts deep", 2, 1200, models.TierDeep},
		{"exactly five files stays fast", 5, 50, models.TierFast},
		{"exactly 1000 chars stays fast", 1, 1000, models.TierFast},
		{"1001 chars starts deep", 1, 1001, models.TierDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := models.Task{
				Files:       make([]string, tt.files),
				Description: strings.Repeat("x", tt.desc),
			}
			if got := InitialTier(task); got != tt.want {
				t.Errorf("InitialTier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldEscalate(t *testing.T) {
	tests := []struct {
		name string
		task models.Task
		want bool
	}{
		{
			"under tier cap does not escalate",
			newTask(models.TierFast, 1, map[models.Tier]int{models.TierFast: 1}),
			false,
		},
		{
			"at tier cap with successor escalates",
			newTask(models.TierFast, 2, map[models.Tier]int{models.TierFast: 2}),
			true,
		},
		{
			"at tier cap on last tier never escalates",
			newTask(models.TierReviewer, 4, map[models.Tier]int{models.TierReviewer: 2}),
			false,
		},
		{
			"deep escalates to reviewer at cap",
			newTask(models.TierDeep, 4, map[models.Tier]int{models.TierDeep: 2}),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldEscalate(tt.task); got != tt.want {
				t.Errorf("ShouldEscalate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldAbort(t *testing.T) {
	tests := []struct {
		name string
		task models.Task
		want bool
	}{
		{
			"fresh task does not abort",
			newTask(models.TierFast, 0, map[models.Tier]int{}),
			false,
		},
		{
			"global budget spent aborts",
			newTask(models.TierDeep, 5, map[models.Tier]int{models.TierDeep: 1}),
			true,
		},
		{
			"last tier exhausted aborts",
			newTask(models.TierReviewer, 4, map[models.Tier]int{models.TierReviewer: 2}),
			true,
		},
		{
			"mid tier exhausted does not abort",
			newTask(models.TierFast, 2, map[models.Tier]int{models.TierFast: 2}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldAbort(tt.task); got != tt.want {
				t.Errorf("ShouldAbort() = %v, want %v", got, tt.want)
			}
		})
	}
}

// An exhausted tier must resolve to exactly one of escalate or abort,
// never both and never neither.
func TestEscalateAbort_NeverDisagree(t *testing.T) {
	for _, tier := range models.TierOrder {
		task := newTask(tier, 2, map[models.Tier]int{tier: MaxTierAttempts})
		esc := ShouldEscalate(task)
		abort := ShouldAbort(task)
		if esc == abort {
			t.Errorf("tier %q exhausted: ShouldEscalate=%v ShouldAbort=%v, want exactly one true", tier, esc, abort)
		}
	}
}

func TestEscalate(t *testing.T) {
	task := newTask(models.TierFast, 2, map[models.Tier]int{models.TierFast: 2, models.TierDeep: 1})

	out, err := Escalate(task)
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if out.Tier != models.TierDeep {
		t.Errorf("Escalate() tier = %q, want %q", out.Tier, models.TierDeep)
	}
	if out.TierAttempts[models.TierDeep] != 0 {
		t.Errorf("new tier counter = %d, want 0", out.TierAttempts[models.TierDeep])
	}
	if out.Attempt != 2 {
		t.Errorf("global counter changed by escalation: got %d, want 2", out.Attempt)
	}
	// Original is untouched.
	if task.Tier != models.TierFast || task.TierAttempts[models.TierDeep] != 1 {
		t.Error("Escalate() mutated its input")
	}
}

func TestEscalate_LastTierFails(t *testing.T) {
	task := newTask(models.TierReviewer, 3, map[models.Tier]int{models.TierReviewer: 1})
	if _, err := Escalate(task); err == nil {
		t.Fatal("Escalate() at last tier should fail")
	}
}

func TestIncrementAttempt(t *testing.T) {
	task := newTask(models.TierDeep, 2, map[models.Tier]int{models.TierFast: 2, models.TierDeep: 0})

	out := IncrementAttempt(task)
	if out.Attempt != 3 {
		t.Errorf("global counter = %d, want 3", out.Attempt)
	}
	if out.TierAttempts[models.TierDeep] != 1 {
		t.Errorf("tier counter = %d, want 1", out.TierAttempts[models.TierDeep])
	}
	if out.TierAttempts[models.TierFast] != 2 {
		t.Errorf("other tier counter = %d, want 2", out.TierAttempts[models.TierFast])
	}
	if task.Attempt != 2 {
		t.Error("IncrementAttempt() mutated its input")
	}
}
