package patch

import (
	"fmt"
	"strings"
	"testing"
)

// buildDiff fabricates a diff block with the given number of changed
// lines (split between added and removed), plus file headers.
func buildDiff(changed int) string {
	var b strings.Builder
	b.WriteString("--- a/src/main.ts\n+++ b/src/main.ts\n@@ -1,100 +1,100 @@\n")
	for i := 0; i < changed; i++ {
		if i%2 == 0 {
			fmt.Fprintf(&b, "+added line %d\n", i)
		} else {
			fmt.Fprintf(&b, "-removed line %d\n", i)
		}
	}
	return b.String()
}

func fence(diff string) string {
	return "Here is the patch:\n```diff\n" + diff + "```\n"
}

func TestParse_AcceptsValidDiff(t *testing.T) {
	result := Parse(fence(buildDiff(5)))

	if result.Rejected {
		t.Fatalf("Parse() rejected: %s", result.Reason)
	}
	if result.ChangedLines != 5 {
		t.Errorf("ChangedLines = %d, want 5", result.ChangedLines)
	}
	if !strings.HasPrefix(result.Diff, "--- a/src/main.ts") {
		t.Errorf("Diff not trimmed to block contents: %q", result.Diff[:40])
	}
}

func TestParse_NoDiffBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain prose", "I cannot produce a patch for this."},
		{"untagged fence", "```\nsome code\n```"},
		{"empty diff fence", "```diff\n\n```"},
		{"empty response", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.text)
			if !result.Rejected {
				t.Fatal("Parse() accepted, want rejection")
			}
			if result.Reason != RejectNoDiffBlock {
				t.Errorf("Reason = %q, want %q", result.Reason, RejectNoDiffBlock)
			}
			if result.Diff != "" || result.ChangedLines != 0 {
				t.Errorf("rejection populated diff fields: %+v", result)
			}
		})
	}
}

func TestParse_SizeBoundary(t *testing.T) {
	// Exactly at the cap is accepted.
	at := Parse(fence(buildDiff(MaxChangedLines)))
	if at.Rejected {
		t.Errorf("diff with exactly %d lines rejected: %s", MaxChangedLines, at.Reason)
	}

	// One over is rejected, carrying the exact count.
	over := Parse(fence(buildDiff(MaxChangedLines + 1)))
	if !over.Rejected {
		t.Fatalf("diff with %d lines accepted", MaxChangedLines+1)
	}
	if over.ChangedLines != MaxChangedLines+1 {
		t.Errorf("rejection count = %d, want %d", over.ChangedLines, MaxChangedLines+1)
	}
	if !strings.Contains(over.Reason, fmt.Sprintf("%d", MaxChangedLines+1)) {
		t.Errorf("Reason %q does not report the count", over.Reason)
	}
}

func TestParseWithLimit_CustomBudget(t *testing.T) {
	if result := ParseWithLimit(fence(buildDiff(11)), 10); !result.Rejected {
		t.Error("11 changed lines accepted under a budget of 10")
	}
	if result := ParseWithLimit(fence(buildDiff(10)), 10); result.Rejected {
		t.Errorf("10 changed lines rejected under a budget of 10: %s", result.Reason)
	}

	// Non-positive budgets fall back to the default.
	if result := ParseWithLimit(fence(buildDiff(MaxChangedLines)), 0); result.Rejected {
		t.Errorf("zero budget did not fall back to default: %s", result.Reason)
	}
}

func TestParse_UsesFirstBlockOnly(t *testing.T) {
	text := fence(buildDiff(2)) + "\nand another:\n" + fence(buildDiff(200))
	result := Parse(text)
	if result.Rejected {
		t.Fatalf("Parse() rejected: %s", result.Reason)
	}
	if result.ChangedLines != 2 {
		t.Errorf("ChangedLines = %d, want first block's 2", result.ChangedLines)
	}
}

func TestCountChangedLines_ExcludesHeaders(t *testing.T) {
	diff := "--- a/f.ts\n+++ b/f.ts\n@@ -1,2 +1,2 @@\n context\n-old\n+new\n"
	if got := CountChangedLines(diff); got != 2 {
		t.Errorf("CountChangedLines() = %d, want 2 (headers excluded)", got)
	}
}
