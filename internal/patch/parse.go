package patch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/patchpilot/patchpilot/pkg/models"
)

// MaxChangedLines bounds the blast radius of a single attempt. Patches
// changing more lines are rejected, which discourages whole-file
// rewrites in favor of minimal patches.
const MaxChangedLines = 300

// RejectNoDiffBlock is the rejection reason when the response carries no
// fenced diff block.
const RejectNoDiffBlock = "no diff block found"

// diffBlockRe matches a fenced code block tagged diff or patch. Only the
// first block is used.
var diffBlockRe = regexp.MustCompile("(?s)```(?:diff|patch)\\s*\\n(.*?)```")

// Parse extracts a single fenced diff block from the model response and
// validates its size against the default line budget. The result is
// either an accepted diff with its changed-line count, or a rejection
// reason. Never both.
func Parse(responseText string) models.PatchResult {
	return ParseWithLimit(responseText, MaxChangedLines)
}

// ParseWithLimit is Parse with a caller-supplied changed-line budget.
// A non-positive limit falls back to the default.
func ParseWithLimit(responseText string, maxLines int) models.PatchResult {
	if maxLines <= 0 {
		maxLines = MaxChangedLines
	}

	m := diffBlockRe.FindStringSubmatch(responseText)
	if m == nil {
		return models.PatchResult{Rejected: true, Reason: RejectNoDiffBlock}
	}

	diffText := strings.TrimSpace(m[1])
	if diffText == "" {
		return models.PatchResult{Rejected: true, Reason: RejectNoDiffBlock}
	}

	changed := CountChangedLines(diffText)
	if changed > maxLines {
		return models.PatchResult{
			Rejected:     true,
			ChangedLines: changed,
			Reason:       fmt.Sprintf("diff too large: %d changed lines (max %d)", changed, maxLines),
		}
	}

	return models.PatchResult{Diff: diffText, ChangedLines: changed}
}

// CountChangedLines counts added and removed lines, excluding the
// +++/--- file-header lines of the diff itself.
func CountChangedLines(diffText string) int {
	count := 0
	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, "-"):
			count++
		}
	}
	return count
}
