package models

// PatchResult is the outcome of parsing a model response into a patch.
// It is either an accepted diff with a changed-line count, or a
// rejection reason. Never both.
type PatchResult struct {
	// Diff is the trimmed unified-diff text. Empty on rejection.
	Diff string
	// ChangedLines counts added/removed lines, excluding the +++/---
	// file headers. On a size rejection it carries the offending count.
	ChangedLines int
	// Rejected indicates the response did not yield a usable patch.
	Rejected bool
	// Reason is the human-readable rejection reason. Empty on acceptance.
	Reason string
}

// Accepted returns true if the result carries a usable diff.
func (r PatchResult) Accepted() bool {
	return !r.Rejected
}

// VerifyResult is the outcome of running the verification suite.
type VerifyResult struct {
	// OK is true when every command exited zero.
	OK bool
	// Errors holds the bounded, tool-attributed error lines. Populated
	// only on failure.
	Errors []string
	// Log is the raw combined output of all commands, kept for
	// diagnostics.
	Log string
}
