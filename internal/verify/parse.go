package verify

import (
	"fmt"
	"strings"
)

// MaxErrorsPerCommand caps how many diagnostic lines one command may
// contribute to the feedback prompt.
const MaxErrorsPerCommand = 10

// classifier selects the lines of a tool's output that likely carry
// diagnostics.
type classifier func(line string) bool

// toolStrategy pairs a detector (does this shell command run the tool?)
// with the tool's line classifier.
type toolStrategy struct {
	matches  func(command string) bool
	classify classifier
}

// strategies is the per-tool reduction table, checked in order. The
// first strategy whose detector matches the command wins; unrecognized
// commands use the generic classifier.
var strategies = []toolStrategy{
	{
		// tsc prints "file.ts(3,7): error TS2304: ..." or "error TS...".
		matches: commandMentions("tsc", "typecheck", "mypy"),
		classify: func(line string) bool {
			return strings.Contains(line, "error TS") ||
				strings.Contains(line, ": error") ||
				strings.Contains(line, "error:")
		},
	},
	{
		// eslint prints "  3:7  error  ..." rows; ruff/flake8 print
		// "file.py:3:7: E501 ...".
		matches: commandMentions("lint", "eslint", "ruff", "flake8", "vet"),
		classify: func(line string) bool {
			lower := strings.ToLower(line)
			return strings.Contains(lower, "error") || strings.Contains(lower, "warning")
		},
	},
	{
		// Build tools are chatty; keep only explicit error rows.
		matches: commandMentions("build", "compile"),
		classify: func(line string) bool {
			lower := strings.ToLower(line)
			return strings.Contains(lower, "error") || strings.Contains(lower, "failed")
		},
	},
}

// genericClassifier is the documented fallback for unrecognized tools.
func genericClassifier(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "error") || strings.Contains(lower, "fail")
}

// commandMentions builds a detector matching any of the given substrings.
func commandMentions(words ...string) func(string) bool {
	return func(command string) bool {
		lower := strings.ToLower(command)
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}

// ParseErrors reduces a failed command's output to at most
// MaxErrorsPerCommand diagnostic lines, each prefixed with the command
// for attribution. If no line matches the tool's classifier it falls
// back to a prefix of the raw output, and for empty output to a generic
// failure message.
func ParseErrors(output, command string) []string {
	classify := genericClassifier
	for _, s := range strategies {
		if s.matches(command) {
			classify = s.classify
			break
		}
	}

	var selected []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if classify(line) {
			selected = append(selected, fmt.Sprintf("[%s] %s", command, strings.TrimSpace(line)))
			if len(selected) >= MaxErrorsPerCommand {
				break
			}
		}
	}
	if len(selected) > 0 {
		return selected
	}

	// No recognizable diagnostics; fall back to the raw head.
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		selected = append(selected, fmt.Sprintf("[%s] %s", command, strings.TrimSpace(line)))
		if len(selected) >= MaxErrorsPerCommand {
			break
		}
	}
	if len(selected) > 0 {
		return selected
	}

	return []string{fmt.Sprintf("[%s] failed with non-zero exit", command)}
}
