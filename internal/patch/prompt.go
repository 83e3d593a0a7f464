// Package patch turns a task and a file snapshot into a model request,
// parses the response into a unified diff, and applies it to the
// workspace through the external patch utility.
package patch

import (
	"fmt"
	"strings"

	"github.com/patchpilot/patchpilot/pkg/models"
)

// Placeholders substituted for file content the pipeline cannot read.
// Missing files are not errors: the model may be asked to create them.
const (
	MissingFilePlaceholder = "(file does not exist yet)"
	ReadErrorPlaceholder   = "(file could not be read)"
)

// promptHeader instructs the model to answer with exactly one fenced
// diff block. Kept minimal so responses stay parseable.
const promptHeader = `You are an automated code-editing agent. Produce a minimal unified diff
that completes the task below. Respond with exactly one fenced code block
tagged "diff" containing the patch, and nothing else. Paths are relative
to the workspace root and must use a/ and b/ prefixes. Do not rewrite
whole files; change only the lines the task requires.`

// FileSnapshot pairs an owned file path with its current content (or a
// placeholder).
type FileSnapshot struct {
	Path    string
	Content string
}

// BuildPrompt deterministically assembles the model prompt from the task
// description, the owned-file snapshot, and the previous attempt's error
// list when retrying. No side effects.
func BuildPrompt(task models.Task, snapshot []FileSnapshot, priorErrors []string) string {
	var b strings.Builder

	b.WriteString(promptHeader)
	b.WriteString("\n\n## Task\n\n")
	b.WriteString(task.Description)
	b.WriteString("\n\n## Files you may modify\n")
	for _, path := range task.Files {
		fmt.Fprintf(&b, "- %s\n", path)
	}

	b.WriteString("\n## Current file contents\n")
	for _, fs := range snapshot {
		fmt.Fprintf(&b, "\n### %s\n```\n%s\n```\n", fs.Path, fs.Content)
	}

	if len(priorErrors) > 0 {
		b.WriteString("\n## Errors from your previous attempt\n\n")
		b.WriteString("The last patch did not pass verification. Fix these:\n")
		for _, e := range priorErrors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	return b.String()
}
