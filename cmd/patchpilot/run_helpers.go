package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/patchpilot/patchpilot/internal/driver"
	"github.com/patchpilot/patchpilot/pkg/models"
)

// taskFile is the YAML shape of a run input file.
type taskFile struct {
	Tasks []taskSpec `yaml:"tasks"`
}

type taskSpec struct {
	Description string   `yaml:"description"`
	Files       []string `yaml:"files"`
	// Tier optionally pins the starting tier; empty means auto-select.
	Tier string `yaml:"tier"`
}

// loadTaskFile parses and validates a task file. Any malformed record
// fails the whole file; partial batches are worse than no batch.
func loadTaskFile(path string) ([]models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var tf taskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	if len(tf.Tasks) == 0 {
		return nil, fmt.Errorf("task file %s contains no tasks", path)
	}

	tasks := make([]models.Task, 0, len(tf.Tasks))
	for i, spec := range tf.Tasks {
		if strings.TrimSpace(spec.Description) == "" {
			return nil, fmt.Errorf("task %d: description is required", i+1)
		}
		if len(spec.Files) == 0 {
			return nil, fmt.Errorf("task %d: at least one file is required", i+1)
		}
		task := models.Task{
			ID:          uuid.New().String()[:8],
			Description: spec.Description,
			Files:       spec.Files,
		}
		if spec.Tier != "" {
			tier := models.Tier(spec.Tier)
			if !tier.Valid() {
				return nil, fmt.Errorf("task %d: invalid tier %q", i+1, spec.Tier)
			}
			task.Tier = tier
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

var (
	summaryBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)

	summaryTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	summarySucceeded = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	summaryAborted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	summaryLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// renderSummary builds the end-of-run summary block.
func renderSummary(outcomes []driver.Outcome) string {
	succeeded, aborted, attempts, tokens := 0, 0, 0, 0
	for _, o := range outcomes {
		if o.State == models.TaskStateSucceeded {
			succeeded++
		} else {
			aborted++
		}
		attempts += o.Task.Attempt
		tokens += o.TokensUsed
	}

	var b strings.Builder
	b.WriteString(summaryTitle.Render("Run summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n",
		summaryLabel.Render("succeeded:"),
		summarySucceeded.Render(fmt.Sprintf("%d", succeeded)))
	fmt.Fprintf(&b, "%s %s\n",
		summaryLabel.Render("aborted:  "),
		summaryAborted.Render(fmt.Sprintf("%d", aborted)))
	fmt.Fprintf(&b, "%s %d\n", summaryLabel.Render("attempts: "), attempts)
	fmt.Fprintf(&b, "%s %d", summaryLabel.Render("tokens:   "), tokens)

	return summaryBorder.Render(b.String())
}
