package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// CheckPatchUtility verifies that the 'patch' utility is available in
// PATH. Returns an error with installation instructions if not found.
func CheckPatchUtility() error {
	_, err := exec.LookPath("patch")
	if err != nil {
		return fmt.Errorf("patch utility not found in PATH\n\n" +
			"Patchpilot applies model-produced diffs with patch(1).\n\n" +
			"Install it with:\n" +
			"  apt install patch    (Debian/Ubuntu)\n" +
			"  brew install gpatch  (macOS)")
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "patchpilot",
	Short: "Automated code-editing task driver",
	Long: `Patchpilot drives code-editing tasks through a tiered escalation loop.

Each task names a description and the files it owns. Patchpilot prompts a
model for a unified diff, applies it with patch(1), and runs the project's
verification commands. Failed attempts retry with the errors fed back into
the prompt; repeated failures escalate to a stronger model tier until the
task succeeds or its attempt budget runs out.

Tiers (escalation order):
  - fast:     cheap model, high concurrency, first stop for small tasks
  - deep:     stronger model, serialized, for large or stubborn tasks
  - reviewer: final tier, last chance before abort`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
