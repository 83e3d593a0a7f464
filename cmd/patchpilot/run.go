package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/driver"
	"github.com/patchpilot/patchpilot/internal/events"
	execpkg "github.com/patchpilot/patchpilot/internal/exec"
	"github.com/patchpilot/patchpilot/internal/gate"
	"github.com/patchpilot/patchpilot/internal/llm"
	"github.com/patchpilot/patchpilot/internal/patch"
	"github.com/patchpilot/patchpilot/internal/signals"
	"github.com/patchpilot/patchpilot/internal/verify"
	"github.com/patchpilot/patchpilot/pkg/models"
)

var (
	runWorkspace  string
	runConfigPath string
	runTier       string
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run <task-file>",
	Short: "Run code-editing tasks from a YAML file",
	Long: `Run the tasks described in a YAML file against the workspace.

The task file lists one or more tasks, each with a description and the
files it owns:

  tasks:
    - description: rename parseConfig to loadConfig
      files:
        - src/config.ts
        - src/index.ts

Tasks run concurrently, sharing per-tier concurrency gates. Each attempt
prompts the tier's model for a unified diff, applies it with patch(1),
and runs the verification commands. Failures retry with the errors fed
back; two failures at a tier escalate to the next one.

Tier selection (--tier):
  - fast:     default for small tasks (5 files or fewer, short description)
  - deep:     default for large tasks; forced with --tier deep
  - reviewer: final escalation tier

A stop file at .patchpilot/signals/stop in the workspace cancels the run,
as does SIGINT/SIGTERM. In-flight attempts finish their bookkeeping and
tasks abort cleanly.`,
	Args: cobra.ExactArgs(1),
	RunE: runTasks,
}

func init() {
	runCmd.Flags().StringVar(&runWorkspace, "workspace", "", "Workspace root (default: current directory)")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Config file path (default: XDG + project lookup)")
	runCmd.Flags().StringVar(&runTier, "tier", "", "Force the initial tier: fast, deep, or reviewer")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Log every lifecycle event")
}

func runTasks(cmd *cobra.Command, args []string) error {
	taskPath := args[0]

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("no API key configured\n\n" +
			"Set OPENAI_API_KEY, or add openai.api_key to\n" +
			"~/.config/patchpilot/config.yaml or .patchpilot.yaml")
	}

	workspace := runWorkspace
	if workspace == "" {
		workspace, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}
	workspace, err = filepath.Abs(workspace)
	if err != nil {
		return fmt.Errorf("resolve workspace path: %w", err)
	}

	// Bad workspaces fail here, before any model tokens are spent.
	if err := verify.CheckWorkspaceHealth(workspace); err != nil {
		return fmt.Errorf("workspace check failed: %w", err)
	}
	if err := CheckPatchUtility(); err != nil {
		return err
	}

	tasks, err := loadTaskFile(taskPath)
	if err != nil {
		return err
	}
	if runTier != "" {
		tier := models.Tier(runTier)
		if !tier.Valid() {
			return fmt.Errorf("invalid tier %q: must be fast, deep, or reviewer", runTier)
		}
		for i := range tasks {
			tasks[i].Tier = tier
		}
	}
	if cfg.Limits.MaxAttempts > 0 {
		for i := range tasks {
			tasks[i].MaxAttempts = cfg.Limits.MaxAttempts
		}
	}

	setupLogging()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt, shutting down...")
		cancel()
	}()

	// Stop-file watcher: touching .patchpilot/signals/stop cancels too.
	if watchCtx, watcher, err := signals.Watch(ctx, workspace); err != nil {
		slog.Warn("stop-file watcher unavailable", "error", err)
	} else {
		ctx = watchCtx
		defer watcher.Close()
	}

	client, err := llm.NewClient(llm.Options{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("create model client: %w", err)
	}

	sinks := []events.Sink{events.NewSlogSink(slog.Default())}
	if cfg.Events.SQLite {
		dbPath := filepath.Join(workspace, ".patchpilot", "events.db")
		sqlSink, err := events.OpenSQLiteSink(dbPath)
		if err != nil {
			slog.Warn("event database unavailable, continuing without it",
				"path", dbPath, "error", err)
		} else {
			sinks = append(sinks, sqlSink)
			defer sqlSink.Close()
		}
	}

	runner := execpkg.NewRunner()
	tierModels := make(map[models.Tier]string, len(models.TierOrder))
	for _, tier := range models.TierOrder {
		tierModels[tier] = cfg.TierFor(tier).Model
	}

	d := driver.New(driver.Deps{
		Completer:     client,
		Applier:       patch.NewApplier(runner),
		Verifier:      verify.NewGate(runner, cfg.Verify.Commands, cfg.Verify.Timeout),
		Gates:         gate.NewRegistry(cfg.GateCapacities()),
		Emitter:       events.NewEmitter(sinks...),
		TierModels:    tierModels,
		WorkspaceRoot: workspace,
		MaxPatchLines: cfg.Limits.MaxPatchLines,
	})

	fmt.Printf("Running %d task(s) in %s\n\n", len(tasks), workspace)
	outcomes := d.RunBatch(ctx, tasks)

	printOutcomes(outcomes)

	aborted := 0
	for _, o := range outcomes {
		if o.State != models.TaskStateSucceeded {
			aborted++
		}
	}
	if aborted > 0 {
		return fmt.Errorf("%d of %d task(s) did not complete", aborted, len(outcomes))
	}
	return nil
}

// loadRunConfig resolves configuration from the --config flag or the
// standard lookup chain.
func loadRunConfig() (*config.Config, error) {
	if runConfigPath != "" {
		return config.LoadFromPath(runConfigPath)
	}
	return config.Load()
}

// setupLogging routes slog to stderr so event lines never interleave
// with the progress output on stdout.
func setupLogging() {
	level := slog.LevelWarn
	if runVerbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// printOutcomes writes one colored line per task plus the summary block.
func printOutcomes(outcomes []driver.Outcome) {
	for _, o := range outcomes {
		switch o.State {
		case models.TaskStateSucceeded:
			fmt.Printf("%s %s (%s, attempt %d)\n",
				color.GreenString("✓"), o.Task.Description, o.Task.Tier, o.Task.Attempt)
		default:
			fmt.Printf("%s %s (%s, %d attempts)\n",
				color.RedString("✗"), o.Task.Description, o.Task.Tier, o.Task.Attempt)
			for _, line := range o.LastErrors {
				fmt.Printf("    %s\n", color.YellowString(line))
			}
		}
	}
	fmt.Println()
	fmt.Println(renderSummary(outcomes))
}
