package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pacmirror/pac/pkg/executor"
	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/reportio"
	"github.com/pacmirror/pac/pkg/runlock"
)

// RunFlags holds run command flags.
type RunFlags struct {
	Source    string
	Dest      string
	Recursive bool
}

var runFlags RunFlags

// NewRunCommand creates the run command: the full Scan -> Index -> Plan ->
// Execute pipeline, guarded by a single-run lock on the destination root.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile the destination tree with the source tree",
		Long:  `Scan the source and destination trees, derive a plan, and execute it: encoding, tagging, renaming, and (if enabled) pruning.`,
		RunE:  runRun,
	}

	cmd.Flags().StringVarP(&runFlags.Source, "source", "s", "", "source FLAC tree (overrides config)")
	cmd.Flags().StringVarP(&runFlags.Dest, "dest", "d", "", "destination lossy tree (overrides config)")
	cmd.Flags().BoolVar(&runFlags.Recursive, "recursive", true, "walk the full source tree; false scans only the top-level directory named by --source")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if runFlags.Source != "" {
		cfg.Source = runFlags.Source
	}
	if runFlags.Dest != "" {
		cfg.Dest = runFlags.Dest
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Recursive = runFlags.Recursive
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.Dest)
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	defer lock.Release()

	logger, err := createLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Close()

	plan, pol, sel, err := buildPlan(ctx, cfg)
	if err != nil {
		return err
	}

	if !globalFlags.Quiet {
		fmt.Printf("backend: %s (%s)\n", sel.Backend, sel.Version)
		fmt.Printf("%d action(s) planned\n", len(plan.Actions))
	}

	runID := uuid.NewString()
	progress := reportio.NewProgress(len(plan.Actions))
	onEvent := func(model.EventRecord) { progress.Increment() }

	summary, err := executor.Execute(ctx, plan, cfg.Source, cfg.Dest, pol, sel, runID, logger, onEvent)
	progress.Finish()
	if err != nil && summary == nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if !globalFlags.Quiet {
		fmt.Println(reportio.SummaryTable(summary))
		if summary.Stats.Failed > 0 {
			fmt.Println()
			fmt.Println(reportio.FailureTable(summary.Events))
		}
	}

	os.Exit(summary.ExitCode())
	return nil
}
