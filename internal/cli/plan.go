package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacmirror/pac/pkg/reportio"
)

// PlanFlags holds plan command flags.
type PlanFlags struct {
	Source    string
	Dest      string
	Recursive bool
}

var planFlags PlanFlags

// NewPlanCommand creates the plan command: run Scan/Index/Plan and print
// the resulting action table, without executing anything.
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a run would do, without doing it",
		Long:  `Scan the source and destination trees and print the reconciliation plan, without encoding, tagging, or deleting anything.`,
		RunE:  runPlan,
	}

	cmd.Flags().StringVarP(&planFlags.Source, "source", "s", "", "source FLAC tree (overrides config)")
	cmd.Flags().StringVarP(&planFlags.Dest, "dest", "d", "", "destination lossy tree (overrides config)")
	cmd.Flags().BoolVar(&planFlags.Recursive, "recursive", true, "walk the full source tree; false scans only the top-level directory named by --source")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if planFlags.Source != "" {
		cfg.Source = planFlags.Source
	}
	if planFlags.Dest != "" {
		cfg.Dest = planFlags.Dest
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Recursive = planFlags.Recursive
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	plan, _, sel, err := buildPlan(ctx, cfg)
	if err != nil {
		return err
	}

	if !globalFlags.Quiet {
		fmt.Printf("backend: %s (%s)\n\n", sel.Backend, sel.Version)
		fmt.Println(reportio.PlanTable(plan.Actions))
	}
	return nil
}
