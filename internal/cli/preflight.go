package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacmirror/pac/pkg/preflight"
)

// NewPreflightCommand creates the preflight command: probe for available
// encoder backends and print which one a run would freeze on, without
// touching any file.
func NewPreflightCommand() *cobra.Command {
	var skipCompatLayer bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Probe for available encoder backends",
		Long:  `Detect installed encoders and print the backend a run would select for the configured codec.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			set := preflight.Probe(ctx, preflight.ProbeOptions{SkipCompatLayerBinaries: skipCompatLayer || cfg.SkipCompatLayerProbe})

			sel, err := preflight.Select(set, cfg.Codec, preflight.Backend(cfg.EncoderOverride))
			if err != nil {
				fmt.Printf("codec %s: no backend available (%v)\n", cfg.Codec, err)
				return err
			}

			fmt.Printf("codec %s: selected %s\n", cfg.Codec, sel.Backend)
			fmt.Printf("  path:    %s\n", sel.Path)
			fmt.Printf("  version: %s\n", sel.Version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCompatLayer, "skip-compat-layer-probe", false, "skip probing compatibility-shim binaries (e.g. qaac under Wine)")
	return cmd
}
