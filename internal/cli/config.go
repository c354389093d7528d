package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacmirror/pac/pkg/config"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the pac configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Source: %s\n", cfg.Source)
			fmt.Printf("Dest: %s\n", cfg.Dest)
			fmt.Printf("Codec: %s\n", cfg.Codec)
			fmt.Printf("Quality: %s\n", cfg.Quality)
			fmt.Printf("Workers: %d\n", cfg.Workers)
			fmt.Printf("Adopt: %t\n", cfg.Adopt)
			fmt.Printf("Prune: %t\n", cfg.Prune)
			fmt.Printf("Recursive: %t\n", cfg.Recursive)
			fmt.Printf("Log Format: %s\n", cfg.Logging.Format)
			fmt.Printf("Log Level: %s\n", cfg.Logging.Level)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}

			cfg := config.Default()
			cfg.Source = "/path/to/flac"
			cfg.Dest = "/path/to/aac"
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Printf("Configuration file created at: %s\n", path)
			return nil
		},
	}
}
