package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/trash-expiry/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate trash-expiry configuration and show where it is read from.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long: `Validate the configuration file and report every problem: malformed
values that would fall back to defaults, warn_after_days greater than
delete_after_days, an invalid schedule or protect pattern and unknown keys.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidate,
}

// configPathCmd represents the config path command
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return &exitError{code: exitFatal, err: err}
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path, err := resolveConfigPath()
	if len(args) > 0 {
		path, err = args[0], nil
	}
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return &exitError{code: exitFatal, err: err}
	}

	fmt.Fprintf(out, "Validating configuration: %s\n", path)

	cfg, problems := config.Load(path)
	problems = append(problems, cfg.Validate()...)

	for _, key := range cfg.UnknownKeys() {
		fmt.Fprintf(out, "  ignored unknown key: %s\n", key)
	}

	if len(problems) > 0 {
		fmt.Fprintf(out, "❌ Configuration has %d problem(s):\n", len(problems))
		for _, p := range problems {
			fmt.Fprintf(out, "  - %v\n", p)
		}
		return &exitError{code: exitFailure}
	}

	fmt.Fprintln(out, "✅ Configuration is valid")
	fmt.Fprintf(out, "  warn_after_days:   %d\n", cfg.WarnAfterDays)
	fmt.Fprintf(out, "  delete_after_days: %d\n", cfg.DeleteAfterDays)
	fmt.Fprintf(out, "  schedule:          %s\n", cfg.Schedule)
	fmt.Fprintf(out, "  protect patterns:  %d\n", len(cfg.Protect))
	return nil
}
