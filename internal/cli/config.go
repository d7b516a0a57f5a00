package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mant/internal/config"
)

// loadConfig returns the config file at path, or the preset of variant when
// no file is given. An empty variant means the behavioural preset.
func loadConfig(path, variant string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if variant == "" {
		variant = string(config.Behavioural)
	}
	return config.Preset(config.Variant(variant))
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "config [variant]",
		Short: "Print a variant preset or the effective config",
		Long: `Print the preset of a variant (behavioural, eeg, fmri) as YAML, ready to be
edited into a config file. With --config the file is layered over its preset
and the effective result is printed.

Examples:
  mant config eeg > eeg.yaml
  mant config --config session.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant := ""
			if len(args) == 1 {
				variant = args[0]
			}
			return runConfig(rootOpts, file, variant, cmd)
		},
	}

	cmd.Flags().StringVarP(&file, "config", "c", "", "config file to layer over its preset")
	return cmd
}

func runConfig(opts *RootOptions, file, variant string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(file, variant)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	data, err := cfg.Marshal()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode config", err)
	}
	return formatter.Success(cfg, string(data))
}

// ConfigCheck is the validation outcome of one config file.
type ConfigCheck struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Variant  string   `json:"variant,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (c ConfigCheck) String() string {
	if !c.Valid {
		return fmt.Sprintf("✗ %s\n  %s\n", c.Path, c.Error)
	}
	s := fmt.Sprintf("✓ %s (%s)\n", c.Path, c.Variant)
	for _, w := range c.Warnings {
		s += fmt.Sprintf("  warning: %s\n", w)
	}
	return s
}
