package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecproof/internal/output"
)

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after merging defaults, the config file,
.env files, VECPROOF_* environment variables and flags.

Secrets are omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return output.NewFormatter(output.FormatYAML).Format(cmd.OutOrStdout(), output.Data{Value: a.cfg})
		},
	}
}
