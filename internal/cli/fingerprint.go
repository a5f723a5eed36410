package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecproof/internal/output"
	"github.com/hupe1980/vecproof/npy"
)

func newFingerprintCommand(a *app) *cobra.Command {
	var rows bool

	cmd := &cobra.Command{
		Use:   "fingerprint <file>...",
		Short: "Fingerprint arbitrary files, such as policies or model weights",
		Long: `Print the content fingerprint of each file.

With --rows, .npy files are fingerprinted by their row bytes only, which is
the dataset fingerprint recorded in run manifests.`,
		Args:    cobra.MinimumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := output.Data{Headers: []string{"File", "Bytes", "Fingerprint"}}
			values := make([]map[string]any, 0, len(args))

			for _, name := range args {
				var data []byte
				if rows {
					c, err := npy.ReadFile(name)
					if err != nil {
						return err
					}
					data = c.Bytes()
				} else {
					var err error
					if data, err = os.ReadFile(name); err != nil {
						return err
					}
				}

				fp := a.engine.Fingerprint(data)
				d.Rows = append(d.Rows, []string{name, itoa(len(data)), fp.String()})
				values = append(values, map[string]any{
					"file":        name,
					"bytes":       len(data),
					"fingerprint": fp.String(),
				})
			}

			d.Value = values
			return a.print(cmd, d)
		},
	}

	cmd.Flags().BoolVar(&rows, "rows", false, "fingerprint the row bytes of .npy files")
	return cmd
}
