package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/internal/output"
	"github.com/hupe1980/vecproof/npy"
	"github.com/hupe1980/vecproof/testutil"
)

var datasets = map[string]func(seed int64) *corpus.Corpus{
	"trajectory": testutil.TrajectoryCorpus,
	"telemetry":  testutil.TelemetryCorpus,
	"failures":   testutil.FailureCorpus,
}

func datasetNames() []string {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newGenerateCommand(a *app) *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate <dataset> <out.npy>",
		Short: "Write a synthetic dataset",
		Long: `Write one of the built-in synthetic datasets as a .npy file.

Datasets:
  trajectory  60x6 int32, 40 distinct rows plus duplicated subranges
  telemetry   500x10 float32 with two steady runs
  failures    110x16 float32, 4 modes of 25 plus 10 exact copies`,
		Args:    cobra.ExactArgs(2),
		GroupID: "core",
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return datasetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := datasets[args[0]]
			if !ok {
				return fmt.Errorf("unknown dataset %q: must be one of: %s", args[0], strings.Join(datasetNames(), ", "))
			}

			c := gen(seed)
			if err := npy.WriteFile(args[1], c); err != nil {
				return err
			}

			fp := a.engine.Fingerprint(c.Bytes())
			a.logger.InfoContext(cmd.Context(), "dataset written",
				"dataset", args[0],
				"path", args[1],
				"rows", c.Len(),
			)
			return a.print(cmd, output.KeyValues(
				[]string{"dataset", "path", "shape", "dtype", "fingerprint"},
				map[string]any{
					"dataset":     args[0],
					"path":        args[1],
					"shape":       c.Shape(),
					"dtype":       c.DType().Descr(),
					"fingerprint": fp.String(),
				},
			))
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 7, "random seed")
	return cmd
}
