package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecproof"
	"github.com/hupe1980/vecproof/archive"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/internal/output"
	"github.com/hupe1980/vecproof/ledger"
	"github.com/hupe1980/vecproof/npy"
	"github.com/hupe1980/vecproof/reduce"
)

// loadReduction loads the reduction archive of runID.
func (a *app) loadReduction(ctx context.Context, runID string) (*reduce.Reduction, error) {
	blobs, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	name, err := a.artifactPath(ctx, runID, ReductionArtifact)
	if err != nil {
		return nil, err
	}
	return archive.Load(ctx, blobs, name)
}

func newExpandCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "expand <run-id>",
		Short: "Reconstruct the original dataset of a reduction run",
		Long: `Expand the reduction archive of a run and write the reconstructed dataset.

The result is checked against the dataset fingerprint in the run manifest
before it is written.`,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runID := args[0]

			ms, err := a.manifestStore(ctx)
			if err != nil {
				return err
			}
			doc, err := ms.LoadRun(ctx, runID)
			if err != nil {
				return err
			}
			if doc.Reduction == nil {
				return fmt.Errorf("run %s is not a lossless reduction", runID)
			}

			r, err := a.loadReduction(ctx, runID)
			if err != nil {
				return err
			}
			expanded, err := a.engine.Expand(ctx, r)
			if err != nil {
				return err
			}

			want := doc.DatasetFingerprint
			got := fingerprint.SumWith(want.Algorithm, expanded.Bytes())
			if !got.Equal(want) {
				return fmt.Errorf("%w: expanded %s, manifest %s", vecproof.ErrVerificationFailed, got, want)
			}

			if err := npy.WriteFile(out, expanded); err != nil {
				return err
			}
			return a.print(cmd, output.KeyValues(
				[]string{"run_id", "path", "shape", "fingerprint"},
				map[string]any{
					"run_id":      runID,
					"path":        out,
					"shape":       expanded.Shape(),
					"fingerprint": got.String(),
				},
			))
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output .npy path")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newVerifyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <run-id> <original.npy>",
		Short: "Prove that a stored reduction reproduces a dataset",
		Long: `Load the reduction archive of a run, expand it and compare the result with
the given dataset by shape, bytes and fingerprint.

The command fails when any check fails. The outcome is appended to the
ledger when one is configured.`,
		Args:    cobra.ExactArgs(2),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			original, err := npy.ReadFile(args[1])
			if err != nil {
				return err
			}
			r, err := a.loadReduction(ctx, args[0])
			if err != nil {
				return err
			}

			rec, verifyErr := a.engine.Verify(ctx, original, r)
			if rec == nil {
				return verifyErr
			}

			entry := ledger.FromRecord(rec)
			entry.Dataset = args[1]
			entry.RunDir, err = a.artifactPath(ctx, args[0], "")
			if err != nil {
				return err
			}
			if err := a.record(ctx, entry); err != nil {
				return err
			}

			if err := a.print(cmd, recordSummary(args[0], entry.RunDir, rec)); err != nil {
				return err
			}
			return verifyErr
		},
	}
	return cmd
}
