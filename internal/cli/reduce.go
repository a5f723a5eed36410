package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecproof/archive"
	"github.com/hupe1980/vecproof/blobstore"
	"github.com/hupe1980/vecproof/internal/output"
	"github.com/hupe1980/vecproof/ledger"
	"github.com/hupe1980/vecproof/manifest"
	"github.com/hupe1980/vecproof/npy"
	"github.com/hupe1980/vecproof/provenance"
	"github.com/hupe1980/vecproof/reduce"
)

type reduceFlags struct {
	order   string
	out     string
	policy  string
	dataset string
}

func (f *reduceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.out, "reduced-out", "", "also write the reduced rows to this .npy file")
	cmd.Flags().StringVar(&f.policy, "policy", "", "fingerprint this file and record it in the manifest")
	cmd.Flags().StringVar(&f.dataset, "name", "", "dataset name recorded in the manifest (default: input path)")
}

func newReduceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reduce",
		Short:   "Losslessly reduce a dataset and prove the expansion",
		GroupID: "core",
	}
	cmd.AddCommand(newReduceUniqueCommand(a), newReduceConsecutiveCommand(a))
	return cmd
}

func newReduceUniqueCommand(a *app) *cobra.Command {
	var f reduceFlags

	cmd := &cobra.Command{
		Use:   "unique <in.npy>",
		Short: "Remove exact duplicate rows anywhere in the dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := reduce.ParseOrder(f.order)
			if err != nil {
				return err
			}
			return a.runReduce(cmd, args[0], reduce.KindInverseIndex, f, reduce.WithOrder(order))
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.order, "order", reduce.FirstSeen.String(), "unique row order: first_seen, sorted")
	return cmd
}

func newReduceConsecutiveCommand(a *app) *cobra.Command {
	var f reduceFlags

	cmd := &cobra.Command{
		Use:   "consecutive <in.npy>",
		Short: "Remove rows equal to their immediate predecessor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReduce(cmd, args[0], reduce.KindKeptIndices, f)
		},
	}
	f.register(cmd)
	return cmd
}

// runReduce reduces and verifies the input, stores the archive and manifest,
// records the run and prints a summary. A failed verification is still
// recorded before its error is returned.
func (a *app) runReduce(cmd *cobra.Command, in string, kind reduce.Kind, f reduceFlags, optFns ...reduce.Option) error {
	ctx := cmd.Context()

	c, err := npy.ReadFile(in)
	if err != nil {
		return err
	}

	r, rec, verifyErr := a.engine.ReduceAndVerify(ctx, c, kind, optFns...)
	if rec == nil || r == nil {
		return verifyErr
	}

	if f.out != "" {
		if err := npy.WriteFile(f.out, r.Reduced); err != nil {
			return err
		}
	}

	dataset := f.dataset
	if dataset == "" {
		dataset = in
	}

	doc := manifest.ForReduction(rec, r.Map)
	doc.RunID = uuid.NewString()
	doc.Dataset = dataset
	doc.Params = map[string]any{
		"compression": a.cfg.Compression,
		"algorithm":   a.cfg.Algorithm,
	}
	if kind == reduce.KindInverseIndex {
		doc.Params["order"] = r.Map.Order.String()
	}
	if f.policy != "" {
		data, err := os.ReadFile(f.policy)
		if err != nil {
			return err
		}
		doc.AddFingerprint("policy", a.engine.Fingerprint(data))
	}

	if err := a.saveReduction(ctx, doc, r); err != nil {
		return err
	}

	runDir, err := a.saveManifest(ctx, doc)
	if err != nil {
		return err
	}

	entry := ledger.FromRecord(rec)
	entry.ID = doc.RunID
	entry.Dataset = dataset
	entry.RunDir = runDir
	if err := a.record(ctx, entry); err != nil {
		return err
	}

	if err := a.print(cmd, recordSummary(doc.RunID, runDir, rec)); err != nil {
		return err
	}
	return verifyErr
}

// saveReduction writes the reduction archive into the run directory and
// lists it in the manifest.
func (a *app) saveReduction(ctx context.Context, doc *manifest.Document, r *reduce.Reduction) error {
	blobs, err := a.store(ctx)
	if err != nil {
		return err
	}
	name, err := a.artifactPath(ctx, doc.RunID, ReductionArtifact)
	if err != nil {
		return err
	}

	if err := archive.Save(ctx, blobs, name, r,
		archive.WithCompression(a.cfg.ArchiveCompression()),
		archive.WithAlgorithm(a.cfg.FingerprintAlgorithm()),
		archive.WithNoOverwrite(),
	); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	return a.addArtifact(ctx, doc, name, ReductionArtifact, "reduction")
}

// addArtifact fingerprints the stored bytes of name.
func (a *app) addArtifact(ctx context.Context, doc *manifest.Document, name, artifact, kind string) error {
	blobs, err := a.store(ctx)
	if err != nil {
		return err
	}
	data, err := blobstore.ReadAll(ctx, blobs, name)
	if err != nil {
		return err
	}
	doc.AddArtifact(artifact, kind, data, a.cfg.FingerprintAlgorithm())
	return nil
}

func (a *app) saveManifest(ctx context.Context, doc *manifest.Document) (string, error) {
	ms, err := a.manifestStore(ctx)
	if err != nil {
		return "", err
	}
	dir, err := ms.Save(ctx, doc)
	if err != nil {
		return "", err
	}
	a.logger.WithRunID(doc.RunID).WithDataset(doc.DatasetFingerprint).InfoContext(ctx, "manifest saved",
		"run_dir", dir,
		"passed", doc.Passed(),
	)
	return dir, nil
}

func recordSummary(runID, runDir string, rec *provenance.Record) output.Data {
	return output.KeyValues(
		[]string{
			"run_id", "mode", "original_shape", "reduced_shape", "rr_rows",
			"bytes_saved", "original_fingerprint", "passed", "run_dir",
		},
		map[string]any{
			"run_id":               runID,
			"mode":                 rec.Mode,
			"original_shape":       rec.OriginalShape,
			"reduced_shape":        rec.ReducedShape,
			"rr_rows":              rec.Ratio,
			"bytes_saved":          rec.BytesSaved,
			"original_fingerprint": rec.Original.String(),
			"passed":               rec.Passed(),
			"run_dir":              runDir,
		},
	)
}
