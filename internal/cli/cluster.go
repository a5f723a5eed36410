package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecproof/archive"
	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/internal/output"
	"github.com/hupe1980/vecproof/ledger"
	"github.com/hupe1980/vecproof/manifest"
	"github.com/hupe1980/vecproof/npy"
	"github.com/hupe1980/vecproof/provenance"
)

type clusterFlags struct {
	threshold float64
	labels    string
	label     float64
	modesOut  string
	dataset   string
}

func newClusterCommand(a *app) *cobra.Command {
	var f clusterFlags

	cmd := &cobra.Command{
		Use:   "cluster <in.npy>",
		Short: "Group near-duplicate rows into failure modes",
		Long: `Cluster rows greedily by cosine similarity. The first unassigned row opens
a cluster and claims every later unassigned row at or above the threshold.

The result is a heuristic summary: representatives cannot reconstruct the
input, and the manifest marks the run as heuristic.

With --labels, only rows whose label equals --label are clustered.`,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				f.threshold = a.cfg.Cluster.Threshold
			}
			return a.runCluster(cmd, args[0], f)
		},
	}

	cmd.Flags().Float64Var(&f.threshold, "threshold", 0.95, "cosine similarity threshold (default from config)")
	cmd.Flags().StringVar(&f.labels, "labels", "", "1-D .npy of per-row labels used to select rows")
	cmd.Flags().Float64Var(&f.label, "label", 1, "label value selected by --labels")
	cmd.Flags().StringVar(&f.modesOut, "modes-out", "", "also write the representative rows to this .npy file")
	cmd.Flags().StringVar(&f.dataset, "name", "", "dataset name recorded in the manifest (default: input path)")
	return cmd
}

func (a *app) clusterOptions() []cluster.Option {
	cc := a.cfg.Cluster
	if cc.LSHTables <= 0 {
		return nil
	}
	return []cluster.Option{cluster.WithLSH(cc.LSHTables, cc.LSHBits, cc.LSHSeed)}
}

func (a *app) runCluster(cmd *cobra.Command, in string, f clusterFlags) error {
	ctx := cmd.Context()

	c, err := npy.ReadFile(in)
	if err != nil {
		return err
	}
	if f.labels != "" {
		if c, err = selectLabeled(c, f.labels, f.label); err != nil {
			return err
		}
	}

	res, err := a.engine.Cluster(ctx, c, f.threshold, a.clusterOptions()...)
	if err != nil {
		return err
	}
	rep, err := a.engine.Report(ctx, c, res)
	if err != nil {
		return err
	}
	modes, err := res.Modes(c)
	if err != nil {
		return err
	}
	if f.modesOut != "" {
		if err := npy.WriteFile(f.modesOut, modes); err != nil {
			return err
		}
	}

	dataset := f.dataset
	if dataset == "" {
		dataset = in
	}

	doc := manifest.ForHeuristic(rep)
	doc.RunID = uuid.NewString()
	doc.Dataset = dataset
	doc.Params = map[string]any{
		"threshold": f.threshold,
		"algorithm": a.cfg.Algorithm,
	}
	if f.labels != "" {
		doc.Params["labels"] = f.labels
		doc.Params["label"] = f.label
	}
	if a.cfg.Cluster.LSHTables > 0 {
		doc.Params["lsh_tables"] = a.cfg.Cluster.LSHTables
		doc.Params["lsh_bits"] = a.cfg.Cluster.LSHBits
	}

	if err := a.saveClusters(ctx, doc, modes, res); err != nil {
		return err
	}
	runDir, err := a.saveManifest(ctx, doc)
	if err != nil {
		return err
	}

	entry := ledger.FromReport(rep)
	entry.ID = doc.RunID
	entry.Dataset = dataset
	entry.RunDir = runDir
	if err := a.record(ctx, entry); err != nil {
		return err
	}

	return a.print(cmd, reportSummary(doc.RunID, runDir, rep))
}

func (a *app) saveClusters(ctx context.Context, doc *manifest.Document, modes *corpus.Corpus, res *cluster.Result) error {
	blobs, err := a.store(ctx)
	if err != nil {
		return err
	}
	name, err := a.artifactPath(ctx, doc.RunID, ClustersArtifact)
	if err != nil {
		return err
	}
	if err := archive.SaveClusters(ctx, blobs, name, modes, res,
		archive.WithCompression(a.cfg.ArchiveCompression()),
		archive.WithAlgorithm(a.cfg.FingerprintAlgorithm()),
		archive.WithNoOverwrite(),
	); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	return a.addArtifact(ctx, doc, name, ClustersArtifact, "clusters")
}

// selectLabeled keeps the rows of c whose label equals want.
func selectLabeled(c *corpus.Corpus, labelsPath string, want float64) (*corpus.Corpus, error) {
	labels, err := npy.ReadFile(labelsPath)
	if err != nil {
		return nil, err
	}
	if labels.Len() != c.Len() || labels.Dim() != 1 {
		return nil, fmt.Errorf("labels %s: shape %v does not match %d rows", labelsPath, labels.Shape(), c.Len())
	}

	var keep []int
	for i := range labels.Len() {
		if labels.Float64Row(i)[0] == want {
			keep = append(keep, i)
		}
	}
	return c.Gather(keep)
}

func reportSummary(runID, runDir string, rep *provenance.HeuristicReport) output.Data {
	return output.KeyValues(
		[]string{
			"run_id", "similarity", "threshold", "total_failures", "unique_modes",
			"rr_modes", "approximate", "original_fingerprint", "run_dir",
		},
		map[string]any{
			"run_id":               runID,
			"similarity":           rep.Similarity,
			"threshold":            rep.Threshold,
			"total_failures":       rep.TotalInputs,
			"unique_modes":         rep.UniqueModes,
			"rr_modes":             rep.Ratio,
			"approximate":          rep.Approximate,
			"original_fingerprint": rep.Original.String(),
			"run_dir":              runDir,
		},
	)
}
