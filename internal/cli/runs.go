package cli

import (
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecproof/archive"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/internal/output"
	"github.com/hupe1980/vecproof/ledger"
	"github.com/hupe1980/vecproof/manifest"
)

func itoa(n int) string { return strconv.Itoa(n) }

func newInspectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect [run-id]",
		Short:   "Show the manifest and artifacts of a run (default: the latest)",
		Args:    cobra.MaximumNArgs(1),
		GroupID: "runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ms, err := a.manifestStore(ctx)
			if err != nil {
				return err
			}
			var doc *manifest.Document
			if len(args) == 1 {
				doc, err = ms.LoadRun(ctx, args[0])
			} else {
				doc, err = ms.Load(ctx)
			}
			if err != nil {
				return err
			}
			blobs, err := a.store(ctx)
			if err != nil {
				return err
			}

			d := output.Data{Headers: []string{"Artifact", "Kind", "Bytes", "Compression", "Shape", "DType", "Detail"}}
			values := make([]map[string]any, 0, len(doc.Artifacts))
			for _, art := range doc.Artifacts {
				name := path.Join(ms.RunDir(doc.RunID), art.Name)
				h, err := archive.Stat(ctx, blobs, name)
				if err != nil {
					return err
				}

				detail := ""
				if h.Kind == archive.KindClusters {
					cs, err := archive.LoadClusters(ctx, blobs, name)
					if err != nil {
						return err
					}
					detail = fmt.Sprintf("%d modes over %d rows", cs.Result.NumModes(), cs.Result.Len())
				}

				shape := fmt.Sprintf("%dx%d", h.Rows, h.Dim)
				d.Rows = append(d.Rows, []string{
					art.Name, art.Kind, itoa(art.Bytes), h.Compression.String(), shape, h.DType.Descr(), detail,
				})
				values = append(values, map[string]any{
					"name":        art.Name,
					"kind":        art.Kind,
					"bytes":       art.Bytes,
					"fingerprint": art.Fingerprint.String(),
					"compression": h.Compression.String(),
					"rows":        h.Rows,
					"dim":         h.Dim,
					"dtype":       h.DType.Descr(),
					"detail":      detail,
				})
			}

			d.Value = map[string]any{
				"run_id":              doc.RunID,
				"created_at_utc":      doc.CreatedAtUTC,
				"dataset":             doc.Dataset,
				"dataset_fingerprint": doc.DatasetFingerprint.String(),
				"passed":              doc.Passed(),
				"artifacts":           values,
			}
			return a.print(cmd, d)
		},
	}
	return cmd
}

func newRunsCommand(a *app) *cobra.Command {
	var fp string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List runs from the ledger, oldest first. Without a ledger, the run IDs
found in the artifact store are listed instead.`,
		Args:    cobra.NoArgs,
		GroupID: "runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			if l == nil {
				if fp != "" {
					return errNoLedger
				}
				ms, err := a.manifestStore(ctx)
				if err != nil {
					return err
				}
				ids, err := ms.Runs(ctx)
				if err != nil {
					return err
				}
				d := output.Data{Headers: []string{"Run"}, Value: ids}
				for _, id := range ids {
					d.Rows = append(d.Rows, []string{id})
				}
				return a.print(cmd, d)
			}

			var entries []*ledger.Entry
			if fp != "" {
				parsed, err := fingerprint.Parse(fp)
				if err != nil {
					return err
				}
				entries, err = l.FindByFingerprint(ctx, parsed)
				if err != nil {
					return err
				}
			} else {
				if entries, err = l.List(ctx); err != nil {
					return err
				}
			}
			return a.print(cmd, entriesData(entries))
		},
	}

	cmd.Flags().StringVar(&fp, "fingerprint", "", "only runs whose original, reduced or expanded fingerprint matches")
	cmd.AddCommand(newRunsGetCommand(a))
	return cmd
}

func newRunsGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show one ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			if l == nil {
				return errNoLedger
			}
			e, err := l.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, entriesData([]*ledger.Entry{e}))
		},
	}
}

func entriesData(entries []*ledger.Entry) output.Data {
	d := output.Data{Headers: []string{"ID", "Created", "Kind", "Mode", "Rows", "Reduced", "Ratio", "Passed"}}
	values := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		d.Rows = append(d.Rows, []string{
			e.ID,
			e.CreatedAt.Format(time.RFC3339),
			e.Kind,
			e.Mode,
			itoa(e.Rows),
			itoa(e.ReducedRows),
			strconv.FormatFloat(e.Ratio, 'f', 4, 64),
			strconv.FormatBool(e.Passed),
		})
		values = append(values, map[string]any{
			"id":                   e.ID,
			"created_at":           e.CreatedAt.Format(time.RFC3339Nano),
			"kind":                 e.Kind,
			"mode":                 e.Mode,
			"dataset":              e.Dataset,
			"run_dir":              e.RunDir,
			"original_fingerprint": e.Original.String(),
			"reduced_fingerprint":  e.Reduced.String(),
			"rows":                 e.Rows,
			"reduced_rows":         e.ReducedRows,
			"ratio":                e.Ratio,
			"passed":               e.Passed,
		})
	}
	d.Value = values
	return d
}
