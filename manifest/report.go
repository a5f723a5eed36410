package manifest

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderReport renders d as a Markdown verification report.
func RenderReport(d *Document) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", d.RunID)
	fmt.Fprintf(&b, "- Created (UTC): %s\n", d.CreatedAtUTC)
	if d.Dataset != "" {
		fmt.Fprintf(&b, "- Dataset: `%s`\n", d.Dataset)
	}
	fmt.Fprintf(&b, "- Dataset fingerprint: `%s`\n", d.DatasetFingerprint)

	if r := d.Reduction; r != nil {
		status := "PASSED"
		if !r.Passed() {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "\n## Lossless reduction (%s): %s\n\n", r.Mode, status)
		b.WriteString("| Check | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Original shape | %s |\n", shape(r.OriginalShape))
		fmt.Fprintf(&b, "| Reduced shape | %s |\n", shape(r.ReducedShape))
		fmt.Fprintf(&b, "| RR (rows) | %.6f |\n", r.Ratio)
		fmt.Fprintf(&b, "| Bytes saved | %d |\n", r.BytesSaved)
		fmt.Fprintf(&b, "| Shape-equal after expand | %t |\n", r.ShapeEqual)
		fmt.Fprintf(&b, "| Byte-equal after expand | %t |\n", r.ByteEqual)
		fmt.Fprintf(&b, "| Hash-equal after expand | %t |\n", r.HashEqual)
		fmt.Fprintf(&b, "\n- Original: `%s`\n", r.Original)
		fmt.Fprintf(&b, "- Reduced: `%s`\n", r.Reduced)
		fmt.Fprintf(&b, "- Expanded: `%s`\n", r.Expanded)
	}

	if h := d.Heuristic; h != nil {
		b.WriteString("\n## Near-duplicate modes (heuristic)\n\n")
		b.WriteString("- Deterministic: fingerprints, manifests, saved representatives.\n")
		fmt.Fprintf(&b, "- Heuristic: grouping by %s similarity >= %g", h.Similarity, h.Threshold)
		if h.Approximate {
			b.WriteString(" (LSH candidates, approximate)")
		}
		b.WriteString(".\n\n")
		fmt.Fprintf(&b, "- Total inputs: %d\n", h.TotalInputs)
		fmt.Fprintf(&b, "- Unique modes: %d\n", h.UniqueModes)
		fmt.Fprintf(&b, "- RR (modes): %.6f\n", h.Ratio)
		fmt.Fprintf(&b, "- Representatives: `%s`\n", h.Representatives)
	}

	if len(d.Fingerprints) > 0 {
		b.WriteString("\n## Fingerprints\n\n")
		names := make([]string, 0, len(d.Fingerprints))
		for name := range d.Fingerprints {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: `%s`\n", name, d.Fingerprints[name])
		}
	}

	if len(d.Artifacts) > 0 {
		b.WriteString("\n## Artifacts\n\n| Name | Kind | Bytes | Fingerprint |\n|---|---|---|---|\n")
		for _, a := range d.Artifacts {
			fmt.Fprintf(&b, "| %s | %s | %d | `%s` |\n", a.Name, a.Kind, a.Bytes, a.Fingerprint)
		}
	}

	return []byte(b.String())
}

// RenderHTML converts a Markdown report to HTML.
func RenderHTML(md []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(md, &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func shape(s []int) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
