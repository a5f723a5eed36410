// Package manifest renders provenance records into run manifests and
// persists them in a blob store.
//
// A run is written under runs/<run-id>/ as
//
//	manifest.json             the Document, pretty-printed
//	verification_report.md    a human-readable summary
//	verification_report.html  the same summary rendered to HTML (optional)
//	dataset_fingerprint.txt   the original corpus fingerprint
//	<name>_fingerprint.txt    one per extra named fingerprint
//
// After all run files are written, the CURRENT blob is replaced with the
// run directory, so Load always observes a complete run.
package manifest
