// Package provenance verifies lossless reductions and assembles the
// records that prove (or disprove) a byte-exact round trip.
//
// Verify expands a reduce.Reduction, fingerprints the original, reduced
// and expanded corpora, and runs two independent checks: byte equality of
// expanded vs original, and fingerprint equality of the two. The checks
// must agree; a disagreement means the fingerprint function itself is
// broken and is reported as a *FingerprintDefectError. A clean mismatch is
// reported as a *VerificationError alongside the record.
//
// Report summarizes a heuristic cluster.Result. It makes no byte-equality
// claim and is always labeled Heuristic.
package provenance
