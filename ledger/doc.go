// Package ledger keeps a queryable history of verification runs in SQLite.
//
// Each entry records the fingerprints of one run (original, reduced and
// expanded corpus), the reduction ratio and whether verification passed, so
// a dataset fingerprint can be traced back to every run that touched it.
//
//	l, err := ledger.Open(ctx, "proofs/ledger.db")
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//
//	err = l.Append(ctx, ledger.FromRecord(rec))
//	runs, err := l.FindByFingerprint(ctx, rec.Original)
//
// Store abstracts the backend; package ledger/dynamodb provides a shared
// table for teams writing to the same artifact bucket.
package ledger
