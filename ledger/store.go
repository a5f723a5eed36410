package ledger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vecproof/fingerprint"
)

// Store is a run history.
type Store interface {
	// Append records e, assigning an ID and creation time when missing.
	Append(ctx context.Context, e *Entry) error
	// Get returns the entry with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Entry, error)
	// List returns every entry, oldest first.
	List(ctx context.Context) ([]*Entry, error)
	// FindByFingerprint returns the entries referencing fp, oldest first.
	FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) ([]*Entry, error)
	Close() error
}

var _ Store = (*Ledger)(nil)

// Prepare replaces an empty ID by a new UUID and a zero CreatedAt by now(),
// and normalizes CreatedAt to UTC.
func Prepare(e *Entry, now func() time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
}

// Sort orders entries oldest first; equal timestamps are ordered by ID.
func Sort(entries []*Entry) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// References reports whether fp is the original, reduced or expanded
// fingerprint of e.
func (e *Entry) References(fp fingerprint.Fingerprint) bool {
	return e.Original.Equal(fp) || e.Reduced.Equal(fp) || (!e.Expanded.IsZero() && e.Expanded.Equal(fp))
}
