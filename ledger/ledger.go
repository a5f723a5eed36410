package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/provenance"
)

var (
	// ErrNotFound is returned when no entry has the requested ID.
	ErrNotFound = errors.New("ledger entry not found")

	// ErrDuplicate is returned when appending an entry whose ID exists.
	ErrDuplicate = errors.New("ledger entry already exists")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("ledger closed")
)

// Kinds of runs.
const (
	KindReduction = "reduction"
	KindHeuristic = "heuristic"
)

// Entry is one recorded run.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Kind      string
	Mode      string
	Dataset   string
	RunDir    string

	Original fingerprint.Fingerprint
	Reduced  fingerprint.Fingerprint
	// Expanded is zero for heuristic runs.
	Expanded fingerprint.Fingerprint

	Rows        int
	ReducedRows int
	Ratio       float64
	Passed      bool
}

// FromRecord builds an entry for a lossless reduction.
func FromRecord(rec *provenance.Record) *Entry {
	return &Entry{
		Kind:        KindReduction,
		Mode:        rec.Mode,
		Original:    rec.Original,
		Reduced:     rec.Reduced,
		Expanded:    rec.Expanded,
		Rows:        rec.OriginalShape[0],
		ReducedRows: rec.ReducedShape[0],
		Ratio:       rec.Ratio,
		Passed:      rec.Passed(),
	}
}

// FromReport builds an entry for a near-duplicate clustering.
func FromReport(rep *provenance.HeuristicReport) *Entry {
	return &Entry{
		Kind:        KindHeuristic,
		Mode:        "greedy",
		Original:    rep.Original,
		Reduced:     rep.Representatives,
		Rows:        rep.TotalInputs,
		ReducedRows: rep.UniqueModes,
		Ratio:       rep.Ratio,
		Passed:      true,
	}
}

// Ledger is a SQLite-backed run history. It is safe for concurrent use.
//
// A zero CreatedAt is filled in by Append; entries are listed oldest first.
type Ledger struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// Open opens or creates the ledger database at path. Use ":memory:" for a
// private in-memory ledger.
func Open(ctx context.Context, path string) (*Ledger, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db, now: time.Now}
	if err := l.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		kind TEXT NOT NULL,
		mode TEXT NOT NULL,
		dataset TEXT NOT NULL DEFAULT '',
		run_dir TEXT NOT NULL DEFAULT '',
		original_fp TEXT NOT NULL,
		reduced_fp TEXT NOT NULL,
		expanded_fp TEXT NOT NULL DEFAULT '',
		rows INTEGER NOT NULL,
		reduced_rows INTEGER NOT NULL,
		ratio REAL NOT NULL,
		passed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_original ON runs(original_fp);
	CREATE INDEX IF NOT EXISTS idx_runs_reduced ON runs(reduced_fp);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

// Append inserts e. An empty ID is replaced by a new UUID and a zero
// CreatedAt by the current time; both are written back to e.
func (l *Ledger) Append(ctx context.Context, e *Entry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}

	Prepare(e, l.now)

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, kind, mode, dataset, run_dir,
			original_fp, reduced_fp, expanded_fp, rows, reduced_rows, ratio, passed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		e.ID, e.CreatedAt.UnixNano(), e.Kind, e.Mode, e.Dataset, e.RunDir,
		e.Original.String(), e.Reduced.String(), formatOptional(e.Expanded),
		e.Rows, e.ReducedRows, e.Ratio, e.Passed,
	)
	if err != nil {
		return fmt.Errorf("append %s: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, e.ID)
	}
	return nil
}

const selectColumns = `SELECT id, created_at, kind, mode, dataset, run_dir,
	original_fp, reduced_fp, expanded_fp, rows, reduced_rows, ratio, passed FROM runs`

// Get returns the entry with the given ID.
func (l *Ledger) Get(ctx context.Context, id string) (*Entry, error) {
	entries, err := l.query(ctx, selectColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entries[0], nil
}

// List returns all entries, oldest first.
func (l *Ledger) List(ctx context.Context) ([]*Entry, error) {
	return l.query(ctx, selectColumns+` ORDER BY created_at, id`)
}

// FindByFingerprint returns the entries in which fp appears as original,
// reduced or expanded fingerprint, oldest first.
func (l *Ledger) FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) ([]*Entry, error) {
	s := fp.String()
	return l.query(ctx, selectColumns+`
		WHERE original_fp = ? OR reduced_fp = ? OR expanded_fp = ?
		ORDER BY created_at, id`, s, s, s)
}

func (l *Ledger) query(ctx context.Context, q string, args ...any) ([]*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		e                           Entry
		created                     int64
		original, reduced, expanded string
	)
	if err := rows.Scan(&e.ID, &created, &e.Kind, &e.Mode, &e.Dataset, &e.RunDir,
		&original, &reduced, &expanded, &e.Rows, &e.ReducedRows, &e.Ratio, &e.Passed); err != nil {
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	e.CreatedAt = time.Unix(0, created).UTC()

	var err error
	if e.Original, err = fingerprint.Parse(original); err != nil {
		return nil, err
	}
	if e.Reduced, err = fingerprint.Parse(reduced); err != nil {
		return nil, err
	}
	if expanded != "" {
		if e.Expanded, err = fingerprint.Parse(expanded); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func formatOptional(fp fingerprint.Fingerprint) string {
	if fp.IsZero() {
		return ""
	}
	return fp.String()
}
