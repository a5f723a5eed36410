package manifest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vecproof/blobstore"
	"github.com/hupe1980/vecproof/codec"
)

const (
	// CurrentFileName points at the directory of the latest complete run.
	CurrentFileName = "CURRENT"
	// RunsDir holds one directory per run.
	RunsDir = "runs"

	// ReportFileName is the Markdown verification report of a run.
	ReportFileName = "verification_report.md"
	// HTMLReportFileName is the report rendered to HTML.
	HTMLReportFileName = "verification_report.html"
	// FingerprintFileName holds the dataset fingerprint as text.
	FingerprintFileName = "dataset_fingerprint.txt"
)

// ErrNoRuns is returned by Load when no run has been saved yet.
var ErrNoRuns = errors.New("no manifest saved")

// Store persists run manifests in a blob store.
type Store struct {
	blobs blobstore.Store
	opts  options
	mu    sync.Mutex
}

// NewStore creates a manifest store over blobs.
func NewStore(blobs blobstore.Store, optFns ...Option) *Store {
	opts := options{
		codec: codec.Default,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{blobs: blobs, opts: opts}
}

// FileName returns the manifest file name for the store's codec.
func (s *Store) FileName() string {
	return "manifest" + codec.Extension(s.opts.codec)
}

// RunDir returns the directory of runID relative to the store.
func (s *Store) RunDir(runID string) string {
	return path.Join(s.opts.prefix, RunsDir, runID)
}

// Save stamps d with a run ID (unless set), the document version and the
// creation time, writes all run files, and then moves CURRENT to the run.
// It returns the run directory.
func (s *Store) Save(ctx context.Context, d *Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.Version = CurrentVersion
	d.Tool = Tool
	if d.RunID == "" {
		d.RunID = s.opts.newID()
	}
	d.CreatedAtUTC = s.opts.now().UTC().Format(time.RFC3339Nano)

	dir := s.RunDir(d.RunID)

	data, err := codec.MarshalPretty(s.opts.codec, d)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	report := RenderReport(d)
	files := map[string][]byte{
		path.Join(dir, ReportFileName):      report,
		path.Join(dir, FingerprintFileName): []byte(d.DatasetFingerprint.Hex() + "\n"),
	}
	for name, fp := range d.Fingerprints {
		files[path.Join(dir, name+"_fingerprint.txt")] = []byte(fp.Hex() + "\n")
	}
	if s.opts.html {
		html, err := RenderHTML(report)
		if err != nil {
			return "", err
		}
		files[path.Join(dir, HTMLReportFileName)] = html
	}

	if err := blobstore.PutAll(ctx, s.blobs, files, 4); err != nil {
		return "", err
	}

	// The manifest itself is written last and never replaced, so a run ID
	// cannot be reused.
	if err := blobstore.PutIfNotExists(ctx, s.blobs, path.Join(dir, s.FileName()), data); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	if err := s.blobs.Put(ctx, path.Join(s.opts.prefix, CurrentFileName), []byte(d.RunID)); err != nil {
		return "", fmt.Errorf("update %s: %w", CurrentFileName, err)
	}
	return dir, nil
}

// Load loads the manifest of the latest complete run.
func (s *Store) Load(ctx context.Context) (*Document, error) {
	current, err := blobstore.ReadAll(ctx, s.blobs, path.Join(s.opts.prefix, CurrentFileName))
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, err
	}
	return s.LoadRun(ctx, strings.TrimSpace(string(current)))
}

// LoadRun loads the manifest of a specific run.
func (s *Store) LoadRun(ctx context.Context, runID string) (*Document, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, path.Join(s.RunDir(runID), s.FileName()))
	if err != nil {
		return nil, err
	}

	var d Document
	if err := s.opts.codec.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", runID, err)
	}
	if d.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version: %d (expected %d)", d.Version, CurrentVersion)
	}
	return &d, nil
}

// Runs lists the IDs of all runs with a manifest, sorted.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	root := path.Join(s.opts.prefix, RunsDir) + "/"
	names, err := s.blobs.List(ctx, root)
	if err != nil {
		return nil, err
	}

	var runs []string
	for _, name := range names {
		rel := strings.TrimPrefix(name, root)
		runID, file, ok := strings.Cut(rel, "/")
		if ok && file == s.FileName() {
			runs = append(runs, runID)
		}
	}
	return runs, nil
}
