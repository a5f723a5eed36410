package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/vecproof"
	"github.com/hupe1980/vecproof/blobstore"
	miniostore "github.com/hupe1980/vecproof/blobstore/minio"
	s3store "github.com/hupe1980/vecproof/blobstore/s3"
	"github.com/hupe1980/vecproof/internal/config"
	"github.com/hupe1980/vecproof/internal/output"
	"github.com/hupe1980/vecproof/ledger"
	ddbledger "github.com/hupe1980/vecproof/ledger/dynamodb"
	"github.com/hupe1980/vecproof/manifest"
	vpprom "github.com/hupe1980/vecproof/metrics/prometheus"
)

// Artifact names inside a run directory.
const (
	ReductionArtifact = "reduction.vpar"
	ClustersArtifact  = "clusters.vpar"
)

// errNoLedger is returned by ledger commands when no ledger is configured.
var errNoLedger = errors.New("no ledger configured (set --ledger, VECPROOF_LEDGER or VECPROOF_LEDGER_TABLE)")

// app holds the state shared by all commands of one invocation.
type app struct {
	v          *viper.Viper
	configFile string

	cfg       *config.Config
	logger    *vecproof.Logger
	registry  *prom.Registry
	collector *vpprom.Collector
	engine    *vecproof.Engine

	blobs     blobstore.Store
	manifests *manifest.Store
	ledger    ledger.Store
}

func newApp() *app {
	return &app{v: config.New()}
}

// setup loads configuration and builds the engine. Storage is opened lazily.
func (a *app) setup(cmd *cobra.Command) error {
	config.LoadEnvFiles()

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := cfg.LogLevel()
	a.logger = vecproof.NewLogger(cmd.ErrOrStderr(), vecproof.LogFormat(cfg.Log.Format), level)
	if cfg.File != "" {
		a.logger.Debug("using config file", "path", cfg.File)
	}

	a.registry = prom.NewRegistry()
	a.collector = vpprom.New()
	if err := a.collector.Register(a.registry); err != nil {
		return err
	}

	a.engine = vecproof.New(
		vecproof.WithLogger(a.logger),
		vecproof.WithMetricsCollector(a.collector),
		vecproof.WithAlgorithm(cfg.FingerprintAlgorithm()),
		vecproof.WithWorkers(cfg.Workers),
	)
	return nil
}

// teardown closes the ledger and flushes metrics.
func (a *app) teardown() error {
	var errs []error
	if a.ledger != nil {
		errs = append(errs, a.ledger.Close())
		a.ledger = nil
	}
	if a.cfg != nil && a.cfg.MetricsFile != "" && a.registry != nil {
		if err := vpprom.WriteTextfile(a.registry, a.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

// store returns the configured blob store.
func (a *app) store(ctx context.Context) (blobstore.Store, error) {
	if a.blobs != nil {
		return a.blobs, nil
	}

	s, err := openBlobStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Backend, err)
	}
	if a.cfg.Store.RateLimit > 0 {
		s = blobstore.RateLimited(s, a.cfg.Store.RateLimit, a.cfg.Store.Burst)
	}
	a.blobs = s
	return s, nil
}

func openBlobStore(ctx context.Context, sc config.StoreConfig) (blobstore.Store, error) {
	switch sc.Backend {
	case config.BackendMemory:
		return blobstore.NewMemoryStore(), nil
	case config.BackendS3:
		s, err := s3store.New(ctx, sc.Bucket,
			s3store.WithPrefix(sc.Prefix),
			s3store.WithRegion(sc.Region),
			s3store.WithEndpoint(sc.Endpoint),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMinIO:
		s, err := miniostore.Dial(ctx, miniostore.Config{
			Endpoint:  sc.Endpoint,
			Bucket:    sc.Bucket,
			Prefix:    sc.Prefix,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
			Region:    sc.Region,
			UseSSL:    sc.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return blobstore.NewLocalStore(sc.Root), nil
	}
}

// manifestStore returns the run manifest store over the blob store.
func (a *app) manifestStore(ctx context.Context) (*manifest.Store, error) {
	if a.manifests != nil {
		return a.manifests, nil
	}
	blobs, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	opts := []manifest.Option{manifest.WithCodec(a.cfg.ManifestCodec())}
	if a.cfg.HTMLReport {
		opts = append(opts, manifest.WithHTMLReport())
	}
	a.manifests = manifest.NewStore(blobs, opts...)
	return a.manifests, nil
}

// openLedger returns the run ledger, or nil when none is configured. A
// DynamoDB table takes precedence over a SQLite path.
func (a *app) openLedger(ctx context.Context) (ledger.Store, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}

	switch {
	case a.cfg.LedgerTable != "":
		l, err := ddbledger.New(ctx, a.cfg.LedgerTable,
			ddbledger.WithRegion(a.cfg.Store.Region),
			ddbledger.WithEndpoint(a.cfg.LedgerEndpoint),
		)
		if err != nil {
			return nil, fmt.Errorf("open dynamodb ledger: %w", err)
		}
		a.ledger = l
	case a.cfg.Ledger != "":
		l, err := ledger.Open(ctx, a.cfg.Ledger)
		if err != nil {
			return nil, err
		}
		a.ledger = l
	default:
		return nil, nil
	}
	return a.ledger, nil
}

// record appends e to the ledger if one is configured.
func (a *app) record(ctx context.Context, e *ledger.Entry) error {
	l, err := a.openLedger(ctx)
	if err != nil || l == nil {
		return err
	}
	if err := l.Append(ctx, e); err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "run recorded in ledger", slog.String("run_id", e.ID))
	return nil
}

// artifactPath returns the blob name of an artifact of runID.
func (a *app) artifactPath(ctx context.Context, runID, artifact string) (string, error) {
	ms, err := a.manifestStore(ctx)
	if err != nil {
		return "", err
	}
	return path.Join(ms.RunDir(runID), artifact), nil
}

// print writes d in the configured output format.
func (a *app) print(cmd *cobra.Command, d output.Data) error {
	f, err := output.ParseFormat(a.cfg.Output)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	return output.NewFormatter(output.DetectFormat(f, w)).Format(w, d)
}
