package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof/archive"
	"github.com/hupe1980/vecproof/fingerprint"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, fingerprint.SHA256, cfg.FingerprintAlgorithm())
	assert.Equal(t, archive.CompressionZSTD, cfg.ArchiveCompression())
	assert.Equal(t, "json", cfg.ManifestCodec().Name())
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, BackendLocal, cfg.Store.Backend)
	assert.Equal(t, "runs", cfg.Store.Root)
	assert.InDelta(t, 0.95, cfg.Cluster.Threshold, 1e-12)
	assert.Zero(t, cfg.Cluster.LSHTables)
	assert.Empty(t, cfg.Ledger)
	assert.Empty(t, cfg.File)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "vecproof.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
algorithm: blake3
workers: 4
compression: lz4
codec: cbor
store:
  backend: memory
cluster:
  threshold: 0.9
  lsh_tables: 8
  lsh_bits: 6
ledger: runs.db
`), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, fingerprint.BLAKE3, cfg.FingerprintAlgorithm())
	assert.Equal(t, archive.CompressionLZ4, cfg.ArchiveCompression())
	assert.Equal(t, "cbor", cfg.ManifestCodec().Name())
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.InDelta(t, 0.9, cfg.Cluster.Threshold, 1e-12)
	assert.Equal(t, 8, cfg.Cluster.LSHTables)
	assert.Equal(t, 6, cfg.Cluster.LSHBits)
	assert.Equal(t, "runs.db", cfg.Ledger)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".vecproof.yaml"), []byte("workers: 3\n"), 0o600))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "vecproof.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 2\nstore:\n  backend: local\n"), 0o600))

	t.Setenv("VECPROOF_WORKERS", "6")
	t.Setenv("VECPROOF_STORE_BACKEND", "memory")
	t.Setenv("VECPROOF_CLUSTER_THRESHOLD", "0.5")
	t.Setenv("VECPROOF_LEDGER_TABLE", "vecproof-runs")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "vecproof-runs", cfg.LedgerTable)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.InDelta(t, 0.5, cfg.Cluster.Threshold, 1e-12)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(New(), filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidValue(t *testing.T) {
	isolate(t)
	t.Setenv("VECPROOF_ALGORITHM", "md5")

	_, err := Load(New(), "")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VECPROOF_LEDGER=from-dotenv.db\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("VECPROOF_LEDGER") })

	LoadEnvFiles()

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.Ledger)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Log:         LogConfig{Level: "info", Format: "text"},
			Algorithm:   "sha256",
			Workers:     1,
			Compression: "none",
			Codec:       "json",
			Store:       StoreConfig{Backend: BackendLocal, Root: "runs", Burst: 1},
			Cluster:     ClusterConfig{Threshold: 0.95, LSHBits: 12},
		}
	}

	base := valid()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"LogLevel", func(c *Config) { c.Log.Level = "loud" }},
		{"LogFormat", func(c *Config) { c.Log.Format = "xml" }},
		{"Algorithm", func(c *Config) { c.Algorithm = "crc" }},
		{"Compression", func(c *Config) { c.Compression = "brotli" }},
		{"Codec", func(c *Config) { c.Codec = "yaml" }},
		{"Workers", func(c *Config) { c.Workers = 0 }},
		{"Backend", func(c *Config) { c.Store.Backend = "ftp" }},
		{"LocalRoot", func(c *Config) { c.Store.Root = "" }},
		{"S3Bucket", func(c *Config) { c.Store.Backend = BackendS3 }},
		{"MinIOEndpoint", func(c *Config) { c.Store.Backend = BackendMinIO; c.Store.Bucket = "b" }},
		{"RateLimit", func(c *Config) { c.Store.RateLimit = -1 }},
		{"Burst", func(c *Config) { c.Store.RateLimit = 10; c.Store.Burst = 0 }},
		{"LSHTables", func(c *Config) { c.Cluster.LSHTables = -1 }},
		{"LSHBits", func(c *Config) { c.Cluster.LSHTables = 4; c.Cluster.LSHBits = 65 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
