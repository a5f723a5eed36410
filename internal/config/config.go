// Package config loads CLI configuration from flags, VECPROOF_* environment
// variables, .env files and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hupe1980/vecproof/archive"
	"github.com/hupe1980/vecproof/codec"
	"github.com/hupe1980/vecproof/fingerprint"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "VECPROOF"

// Store backends.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendMinIO  = "minio"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved CLI configuration.
type Config struct {
	Log         LogConfig     `mapstructure:"log" yaml:"log"`
	Algorithm   string        `mapstructure:"algorithm" yaml:"algorithm"`
	Workers     int           `mapstructure:"workers" yaml:"workers"`
	Compression string        `mapstructure:"compression" yaml:"compression"`
	Codec       string        `mapstructure:"codec" yaml:"codec"`
	HTMLReport  bool          `mapstructure:"html_report" yaml:"html_report"`
	Output      string        `mapstructure:"output" yaml:"output"`
	Store       StoreConfig   `mapstructure:"store" yaml:"store"`
	Cluster     ClusterConfig `mapstructure:"cluster" yaml:"cluster"`

	// Ledger is the SQLite run history path. Empty disables the ledger
	// unless LedgerTable is set.
	Ledger string `mapstructure:"ledger" yaml:"ledger"`

	// LedgerTable selects a shared DynamoDB ledger instead of SQLite. The
	// region is taken from store.region.
	LedgerTable    string `mapstructure:"ledger_table" yaml:"ledger_table"`
	LedgerEndpoint string `mapstructure:"ledger_endpoint" yaml:"ledger_endpoint"`

	// MetricsFile receives Prometheus metrics in text format after each
	// command. Empty disables it.
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`

	// File is the config file used, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// StoreConfig selects where run artifacts are written.
type StoreConfig struct {
	Backend   string  `mapstructure:"backend" yaml:"backend"`
	Root      string  `mapstructure:"root" yaml:"root"`
	Bucket    string  `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string  `mapstructure:"prefix" yaml:"prefix"`
	Region    string  `mapstructure:"region" yaml:"region"`
	Endpoint  string  `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string  `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string  `mapstructure:"secret_key" yaml:"-"`
	UseSSL    bool    `mapstructure:"use_ssl" yaml:"use_ssl"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

// ClusterConfig holds near-duplicate clustering defaults.
type ClusterConfig struct {
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
	LSHTables int     `mapstructure:"lsh_tables" yaml:"lsh_tables"`
	LSHBits   int     `mapstructure:"lsh_bits" yaml:"lsh_bits"`
	LSHSeed   int64   `mapstructure:"lsh_seed" yaml:"lsh_seed"`
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("algorithm", fingerprint.SHA256.String())
	v.SetDefault("workers", 1)
	v.SetDefault("compression", archive.CompressionZSTD.String())
	v.SetDefault("codec", "json")
	v.SetDefault("html_report", false)
	v.SetDefault("output", "")
	v.SetDefault("store.backend", BackendLocal)
	v.SetDefault("store.root", "runs")
	v.SetDefault("store.bucket", "")
	v.SetDefault("store.prefix", "")
	v.SetDefault("store.region", "")
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.access_key", "")
	v.SetDefault("store.secret_key", "")
	v.SetDefault("store.use_ssl", true)
	v.SetDefault("store.rate_limit", 0.0)
	v.SetDefault("store.burst", 1)
	v.SetDefault("cluster.threshold", 0.95)
	v.SetDefault("cluster.lsh_tables", 0)
	v.SetDefault("cluster.lsh_bits", 12)
	v.SetDefault("cluster.lsh_seed", 1)
	v.SetDefault("ledger", "")
	v.SetDefault("ledger_table", "")
	v.SetDefault("ledger_endpoint", "")
	v.SetDefault("metrics_file", "")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadEnvFiles loads .env and then .env.local into the process environment.
// Variables already set are kept. Missing files are ignored.
func LoadEnvFiles(files ...string) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads file, or .vecproof.yaml from the working or home directory when
// file is empty, and returns the validated configuration. A missing default
// file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".vecproof")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every enumerated value parses and every bound holds.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q must be text or json", ErrInvalid, c.Log.Format)
	}
	if _, err := fingerprint.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := archive.ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, ok := codec.ByName(c.Codec); !ok {
		return fmt.Errorf("%w: unknown codec %q", ErrInvalid, c.Codec)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalid, c.Workers)
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if math.IsNaN(c.Cluster.Threshold) {
		return fmt.Errorf("%w: cluster.threshold is NaN", ErrInvalid)
	}
	if c.Cluster.LSHTables < 0 {
		return fmt.Errorf("%w: cluster.lsh_tables must be >= 0", ErrInvalid)
	}
	if c.Cluster.LSHTables > 0 && (c.Cluster.LSHBits < 1 || c.Cluster.LSHBits > 64) {
		return fmt.Errorf("%w: cluster.lsh_bits must be in [1, 64], got %d", ErrInvalid, c.Cluster.LSHBits)
	}
	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Backend {
	case BackendLocal:
		if s.Root == "" {
			return fmt.Errorf("%w: store.root is required for the local backend", ErrInvalid)
		}
	case BackendMemory:
	case BackendS3:
		if s.Bucket == "" {
			return fmt.Errorf("%w: store.bucket is required for the s3 backend", ErrInvalid)
		}
	case BackendMinIO:
		if s.Bucket == "" || s.Endpoint == "" {
			return fmt.Errorf("%w: store.bucket and store.endpoint are required for the minio backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store.backend %q", ErrInvalid, s.Backend)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("%w: store.rate_limit must be >= 0", ErrInvalid)
	}
	if s.RateLimit > 0 && s.Burst < 1 {
		return fmt.Errorf("%w: store.burst must be >= 1", ErrInvalid)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return level, nil
}

// FingerprintAlgorithm returns the parsed Algorithm. Call after Validate.
func (c *Config) FingerprintAlgorithm() fingerprint.Algorithm {
	alg, _ := fingerprint.ParseAlgorithm(c.Algorithm)
	return alg
}

// ArchiveCompression returns the parsed Compression. Call after Validate.
func (c *Config) ArchiveCompression() archive.Compression {
	comp, _ := archive.ParseCompression(c.Compression)
	return comp
}

// ManifestCodec returns the manifest codec. Call after Validate.
func (c *Config) ManifestCodec() codec.Codec {
	cd, ok := codec.ByName(c.Codec)
	if !ok {
		return codec.Default
	}
	return cd
}
