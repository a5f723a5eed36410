// Package cli implements the vecproof command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information set by main.
var (
	Version = "dev"
	Commit  = "unknown"
)

// NewRootCommand builds the command tree. Each call returns an independent
// tree with its own configuration. Callers other than Execute must not rely
// on the ledger being closed or metrics being flushed.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vecproof",
		Short: "Provably lossless dataset reduction",
		Long: `vecproof shrinks vector datasets by removing exact duplicates and
proves that the reduced form expands back to the original byte for byte.

Near-duplicate clustering is also available; its output is a heuristic
summary and is never presented as lossless.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "runs", Title: "Run Commands:"},
	)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is ./.vecproof.yaml or $HOME/.vecproof.yaml)")
	flags.StringP("output", "o", "", "output format: table, json, yaml (default: table on a terminal, json otherwise)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")
	flags.String("algorithm", "", "fingerprint algorithm: sha256, blake3")
	flags.Int("workers", 0, "goroutines used for clustering")
	flags.String("backend", "", "artifact store backend: local, memory, s3, minio")
	flags.String("store", "", "root directory of the local artifact store")
	flags.String("ledger", "", "SQLite run ledger path")
	flags.String("metrics-file", "", "write Prometheus metrics to this file")

	bindings := map[string]string{
		"output":        "output",
		"log.level":     "log-level",
		"log.format":    "log-format",
		"algorithm":     "algorithm",
		"workers":       "workers",
		"store.backend": "backend",
		"store.root":    "store",
		"ledger":        "ledger",
		"metrics_file":  "metrics-file",
	}
	for key, flag := range bindings {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s flag: %v", flag, err))
		}
	}

	root.AddCommand(
		newGenerateCommand(a),
		newReduceCommand(a),
		newExpandCommand(a),
		newVerifyCommand(a),
		newClusterCommand(a),
		newFingerprintCommand(a),
		newInspectCommand(a),
		newRunsCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure. The ledger is closed
// and metrics are flushed even when the command fails.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := newApp()
	err := newRootCommand(a).ExecuteContext(ctx)
	if terr := a.teardown(); terr != nil {
		fmt.Fprintln(os.Stderr, "Error:", terr)
		err = errors.Join(err, terr)
	}
	if err != nil {
		cancel()
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vecproof %s (%s)\n", Version, Commit)
		},
	}
}
