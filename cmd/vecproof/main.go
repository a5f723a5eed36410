// Package main provides the entry point for the vecproof CLI.
package main

import "github.com/hupe1980/vecproof/internal/cli"

// Version information populated at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Execute()
}
