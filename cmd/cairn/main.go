// Package main provides the cairn CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cairn",
		Short: "cairn - an in-memory, strongly-typed, transactional graph container",
		Long: `cairn is a Go library and CLI around an in-memory, strongly-typed,
transactional graph container: node storage keyed by variant, a staged
transaction engine with an eight-phase commit, bidirectional link
maintenance, and optional link-type checking.

The CLI here exists to exercise and inspect that container from the
command line using the library's own Worker/Factory/Product example
schema: validate a YAML schema document against it, run a sample
commit, and export/import a BadgerDB-backed snapshot.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cairn v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newCommitDemoCmd())
	rootCmd.AddCommand(newSnapshotCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
