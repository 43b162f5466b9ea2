package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cairnhq/cairn/internal/fixture"
	"github.com/cairnhq/cairn/pkg/audit"
	"github.com/cairnhq/cairn/pkg/config"
	"github.com/cairnhq/cairn/pkg/graph"
)

func newCommitDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit-demo",
		Short: "Run a sample commit against the Worker/Factory/Product schema",
		Long: `commit-demo builds a Graph conforming to cairn's own
Worker/Factory/Product example schema (internal/fixture) and runs one
transaction through it: insert a Factory and a Worker, link them with
AddLink so the bidirectional maintainer fills in the reverse edge, then
commit. The commit's outcome is logged through pkg/audit the same way a
long-running process would.`,
		RunE: runCommitDemo,
	}
	cmd.Flags().String("config", "", "path to a cairn config YAML file (optional)")
	cmd.Flags().Bool("check", false, "use CommitWithCheck instead of Commit (overrides config's link_type_check)")
	return cmd
}

func runCommitDemo(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	forceCheck, _ := cmd.Flags().GetBool("check")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := audit.NewLogger(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		LogPath:    cfg.Audit.LogPath,
		SyncWrites: cfg.Audit.SyncWrites,
	})
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer logger.Close()

	reg, err := fixture.Build()
	if err != nil {
		return fmt.Errorf("building schema: %w", err)
	}
	g := graph.New(reg)

	txn := g.Begin()
	factoryID := txn.Insert(&fixture.Factory{Name: "plant-1"})
	workerID := txn.Insert(&fixture.Worker{Name: "alice"})
	txn.AddLink(factoryID, "workers", workerID)

	commit := txn.Commit
	if forceCheck || cfg.LinkTypeCheck {
		commit = txn.CommitWithCheck
	}

	if err := commit(); err != nil {
		_ = logger.LogRejection(err)
		return fmt.Errorf("commit rejected: %w", err)
	}
	_ = logger.LogCommit(2, 0)

	factory, _ := g.Get(factoryID)
	worker, _ := g.Get(workerID)
	fmt.Printf("committed %d node(s)\n", g.Len())
	fmt.Printf("  Factory %s: workers=%v\n", factoryID, factory.(*fixture.Factory).Workers)
	fmt.Printf("  Worker  %s: factory=%v\n", workerID, worker.(*fixture.Worker).Factory)
	fmt.Printf("  FactoryFloor group has %d node(s)\n", len(g.IterateGroup("FactoryFloor")))
	return nil
}
