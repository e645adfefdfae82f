package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/azniosman/project-samba-insight/internal/pipeline"
)

var buildFull bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the warehouse from the raw CSV extracts",
	Long: `Build the warehouse: stage the raw extracts, derive facts and
dimensions, and rebuild every analytical mart.

By default only orders newer than the stored fact watermark are
re-derived. Use --full to rebuild the fact table from scratch.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildFull, "full", false, "rebuild all facts, ignoring the watermark")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := engine.Build(ctx, buildFull)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	mode := "incremental"
	if result.FullRebuild {
		mode = "full"
	}
	fmt.Printf("Build %s complete (%s, %s)\n", result.RunID, mode, result.Duration.Round(time.Millisecond))
	fmt.Printf("  facts written: %d (total %d)\n\n", result.FactsBuilt, result.TotalFacts)

	tables := make([]string, 0, len(result.TableCounts))
	for table := range result.TableCounts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Printf("  %-28s %d rows\n", table, result.TableCounts[table])
	}
	return nil
}
