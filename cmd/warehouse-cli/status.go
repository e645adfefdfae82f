package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/azniosman/project-samba-insight/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show warehouse state: last build, row counts, fact watermark",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.LastRun()
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Println("No builds recorded yet. Run `warehouse-cli build` first.")
		return nil
	}

	mode := "incremental"
	if run.FullRebuild {
		mode = "full"
	}
	fmt.Printf("Last build:     %s (%s)\n", run.ID, mode)
	fmt.Printf("  started:      %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Printf("  finished:     %s\n", run.FinishedAt.Format(time.RFC3339))
	fmt.Printf("  facts built:  %d\n", run.FactsBuilt)
	if run.Error != "" {
		fmt.Printf("  error:        %s\n", run.Error)
	}

	wm, err := store.FactWatermark()
	if err != nil {
		return err
	}
	if wm != nil {
		fmt.Printf("Fact watermark: %s\n", wm.Format("2006-01-02 15:04:05"))
	}

	counts, err := store.TableCounts()
	if err != nil {
		return err
	}
	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	fmt.Println("\nTables:")
	for _, table := range tables {
		fmt.Printf("  %-28s %d rows\n", table, counts[table])
	}
	return nil
}
