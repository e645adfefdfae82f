package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/azniosman/project-samba-insight/internal/quality"
	"github.com/azniosman/project-samba-insight/internal/storage"
)

var qualityJSON bool

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Run data quality checks against the materialized warehouse",
	RunE:  runQuality,
}

func init() {
	qualityCmd.Flags().BoolVar(&qualityJSON, "json", false, "emit the report as JSON")
}

func runQuality(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := quality.NewRunner(store.DB())
	runner.WarnAfter = time.Duration(cfg.Freshness.WarnAfterHours) * time.Hour
	runner.ErrorAfter = time.Duration(cfg.Freshness.ErrorAfterHours) * time.Hour

	report := runner.Run(quality.DefaultChecks())

	if qualityJSON {
		out, err := quality.FormatJSON(report)
		if err != nil {
			return err
		}
		fmt.Println(out)
	} else {
		fmt.Print(quality.FormatReport(report))
	}

	if !report.Passed() {
		return fmt.Errorf("quality checks failed")
	}
	return nil
}
