package main

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/azniosman/project-samba-insight/internal/config"
)

var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "warehouse-cli",
	Short:   "Samba Insight - Brazilian e-commerce analytics warehouse",
	Version: Version,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default warehouse.yaml)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(qualityCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and wires the logging backend to the
// configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := initLogger(cfg.Logging.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(level string) error {
	base := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05} %{level:.5s} %{module}: %{message}`,
	)
	formatted := logging.NewBackendFormatter(base, format)

	leveled := logging.AddModuleLevel(formatted)
	code, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	leveled.SetLevel(code, "")

	logging.SetBackend(leveled)
	return nil
}
