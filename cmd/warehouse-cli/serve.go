package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azniosman/project-samba-insight/internal/storage"
	"github.com/azniosman/project-samba-insight/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the marts over a read-only HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	fmt.Printf("Serving warehouse API at http://localhost%s\n", addr)
	server := web.NewServer(store)
	return server.Run(addr)
}
