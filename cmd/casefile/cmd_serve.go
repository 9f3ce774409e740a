// ABOUTME: Serve command: runs the read-side REST server
// ABOUTME: Shuts down gracefully on SIGINT and SIGTERM

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-io/casefile/internal/server"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	addr := serveFlags.addr
	if addr == "" {
		addr = app.cfg.Server.HTTPAddr
	}

	green := color.New(color.FgGreen)
	green.Print("▶ ")
	fmt.Printf("casefile %s serving on %s\n", version, addr)

	srv := server.New(app.query, app.repo, server.Options{
		MetricsEnabled: app.cfg.Metrics.Enabled,
		MetricsPath:    app.cfg.Metrics.Path,
	})
	return srv.Serve(ctx, addr)
}
