// ABOUTME: Trace linking commands: link and links
// ABOUTME: Linking is an idempotent union, safe to repeat from any process

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var linkFlags struct {
	runID    string
	traceIDs []string
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link traces to a run (idempotent)",
	RunE:  runLink,
}

var linksFlags struct {
	runID string
}

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "List the traces linked to a run",
	RunE:  runLinks,
}

func init() {
	f := linkCmd.Flags()
	f.StringVar(&linkFlags.runID, "run-id", "", "Run id (required)")
	f.StringArrayVar(&linkFlags.traceIDs, "trace-id", nil, "Trace id to link (repeatable, required)")
	_ = linkCmd.MarkFlagRequired("run-id")
	_ = linkCmd.MarkFlagRequired("trace-id")

	linksCmd.Flags().StringVar(&linksFlags.runID, "run-id", "", "Run id (required)")
	_ = linksCmd.MarkFlagRequired("run-id")
}

func runLink(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.registry.LinkTraces(cmd.Context(), linkFlags.runID, linkFlags.traceIDs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Linked %d trace(s) to run %s\n", len(linkFlags.traceIDs), linkFlags.runID)
	return nil
}

func runLinks(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	traceIDs, err := app.registry.LinkedTraces(cmd.Context(), linksFlags.runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, map[string]any{"run_id": linksFlags.runID, "trace_ids": traceIDs})
	}
	for _, id := range traceIDs {
		fmt.Fprintln(out, id)
	}
	return nil
}
