// ABOUTME: Preview commands: bounded trace samples for hypotheses and issues
// ABOUTME: Resolves trace summaries through the configured trace store

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casefile-io/casefile/internal/query"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview the evidence traces behind findings",
}

var previewHypothesesFlags struct {
	runID     string
	maxTraces int
}

var previewHypothesesCmd = &cobra.Command{
	Use:   "hypotheses",
	Short: "Sample the evidence traces of an analysis run's hypotheses",
	RunE:  runPreviewHypotheses,
}

var previewIssuesFlags struct {
	experimentID string
	maxTraces    int
}

var previewIssuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Sample the evidence traces of an experiment's issues",
	RunE:  runPreviewIssues,
}

func init() {
	f := previewHypothesesCmd.Flags()
	f.StringVar(&previewHypothesesFlags.runID, "run-id", "", "Analysis run id (required)")
	f.IntVar(&previewHypothesesFlags.maxTraces, "max-traces", 0, "Cap on returned traces (default 100)")
	_ = previewHypothesesCmd.MarkFlagRequired("run-id")

	f = previewIssuesCmd.Flags()
	f.StringVar(&previewIssuesFlags.experimentID, "experiment-id", "", "Experiment id (required)")
	f.IntVar(&previewIssuesFlags.maxTraces, "max-traces", 0, "Cap on returned traces (default 100)")
	_ = previewIssuesCmd.MarkFlagRequired("experiment-id")

	previewCmd.AddCommand(previewHypothesesCmd)
	previewCmd.AddCommand(previewIssuesCmd)
}

func runPreviewHypotheses(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	preview, err := app.query.PreviewHypotheses(cmd.Context(),
		previewHypothesesFlags.runID, previewHypothesesFlags.maxTraces)
	if err != nil {
		return err
	}
	return printPreview(cmd, preview)
}

func runPreviewIssues(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	preview, err := app.query.PreviewIssues(cmd.Context(),
		previewIssuesFlags.experimentID, previewIssuesFlags.maxTraces)
	if err != nil {
		return err
	}
	return printPreview(cmd, preview)
}

func printPreview(cmd *cobra.Command, preview *query.Preview) error {
	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, preview)
	}

	rows := make([][]string, 0, len(preview.Traces))
	for _, tr := range preview.Traces {
		ts := ""
		if tr.Timestamp != nil {
			ts = formatTime(*tr.Timestamp)
		}
		ms := ""
		if tr.Status != "" {
			ms = fmt.Sprintf("%d", tr.ExecutionTimeMS)
		}
		rows = append(rows, []string{
			tr.TraceID,
			tr.Status,
			ms,
			ts,
			truncate(tr.EvidenceRationale, 60),
		})
	}
	table(out, []string{"TRACE", "STATUS", "MS", "TIMESTAMP", "RATIONALE"}, rows)
	fmt.Fprintf(out, "\nShowing %d of %d distinct traces\n", preview.ReturnedCount, preview.TotalCount)
	return nil
}
