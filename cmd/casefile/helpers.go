// ABOUTME: Shared output and flag helpers for subcommands
// ABOUTME: JSON evidence parsing, table rendering, patch pointer plumbing

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-io/casefile/internal/insights"
)

// parseEvidence decodes repeatable --evidence flag values, one JSON
// object per entry: {"trace_id": ..., "rationale": ..., "supports": ...}
func parseEvidence(raw []string) ([]insights.Evidence, error) {
	evidence := make([]insights.Evidence, 0, len(raw))
	for i, entry := range raw {
		var ev insights.Evidence
		if err := json.Unmarshal([]byte(entry), &ev); err != nil {
			return nil, fmt.Errorf("parsing --evidence entry %d: %w", i+1, err)
		}
		evidence = append(evidence, ev)
	}
	return evidence, nil
}

// parseIssueEvidence decodes repeatable --evidence flag values for
// issues: {"trace_id": ..., "rationale": ...}
func parseIssueEvidence(raw []string) ([]insights.IssueEvidence, error) {
	evidence := make([]insights.IssueEvidence, 0, len(raw))
	for i, entry := range raw {
		var ev insights.IssueEvidence
		if err := json.Unmarshal([]byte(entry), &ev); err != nil {
			return nil, fmt.Errorf("parsing --evidence entry %d: %w", i+1, err)
		}
		evidence = append(evidence, ev)
	}
	return evidence, nil
}

// parseKeyValues decodes repeatable key=value flag entries into a
// metadata merge map.
func parseKeyValues(raw []string, flag string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(raw))
	for i, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parsing --%s entry %d: want key=value, got %q", flag, i+1, entry)
		}
		out[key] = value
	}
	return out, nil
}

// parseMetricValues is parseKeyValues with numeric values.
func parseMetricValues(raw []string) (map[string]any, error) {
	kv, err := parseKeyValues(raw, "metric")
	if err != nil {
		return nil, err
	}
	for key, value := range kv {
		f, err := strconv.ParseFloat(value.(string), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing --metric %s: %q is not a number", key, value)
		}
		kv[key] = f
	}
	return kv, nil
}

// changedString returns a pointer to the flag value only when the flag
// was set, so updates distinguish "clear this field" from "leave alone".
func changedString(cmd *cobra.Command, name string, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table renders aligned rows with a colored header line.
func table(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cyan := color.New(color.FgCyan)
	for i, h := range header {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		cyan.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
