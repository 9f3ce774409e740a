// ABOUTME: Analysis subcommands: create, update, get, list
// ABOUTME: An analysis is one investigation container inside an experiment

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casefile-io/casefile/internal/insights"
)

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage investigation analyses",
}

var analysisCreateFlags struct {
	experimentID string
	name         string
	description  string
}

var analysisCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a new analysis in an experiment",
	RunE:  runAnalysisCreate,
}

var analysisUpdateFlags struct {
	runID       string
	name        string
	description string
	status      string
	metadata    []string
}

var analysisUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update an analysis (name, description, status)",
	RunE:  runAnalysisUpdate,
}

var analysisGetFlags struct {
	runID string
}

var analysisGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show one analysis",
	RunE:  runAnalysisGet,
}

var analysisListFlags struct {
	experimentID string
}

var analysisListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an experiment's analyses in creation order",
	RunE:  runAnalysisList,
}

func init() {
	f := analysisCreateCmd.Flags()
	f.StringVar(&analysisCreateFlags.experimentID, "experiment-id", "", "Experiment to create the analysis in (required)")
	f.StringVar(&analysisCreateFlags.name, "name", "", "Analysis name (required)")
	f.StringVar(&analysisCreateFlags.description, "description", "", "What this analysis investigates")
	_ = analysisCreateCmd.MarkFlagRequired("experiment-id")
	_ = analysisCreateCmd.MarkFlagRequired("name")

	f = analysisUpdateCmd.Flags()
	f.StringVar(&analysisUpdateFlags.runID, "run-id", "", "Analysis run id (required)")
	f.StringVar(&analysisUpdateFlags.name, "name", "", "New name")
	f.StringVar(&analysisUpdateFlags.description, "description", "", "New description")
	f.StringVar(&analysisUpdateFlags.status, "status", "", "New status: ACTIVE, COMPLETED, ARCHIVED")
	f.StringArrayVar(&analysisUpdateFlags.metadata, "metadata", nil, "Metadata entry as key=value (repeatable, merged)")
	_ = analysisUpdateCmd.MarkFlagRequired("run-id")

	analysisGetCmd.Flags().StringVar(&analysisGetFlags.runID, "run-id", "", "Analysis run id (required)")
	_ = analysisGetCmd.MarkFlagRequired("run-id")

	analysisListCmd.Flags().StringVar(&analysisListFlags.experimentID, "experiment-id", "", "Experiment id (required)")
	_ = analysisListCmd.MarkFlagRequired("experiment-id")

	analysisCmd.AddCommand(analysisCreateCmd)
	analysisCmd.AddCommand(analysisUpdateCmd)
	analysisCmd.AddCommand(analysisGetCmd)
	analysisCmd.AddCommand(analysisListCmd)
}

func runAnalysisCreate(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	analysis, err := app.repo.CreateAnalysis(cmd.Context(),
		analysisCreateFlags.experimentID, analysisCreateFlags.name, analysisCreateFlags.description)
	if err != nil {
		return err
	}

	if rootFlags.output == "json" {
		return printJSON(cmd.OutOrStdout(), analysis)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created analysis %s (run %s)\n", analysis.Name, analysis.RunID)
	return nil
}

func runAnalysisUpdate(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	metadata, err := parseKeyValues(analysisUpdateFlags.metadata, "metadata")
	if err != nil {
		return err
	}

	patch := insights.AnalysisPatch{
		Name:        changedString(cmd, "name", analysisUpdateFlags.name),
		Description: changedString(cmd, "description", analysisUpdateFlags.description),
		Status:      changedString(cmd, "status", analysisUpdateFlags.status),
		Metadata:    metadata,
	}
	analysis, err := app.repo.UpdateAnalysis(cmd.Context(), analysisUpdateFlags.runID, patch)
	if err != nil {
		return err
	}

	if rootFlags.output == "json" {
		return printJSON(cmd.OutOrStdout(), analysis)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated analysis %s: status %s\n", analysis.RunID, analysis.Status)
	return nil
}

func runAnalysisGet(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	analysis, err := app.repo.GetAnalysis(cmd.Context(), analysisGetFlags.runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, analysis)
	}
	fmt.Fprintf(out, "Run:         %s\n", analysis.RunID)
	fmt.Fprintf(out, "Name:        %s\n", analysis.Name)
	fmt.Fprintf(out, "Status:      %s\n", analysis.Status)
	fmt.Fprintf(out, "Created:     %s\n", formatTime(analysis.CreatedAt))
	fmt.Fprintf(out, "Updated:     %s\n", formatTime(analysis.UpdatedAt))
	if analysis.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", analysis.Description)
	}
	return nil
}

func runAnalysisList(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	analyses, err := app.query.ListAnalyses(cmd.Context(), analysisListFlags.experimentID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, analyses)
	}

	rows := make([][]string, 0, len(analyses))
	for _, a := range analyses {
		rows = append(rows, []string{
			a.RunID,
			truncate(a.Name, 40),
			string(a.Status),
			fmt.Sprintf("%d", a.HypothesisCount),
			fmt.Sprintf("%d", a.ValidatedCount),
			formatTime(a.CreatedAt),
		})
	}
	table(out, []string{"RUN", "NAME", "STATUS", "HYPOTHESES", "VALIDATED", "CREATED"}, rows)
	return nil
}
