// ABOUTME: Hypothesis subcommands: create, update, get, list
// ABOUTME: Evidence arrives as repeatable JSON objects on --evidence

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casefile-io/casefile/internal/insights"
)

var hypothesisCmd = &cobra.Command{
	Use:   "hypothesis",
	Short: "Manage hypotheses inside an analysis",
}

var hypothesisCreateFlags struct {
	runID       string
	statement   string
	testingPlan string
	rationale   string
	evidence    []string
}

var hypothesisCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a new hypothesis, status TESTING",
	RunE:  runHypothesisCreate,
}

var hypothesisUpdateFlags struct {
	runID        string
	hypothesisID string
	statement    string
	testingPlan  string
	rationale    string
	status       string
	evidence     []string
	metadata     []string
	metrics      []string
}

var hypothesisUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a hypothesis or append evidence",
	Long: "Append evidence and patch fields of a hypothesis. Moving to VALIDATED or\n" +
		"REJECTED requires at least one evidence entry, counting entries appended\n" +
		"in the same call.",
	RunE: runHypothesisUpdate,
}

var hypothesisGetFlags struct {
	runID        string
	hypothesisID string
}

var hypothesisGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show one hypothesis with its evidence",
	RunE:  runHypothesisGet,
}

var hypothesisListFlags struct {
	runID string
}

var hypothesisListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an analysis run's hypotheses in creation order",
	RunE:  runHypothesisList,
}

func init() {
	f := hypothesisCreateCmd.Flags()
	f.StringVar(&hypothesisCreateFlags.runID, "run-id", "", "Analysis run id (required)")
	f.StringVar(&hypothesisCreateFlags.statement, "statement", "", "Falsifiable statement (required)")
	f.StringVar(&hypothesisCreateFlags.testingPlan, "testing-plan", "", "How the hypothesis will be tested")
	f.StringVar(&hypothesisCreateFlags.rationale, "rationale", "", "Why the hypothesis is worth testing")
	f.StringArrayVar(&hypothesisCreateFlags.evidence, "evidence", nil,
		`Evidence entry as JSON: {"trace_id":"...","rationale":"...","supports":true} (repeatable)`)
	_ = hypothesisCreateCmd.MarkFlagRequired("run-id")
	_ = hypothesisCreateCmd.MarkFlagRequired("statement")

	f = hypothesisUpdateCmd.Flags()
	f.StringVar(&hypothesisUpdateFlags.runID, "run-id", "", "Analysis run id (required)")
	f.StringVar(&hypothesisUpdateFlags.hypothesisID, "hypothesis-id", "", "Hypothesis id (required)")
	f.StringVar(&hypothesisUpdateFlags.statement, "statement", "", "New statement")
	f.StringVar(&hypothesisUpdateFlags.testingPlan, "testing-plan", "", "New testing plan")
	f.StringVar(&hypothesisUpdateFlags.rationale, "rationale", "", "New rationale")
	f.StringVar(&hypothesisUpdateFlags.status, "status", "", "New status: TESTING, VALIDATED, REJECTED")
	f.StringArrayVar(&hypothesisUpdateFlags.evidence, "evidence", nil,
		`Evidence entry as JSON (repeatable, appended)`)
	f.StringArrayVar(&hypothesisUpdateFlags.metadata, "metadata", nil, "Metadata entry as key=value (repeatable, merged)")
	f.StringArrayVar(&hypothesisUpdateFlags.metrics, "metric", nil, "Metric entry as key=number (repeatable, merged)")
	_ = hypothesisUpdateCmd.MarkFlagRequired("run-id")
	_ = hypothesisUpdateCmd.MarkFlagRequired("hypothesis-id")

	f = hypothesisGetCmd.Flags()
	f.StringVar(&hypothesisGetFlags.runID, "run-id", "", "Analysis run id (required)")
	f.StringVar(&hypothesisGetFlags.hypothesisID, "hypothesis-id", "", "Hypothesis id (required)")
	_ = hypothesisGetCmd.MarkFlagRequired("run-id")
	_ = hypothesisGetCmd.MarkFlagRequired("hypothesis-id")

	hypothesisListCmd.Flags().StringVar(&hypothesisListFlags.runID, "run-id", "", "Analysis run id (required)")
	_ = hypothesisListCmd.MarkFlagRequired("run-id")

	hypothesisCmd.AddCommand(hypothesisCreateCmd)
	hypothesisCmd.AddCommand(hypothesisUpdateCmd)
	hypothesisCmd.AddCommand(hypothesisGetCmd)
	hypothesisCmd.AddCommand(hypothesisListCmd)
}

func runHypothesisCreate(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	evidence, err := parseEvidence(hypothesisCreateFlags.evidence)
	if err != nil {
		return err
	}

	hyp, err := app.repo.CreateHypothesis(cmd.Context(), hypothesisCreateFlags.runID,
		hypothesisCreateFlags.statement, hypothesisCreateFlags.testingPlan,
		hypothesisCreateFlags.rationale, evidence)
	if err != nil {
		return err
	}

	if rootFlags.output == "json" {
		return printJSON(cmd.OutOrStdout(), hyp)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created hypothesis %s\n", hyp.ID)
	return nil
}

func runHypothesisUpdate(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	evidence, err := parseEvidence(hypothesisUpdateFlags.evidence)
	if err != nil {
		return err
	}
	metadata, err := parseKeyValues(hypothesisUpdateFlags.metadata, "metadata")
	if err != nil {
		return err
	}
	metrics, err := parseMetricValues(hypothesisUpdateFlags.metrics)
	if err != nil {
		return err
	}

	patch := insights.HypothesisPatch{
		Statement:   changedString(cmd, "statement", hypothesisUpdateFlags.statement),
		TestingPlan: changedString(cmd, "testing-plan", hypothesisUpdateFlags.testingPlan),
		Rationale:   changedString(cmd, "rationale", hypothesisUpdateFlags.rationale),
		Status:      changedString(cmd, "status", hypothesisUpdateFlags.status),
		Evidence:    evidence,
		Metadata:    metadata,
		Metrics:     metrics,
	}
	hyp, err := app.repo.UpdateHypothesis(cmd.Context(),
		hypothesisUpdateFlags.runID, hypothesisUpdateFlags.hypothesisID, patch)
	if err != nil {
		return err
	}

	if rootFlags.output == "json" {
		return printJSON(cmd.OutOrStdout(), hyp)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated hypothesis %s: status %s, %d evidence entries\n",
		hyp.ID, hyp.Status, hyp.EvidenceCount())
	return nil
}

func runHypothesisGet(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	hyp, err := app.repo.GetHypothesis(cmd.Context(),
		hypothesisGetFlags.runID, hypothesisGetFlags.hypothesisID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, hyp)
	}

	fmt.Fprintf(out, "Hypothesis: %s\n", hyp.ID)
	fmt.Fprintf(out, "Statement:  %s\n", hyp.Statement)
	fmt.Fprintf(out, "Status:     %s\n", hyp.Status)
	if hyp.TestingPlan != "" {
		fmt.Fprintf(out, "Plan:       %s\n", hyp.TestingPlan)
	}
	if hyp.Rationale != "" {
		fmt.Fprintf(out, "Rationale:  %s\n", hyp.Rationale)
	}
	fmt.Fprintf(out, "Evidence:   %d entries, %d traces (%d supporting, %d refuting)\n",
		hyp.EvidenceCount(), hyp.TraceCount(), hyp.SupportsCount(), hyp.RefutesCount())
	for _, ev := range hyp.Evidence {
		verdict := "refutes"
		if ev.Supports {
			verdict = "supports"
		}
		fmt.Fprintf(out, "  %s [%s] %s\n", ev.TraceID, verdict, ev.Rationale)
	}
	return nil
}

func runHypothesisList(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	hypotheses, err := app.query.ListHypotheses(cmd.Context(), hypothesisListFlags.runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, hypotheses)
	}

	rows := make([][]string, 0, len(hypotheses))
	for _, h := range hypotheses {
		rows = append(rows, []string{
			h.ID,
			truncate(h.Statement, 50),
			string(h.Status),
			fmt.Sprintf("%d", h.EvidenceCount),
			fmt.Sprintf("%d/%d", h.SupportsCount, h.RefutesCount),
		})
	}
	table(out, []string{"ID", "STATEMENT", "STATUS", "EVIDENCE", "FOR/AGAINST"}, rows)
	return nil
}
