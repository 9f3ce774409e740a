// ABOUTME: Issue subcommands: create, update, get, list
// ABOUTME: Issues are experiment-scoped and need evidence from the start

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casefile-io/casefile/internal/insights"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage confirmed issues in an experiment",
}

var issueCreateFlags struct {
	experimentID string
	title        string
	description  string
	severity     string
	evidence     []string
	sourceRunID  string
	hypothesisID string
	metadata     []string
}

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a confirmed issue, status OPEN",
	RunE:  runIssueCreate,
}

var issueUpdateFlags struct {
	experimentID string
	issueID      string
	description  string
	severity     string
	status       string
	resolution   string
	evidence     []string
	assessments  []string
	metadata     []string
}

var issueUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update an issue, append evidence or assessments",
	RunE:  runIssueUpdate,
}

var issueGetFlags struct {
	experimentID string
	issueID      string
}

var issueGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show one issue",
	RunE:  runIssueGet,
}

var issueListFlags struct {
	experimentID string
}

var issueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues, widest evidence reach first",
	RunE:  runIssueList,
}

func init() {
	f := issueCreateCmd.Flags()
	f.StringVar(&issueCreateFlags.experimentID, "experiment-id", "", "Experiment id (required)")
	f.StringVar(&issueCreateFlags.title, "title", "", "Issue title (required)")
	f.StringVar(&issueCreateFlags.description, "description", "", "Issue description")
	f.StringVar(&issueCreateFlags.severity, "severity", "", "Severity: CRITICAL, HIGH, MEDIUM, LOW (required)")
	f.StringArrayVar(&issueCreateFlags.evidence, "evidence", nil,
		`Evidence entry as JSON: {"trace_id":"...","rationale":"..."} (repeatable, at least one)`)
	f.StringVar(&issueCreateFlags.sourceRunID, "source-run-id", "", "Analysis run the issue came from")
	f.StringVar(&issueCreateFlags.hypothesisID, "hypothesis-id", "", "Validated hypothesis behind the issue")
	f.StringArrayVar(&issueCreateFlags.metadata, "metadata", nil, "Metadata entry as key=value (repeatable)")
	_ = issueCreateCmd.MarkFlagRequired("experiment-id")
	_ = issueCreateCmd.MarkFlagRequired("title")
	_ = issueCreateCmd.MarkFlagRequired("severity")
	_ = issueCreateCmd.MarkFlagRequired("evidence")

	f = issueUpdateCmd.Flags()
	f.StringVar(&issueUpdateFlags.experimentID, "experiment-id", "", "Experiment id (scopes the lookup)")
	f.StringVar(&issueUpdateFlags.issueID, "issue-id", "", "Issue id (required)")
	f.StringVar(&issueUpdateFlags.description, "description", "", "New description")
	f.StringVar(&issueUpdateFlags.severity, "severity", "", "New severity")
	f.StringVar(&issueUpdateFlags.status, "status", "", "New status: OPEN, IN_PROGRESS, RESOLVED, REJECTED")
	f.StringVar(&issueUpdateFlags.resolution, "resolution", "", "Resolution note; setting it moves the issue to RESOLVED")
	f.StringArrayVar(&issueUpdateFlags.evidence, "evidence", nil, "Evidence entry as JSON (repeatable, appended)")
	f.StringArrayVar(&issueUpdateFlags.assessments, "assessment", nil, "Assessment note (repeatable, appended)")
	f.StringArrayVar(&issueUpdateFlags.metadata, "metadata", nil, "Metadata entry as key=value (repeatable, merged)")
	_ = issueUpdateCmd.MarkFlagRequired("issue-id")

	f = issueGetCmd.Flags()
	f.StringVar(&issueGetFlags.experimentID, "experiment-id", "", "Experiment id (scopes the lookup)")
	f.StringVar(&issueGetFlags.issueID, "issue-id", "", "Issue id (required)")
	_ = issueGetCmd.MarkFlagRequired("issue-id")

	issueListCmd.Flags().StringVar(&issueListFlags.experimentID, "experiment-id", "", "Experiment id (required)")
	_ = issueListCmd.MarkFlagRequired("experiment-id")

	issueCmd.AddCommand(issueCreateCmd)
	issueCmd.AddCommand(issueUpdateCmd)
	issueCmd.AddCommand(issueGetCmd)
	issueCmd.AddCommand(issueListCmd)
}

func runIssueCreate(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	evidence, err := parseIssueEvidence(issueCreateFlags.evidence)
	if err != nil {
		return err
	}
	metadata, err := parseKeyValues(issueCreateFlags.metadata, "metadata")
	if err != nil {
		return err
	}

	issue, err := app.repo.CreateIssue(cmd.Context(), issueCreateFlags.experimentID, insights.IssueParams{
		Title:        issueCreateFlags.title,
		Description:  issueCreateFlags.description,
		Severity:     issueCreateFlags.severity,
		Evidence:     evidence,
		SourceRunID:  issueCreateFlags.sourceRunID,
		HypothesisID: issueCreateFlags.hypothesisID,
		Metadata:     metadata,
	})
	if err != nil {
		return err
	}

	if rootFlags.output == "json" {
		return printJSON(cmd.OutOrStdout(), issue)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created issue %s (%s)\n", issue.ID, issue.Severity)
	return nil
}

func runIssueUpdate(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	evidence, err := parseIssueEvidence(issueUpdateFlags.evidence)
	if err != nil {
		return err
	}
	metadata, err := parseKeyValues(issueUpdateFlags.metadata, "metadata")
	if err != nil {
		return err
	}

	patch := insights.IssuePatch{
		Description: changedString(cmd, "description", issueUpdateFlags.description),
		Severity:    changedString(cmd, "severity", issueUpdateFlags.severity),
		Status:      changedString(cmd, "status", issueUpdateFlags.status),
		Resolution:  changedString(cmd, "resolution", issueUpdateFlags.resolution),
		Evidence:    evidence,
		Assessments: issueUpdateFlags.assessments,
		Metadata:    metadata,
	}
	issue, err := app.repo.UpdateIssue(cmd.Context(),
		issueUpdateFlags.experimentID, issueUpdateFlags.issueID, patch)
	if err != nil {
		return err
	}

	if rootFlags.output == "json" {
		return printJSON(cmd.OutOrStdout(), issue)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated issue %s: status %s\n", issue.ID, issue.Status)
	return nil
}

func runIssueGet(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	issue, err := app.repo.GetIssue(cmd.Context(), issueGetFlags.experimentID, issueGetFlags.issueID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, issue)
	}

	fmt.Fprintf(out, "Issue:    %s\n", issue.ID)
	fmt.Fprintf(out, "Title:    %s\n", issue.Title)
	fmt.Fprintf(out, "Severity: %s\n", issue.Severity)
	fmt.Fprintf(out, "Status:   %s\n", issue.Status)
	if issue.SourceRunID != "" {
		fmt.Fprintf(out, "Source:   run %s", issue.SourceRunID)
		if issue.HypothesisID != "" {
			fmt.Fprintf(out, ", hypothesis %s", issue.HypothesisID)
		}
		fmt.Fprintln(out)
	}
	if issue.Resolution != "" {
		fmt.Fprintf(out, "Resolved: %s\n", issue.Resolution)
	}
	fmt.Fprintf(out, "Evidence: %d entries, %d traces\n", len(issue.Evidence), issue.TraceCount())
	for _, ev := range issue.Evidence {
		fmt.Fprintf(out, "  %s  %s\n", ev.TraceID, ev.Rationale)
	}
	for _, a := range issue.Assessments {
		fmt.Fprintf(out, "Note:     %s\n", a)
	}
	return nil
}

func runIssueList(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	issues, err := app.query.ListIssues(cmd.Context(), issueListFlags.experimentID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, issues)
	}

	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		rows = append(rows, []string{
			i.ID,
			truncate(i.Title, 40),
			string(i.Severity),
			string(i.Status),
			fmt.Sprintf("%d", i.TraceCount),
			formatTime(i.CreatedAt),
		})
	}
	table(out, []string{"ID", "TITLE", "SEVERITY", "STATUS", "TRACES", "CREATED"}, rows)
	return nil
}
