// ABOUTME: Census commands: attach and fetch statistical snapshots
// ABOUTME: The snapshot is produced elsewhere; casefile only stores it

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var censusCmd = &cobra.Command{
	Use:   "census",
	Short: "Attach or fetch an analysis run's census snapshot",
}

var censusPutFlags struct {
	runID string
	file  string
}

var censusPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Attach a census snapshot from a YAML file",
	RunE:  runCensusPut,
}

var censusGetFlags struct {
	runID string
}

var censusGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the census snapshot attached to an analysis run",
	RunE:  runCensusGet,
}

func init() {
	f := censusPutCmd.Flags()
	f.StringVar(&censusPutFlags.runID, "run-id", "", "Analysis run id (required)")
	f.StringVar(&censusPutFlags.file, "file", "", "YAML file with the snapshot, - for stdin (required)")
	_ = censusPutCmd.MarkFlagRequired("run-id")
	_ = censusPutCmd.MarkFlagRequired("file")

	censusGetCmd.Flags().StringVar(&censusGetFlags.runID, "run-id", "", "Analysis run id (required)")
	_ = censusGetCmd.MarkFlagRequired("run-id")

	censusCmd.AddCommand(censusPutCmd)
	censusCmd.AddCommand(censusGetCmd)
}

func runCensusPut(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	var data []byte
	if censusPutFlags.file == "-" {
		data, err = os.ReadFile("/dev/stdin")
	} else {
		data, err = os.ReadFile(censusPutFlags.file)
	}
	if err != nil {
		return fmt.Errorf("reading census file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing census file: %w", err)
	}

	if err := app.repo.PutCensus(cmd.Context(), censusPutFlags.runID, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Attached census to run %s\n", censusPutFlags.runID)
	return nil
}

func runCensusGet(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	doc, err := app.repo.GetCensus(cmd.Context(), censusGetFlags.runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootFlags.output == "json" {
		return printJSON(out, doc)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
