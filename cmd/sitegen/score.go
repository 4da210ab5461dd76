package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sitegen_server/internal/quality"
	"sitegen_server/internal/tree"
)

var scoreCmd = &cobra.Command{
	Use:   "score [flags] <directory>",
	Short: "Score a project without changing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().Bool("json", false, "print the report as JSON")
}

func runScore(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	files, err := readProject(args[0])
	if err != nil {
		return err
	}
	t, err := tree.FromRecords(files)
	if err != nil {
		return err
	}

	report := quality.Score(t)
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	if blocking := report.Blocking(); len(blocking) > 0 {
		return fmt.Errorf("%d critical issue(s)", len(blocking))
	}
	return nil
}
