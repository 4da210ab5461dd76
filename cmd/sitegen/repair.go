package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitegen_server/config"
	"sitegen_server/internal/app"
	"sitegen_server/internal/pipeline"
	"sitegen_server/internal/sandbox"
	"sitegen_server/internal/store"
	"sitegen_server/internal/types"
)

var repairCmd = &cobra.Command{
	Use:   "repair [flags] <directory>",
	Short: "Run the repair passes over an existing project",
	Long:  "Reconcile dependencies, complete the scaffold, regenerate placeholders, normalise imports, fix styling and balance markup, then rescore.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepair,
}

func init() {
	repairCmd.Flags().String("request", "", "original request text, used for names and copy in regenerated files")
	repairCmd.Flags().Bool("dry-run", false, "report repairs without writing them")
}

func runRepair(cmd *cobra.Command, args []string) error {
	dir := args[0]
	request, err := cmd.Flags().GetString("request")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	policyFile, err := cmd.Root().PersistentFlags().GetString("policy")
	if err != nil {
		return err
	}

	pol, err := app.LoadPolicy(config.Config{PolicyFile: policyFile})
	if err != nil {
		return err
	}
	files, err := readProject(dir)
	if err != nil {
		return err
	}
	projects, err := store.New[*pipeline.Project](1)
	if err != nil {
		return err
	}
	svc := pipeline.NewService(pipeline.Deps{Policy: pol, Store: projects})

	out := cmd.OutOrStdout()
	// Fixes are listed afterwards; only warnings stream.
	var progress types.ProgressFunc
	if !quiet {
		progress = progressPrinter(out, true)
	}
	project, err := svc.Repair(files, request, progress)
	if err != nil {
		return err
	}
	printFixes(out, project.Fixes)
	printReport(out, project.Report)

	if dryRun || len(project.Fixes) == 0 {
		return nil
	}
	n, err := sandbox.WriteFiles(dir, project.Tree)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d file(s) in %s\n", successColor.Sprint("Updated"), n, dir)
	return nil
}
