package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sitegen_server/config"
	"sitegen_server/internal/app"
	"sitegen_server/internal/pipeline"
	"sitegen_server/internal/sandbox"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] <request>",
	Short: "Generate a site from a natural-language request",
	Long:  "Plan the project, run every generation stage against the configured completion backend, repair and score the result, then write it to --out.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringP("out", "o", "site", "directory to write the project to")
	generateCmd.Flags().String("config", ".", "directory holding config.yaml")
	generateCmd.Flags().Bool("force", false, "write the project even when critical issues block it")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	configDir, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
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

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return err
	}
	if policyFile != "" {
		cfg.PolicyFile = policyFile
	}
	// The CLI writes to --out itself.
	cfg.AutoHandoff = false

	wired, err := app.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	project, genErr := wired.Service.Generate(ctx, strings.Join(args, " "), progressPrinter(out, quiet))
	if project == nil {
		return genErr
	}

	return writeProject(out, project, genErr, outDir, force)
}

// writeProject reports on a generated project and writes it to outDir. A
// blocked project is only written when force is set.
func writeProject(out io.Writer, project *pipeline.Project, genErr error, outDir string, force bool) error {
	printFixes(out, project.Fixes)
	printReport(out, project.Report)

	blocked := errors.Is(genErr, pipeline.ErrBlocked)
	if blocked && !force {
		return fmt.Errorf("project %s not written, it has critical issues (use --force to write it anyway): %w", project.ID, genErr)
	}
	if genErr != nil && !blocked {
		return genErr
	}

	n, err := sandbox.WriteFiles(outDir, project.Tree)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d file(s) to %s\n", successColor.Sprint("Wrote"), n, outDir)
	if blocked {
		return fmt.Errorf("project has critical issues: %w", genErr)
	}
	return nil
}
