package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"sitegen_server/internal/quality"
	"sitegen_server/internal/repair"
	"sitegen_server/internal/sandbox"
	"sitegen_server/internal/types"
)

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	stageColor   = color.New(color.Faint)
)

func applyColorMode(mode string) error {
	switch mode {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unknown --color value %q (want auto, on or off)", mode)
	}
	return nil
}

func eventColor(t types.ProgressType) *color.Color {
	switch t {
	case types.ProgressSuccess:
		return successColor
	case types.ProgressWarning:
		return warnColor
	case types.ProgressError:
		return errorColor
	default:
		return infoColor
	}
}

// progressPrinter writes each event as one line; quiet drops info events.
func progressPrinter(w io.Writer, quiet bool) types.ProgressFunc {
	return func(ev types.ProgressEvent) {
		if quiet && ev.Type == types.ProgressInfo {
			return
		}
		stage := ""
		if ev.Stage != "" {
			stage = stageColor.Sprintf("[%s] ", ev.Stage)
		}
		fmt.Fprintf(w, "%s%s\n", stage, eventColor(ev.Type).Sprint(ev.Message))
	}
}

func gradeColor(grade string) *color.Color {
	switch grade {
	case "A", "B":
		return successColor
	case "C":
		return warnColor
	default:
		return errorColor
	}
}

func severityColor(s types.Severity) *color.Color {
	switch s {
	case types.SeverityCritical, types.SeverityHigh:
		return errorColor
	case types.SeverityMedium:
		return warnColor
	default:
		return infoColor
	}
}

func printReport(w io.Writer, r quality.Report) {
	fmt.Fprintf(w, "Quality score: %s\n", gradeColor(r.Grade).Sprintf("%d (%s)", r.Score, r.Grade))
	for _, f := range r.Files {
		if len(f.Issues) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s %d\n", f.Path, f.Score)
		for _, is := range f.Issues {
			fmt.Fprintf(w, "    %s %s\n", severityColor(is.Severity).Sprintf("%-8s", is.Severity), is.Message)
		}
	}
}

func printFixes(w io.Writer, fixes []repair.Fix) {
	if len(fixes) == 0 {
		fmt.Fprintln(w, "No repairs needed.")
		return
	}
	fmt.Fprintf(w, "Applied %d repair(s):\n", len(fixes))
	for _, f := range fixes {
		fmt.Fprintf(w, "  %s %s: %s\n", stageColor.Sprintf("%-22s", f.Pass), f.File, f.Description)
	}
}

var skippedDirs = map[string]bool{"node_modules": true, ".git": true, "dist": true, "build": true}

// readProject loads every file under dir as a flat record list.
func readProject(dir string) ([]types.FileRecord, error) {
	var files []types.FileRecord
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == sandbox.ReportFile || strings.HasPrefix(d.Name(), ".DS_Store") {
			return nil
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, types.FileRecord{Path: filepath.ToSlash(rel), Content: string(raw)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", dir, err)
	}
	return files, nil
}
