// Package sandbox hands finished projects to the execution runtime: the tree
// is materialised on disk and an optional external command is pointed at it.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"sitegen_server/internal/quality"
	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
	"sitegen_server/internal/utils"
)

// ReportFile is written next to the project files.
const ReportFile = "quality-report.json"

// Runtime writes projects under a workspace directory and optionally invokes
// a command (for example an install-and-preview script) on each one.
type Runtime struct {
	workspaceDir string
	command      []string
}

// Handoff describes a materialised project.
type Handoff struct {
	Dir        string `json:"dir"`
	Files      int    `json:"files"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Output     string `json:"output,omitempty"`
}

// NewRuntime returns a Runtime. command is split on whitespace; the project
// directory is appended as its last argument. An empty command only writes files.
func NewRuntime(workspaceDir, command string) *Runtime {
	return &Runtime{
		workspaceDir: workspaceDir,
		command:      strings.Fields(command),
	}
}

// Handoff writes t and report under <workspace>/<id> and runs the command.
func (r *Runtime) Handoff(ctx context.Context, id string, t *tree.Tree, report quality.Report) (*Handoff, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid project id %q: %w", id, err)
	}
	dir := filepath.Join(r.workspaceDir, id)
	// Re-handing a project replaces the previous copy.
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear project dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project dir: %w", err)
	}
	log.Printf("Created project directory for hand-off: %s", dir)

	written, err := WriteFiles(dir, t)
	if err != nil {
		return nil, err
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode quality report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ReportFile), reportJSON, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write quality report: %w", err)
	}

	h := &Handoff{Dir: dir, Files: written}
	if len(r.command) == 0 {
		return h, nil
	}

	args := append(append([]string{}, r.command[1:]...), dir)
	cmd := exec.CommandContext(ctx, r.command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("Running runtime command: %s", cmd.String())
	if err := cmd.Run(); err != nil {
		log.Printf("runtime command stderr: %s", stderr.String())
		return nil, fmt.Errorf("runtime command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	h.Output = stdout.String()
	h.PreviewURL = extractPreviewURL(h.Output)
	if h.PreviewURL == "" {
		log.Printf("WARN: runtime command printed no preview URL for project %s", id)
	}
	return h, nil
}

// WriteFiles writes every file of t under dir and returns how many were written.
func WriteFiles(dir string, t *tree.Tree) (int, error) {
	files := t.Files()
	written := 0
	for _, f := range files {
		rel := filepath.FromSlash(f.Path)
		if !filepath.IsLocal(rel) {
			return written, fmt.Errorf("refusing to write %q outside the project dir", f.Path)
		}
		filePath := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return written, fmt.Errorf("failed to create subdirectories for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(filePath, []byte(f.Content), 0o644); err != nil {
			return written, fmt.Errorf("failed to write file %s: %w", f.Path, err)
		}
		written++
	}
	log.Printf("Wrote %d files (%s) to %s", written, summarizeTypes(files), dir)
	return written, nil
}

func summarizeTypes(files []types.FileRecord) string {
	counts := map[string]int{}
	var order []string
	for _, f := range files {
		kind := utils.DetermineFileType(f.Path)
		if counts[kind] == 0 {
			order = append(order, kind)
		}
		counts[kind]++
	}
	parts := make([]string, 0, len(order))
	for _, k := range order {
		parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
	}
	return strings.Join(parts, ", ")
}

// extractPreviewURL finds the URL the runtime printed. Dev servers usually
// print "Local: http://..."; otherwise the last URL wins.
func extractPreviewURL(output string) string {
	var last string
	for _, line := range strings.Split(output, "\n") {
		for _, field := range strings.Fields(line) {
			if !strings.HasPrefix(field, "http://") && !strings.HasPrefix(field, "https://") {
				continue
			}
			if strings.Contains(line, "Local:") {
				return field
			}
			last = field
		}
	}
	return last
}

// ErrNoRuntime is returned when hand-off is requested but no runtime is configured.
var ErrNoRuntime = errors.New("no hand-off runtime configured")
