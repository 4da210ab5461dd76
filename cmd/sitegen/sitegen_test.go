package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen_server/internal/pipeline"
	"sitegen_server/internal/quality"
	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

const homePage = `export default function Home() {
  return (
    <main>
      <h1>Welcome</h1>
    </main>
  );
}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--color", "off"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadProjectSkipsDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/pages/Home.jsx", homePage)
	writeFile(t, dir, "node_modules/react/index.js", "module.exports = {}")

	files, err := readProject(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/pages/Home.jsx", files[0].Path)
}

func TestRepairCommandCompletesScaffold(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/pages/Home.jsx", homePage)

	out, err := execute(t, "repair", dir, "--request", `a bakery called "Crumb"`)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied")
	for _, p := range []string{"package.json", "index.html", "src/main.jsx", "src/App.jsx"} {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p)))
		assert.NoError(t, err, p)
	}

	out, err = execute(t, "score", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Quality score")
}

func TestScoreCommandFailsOnCriticalIssues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/pages/Home.jsx", homePage)

	_, err := execute(t, "score", dir)
	assert.ErrorContains(t, err, "critical issue")
}

func blockedProject(t *testing.T) (*pipeline.Project, error) {
	t.Helper()
	tr, err := tree.FromRecords([]types.FileRecord{{Path: "src/pages/Home.jsx", Content: homePage}})
	require.NoError(t, err)
	report := quality.Score(tr)
	require.NotEmpty(t, report.Blocking())
	return &pipeline.Project{ID: uuid.New(), Tree: tr, Report: report}, &pipeline.BlockedError{Issues: report.Blocking()}
}

func TestWriteProjectSkipsBlockedProject(t *testing.T) {
	project, genErr := blockedProject(t)
	outDir := filepath.Join(t.TempDir(), "site")

	var out bytes.Buffer
	err := writeProject(&out, project, genErr, outDir, false)
	assert.ErrorIs(t, err, pipeline.ErrBlocked)
	assert.Contains(t, out.String(), "Quality score")
	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "blocked project must not be written")
}

func TestWriteProjectForcedWritesBlockedProject(t *testing.T) {
	project, genErr := blockedProject(t)
	outDir := filepath.Join(t.TempDir(), "site")

	var out bytes.Buffer
	err := writeProject(&out, project, genErr, outDir, true)
	assert.ErrorIs(t, err, pipeline.ErrBlocked)
	_, statErr := os.Stat(filepath.Join(outDir, "src", "pages", "Home.jsx"))
	assert.NoError(t, statErr)
}

func TestApplyColorModeRejectsUnknown(t *testing.T) {
	assert.Error(t, applyColorMode("sometimes"))
	assert.NoError(t, applyColorMode("off"))
}
