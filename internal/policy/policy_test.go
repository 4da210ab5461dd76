package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := Default()
	assert.Equal(t, ".jsx", p.Ext())
	react, ok := p.Library("react")
	require.True(t, ok)
	assert.True(t, react.Required)
	assert.NotContains(t, p.LibraryNames(), "vite")
	assert.Contains(t, p.ForbiddenPatterns, "data:image/")
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	body := `
language = "tsx"
forbidden_patterns = ["data:image/", "TODO"]

[theme]
primary = "#000000"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ".tsx", p.Ext())
	assert.Equal(t, []string{"data:image/", "TODO"}, p.ForbiddenPatterns)
	assert.Equal(t, "#000000", p.Theme.Primary)
	assert.Equal(t, Default().Theme.Accent, p.Theme.Accent)
	assert.Equal(t, Default().Libraries, p.Libraries)
}

func TestLoadFileRejectsUnknownLanguage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(`language = "vue"`), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
