package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen_server/config"
	"sitegen_server/internal/ai"
	"sitegen_server/internal/policy"
)

func TestNewUsesProxyWhenEndpointSet(t *testing.T) {
	a, err := New(config.Config{CompletionEndpoint: "http://localhost:9000/complete", ProjectCacheSize: 2})
	require.NoError(t, err)
	assert.IsType(t, &ai.ProxyClient{}, a.Completer)
	assert.Equal(t, policy.Default(), a.Policy)
}

func TestNewDefaultsToOpenAI(t *testing.T) {
	a, err := New(config.Config{OpenAIKey: "sk-test", ProjectCacheSize: 2})
	require.NoError(t, err)
	assert.IsType(t, &ai.Generator{}, a.Completer)
}

func TestNewRejectsBadCacheSize(t *testing.T) {
	_, err := New(config.Config{})
	assert.Error(t, err)
}

func TestLoadPolicyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(p, []byte("language = \"tsx\"\n"), 0o644))

	pol, err := LoadPolicy(config.Config{PolicyFile: p})
	require.NoError(t, err)
	assert.Equal(t, ".tsx", pol.Ext())
}
