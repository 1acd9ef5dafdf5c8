package serviceconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docker/agent-skills/pkg/errs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"skill_sources":[{"type":"local","path":"`+t.TempDir()+`"}]}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.DefaultTopK)
	assert.Equal(t, ":8080", cfg.ListenAddress)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LoadSkillDocuments)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"skill_sources": [{"type": "local", "path": "`+t.TempDir()+`"}],
		"default_top_k": 5,
		"listen_address": ":9090",
		"log_format": "json"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.DefaultTopK)
	assert.Equal(t, ":9090", cfg.ListenAddress)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsEmptySources(t *testing.T) {
	path := writeConfig(t, `{"skill_sources": []}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigInvalid)
}

func TestLoadRejectsMissingLocalPath(t *testing.T) {
	path := writeConfig(t, `{"skill_sources": [{"type": "local", "path": "/does/not/exist"}]}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigInvalid)
}

func TestLoadRejectsGitSourceWithoutURL(t *testing.T) {
	path := writeConfig(t, `{"skill_sources": [{"type": "git"}]}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigInvalid)
}

func TestLoadRejectsTenantScopeWithoutTenantID(t *testing.T) {
	path := writeConfig(t, `{"skill_sources": [{"type": "local", "path": "`+t.TempDir()+`", "scope": "tenant"}]}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigInvalid)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigInvalid)
}
