package root

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigSucceedsForValidFile(t *testing.T) {
	sourceDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"skill_sources":[{"type":"local","path":"`+sourceDir+`"}]}`), 0o644))

	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), nil, &stdout, &stderr, "validate-config", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "skill_sources")
}

func TestValidateConfigFailsForMissingSourcePath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"skill_sources":[{"type":"local","path":"/does/not/exist"}]}`), 0o644))

	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), nil, &stdout, &stderr, "validate-config", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "config-invalid")
}

func TestRootHelpListsSubcommands(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), nil, &stdout, &stderr, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "serve")
	assert.Contains(t, stdout.String(), "validate-config")
}
