package appctx

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docker/agent-skills/pkg/serviceconfig"
)

func TestNewWiresLocalSourceAndIngests(t *testing.T) {
	skillDir := filepath.Join(t.TempDir(), "example-skill")
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(skillDir, "SKILL.md"),
		[]byte("---\nname: Example\ndescription: An example skill\n---\nbody\n"),
		0o644,
	))

	cfg := &serviceconfig.Config{
		SkillSources: []serviceconfig.SourceConfig{
			{Type: "local", Path: filepath.Dir(skillDir)},
		},
		EmbeddingModel:       "stub",
		DefaultTopK:          3,
		LoadSkillDocuments:   true,
		TextFileExtensions:   []string{".md"},
		SourceTimeoutSeconds: 5,
		CacheDir:             t.TempDir(),
	}

	app, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	app.Start(ctx)
	defer app.Stop()

	// The embedding model isn't present in this environment, so ingestion may
	// fail at the embed step; what this test guarantees is that wiring a
	// local source all the way through to a running coordinator completes
	// (rather than hanging) and reports itself done either way.
	require.Eventually(t, func() bool {
		return app.State.Snapshot().IsComplete
	}, 3*time.Second, 10*time.Millisecond)
}
