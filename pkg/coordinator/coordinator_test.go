package coordinator

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docker/agent-skills/pkg/index"
	"github.com/docker/agent-skills/pkg/loader"
	"github.com/docker/agent-skills/pkg/loadingstate"
	"github.com/docker/agent-skills/pkg/skill"
	"github.com/docker/agent-skills/pkg/source"
)

type zeroEmbedder struct{ dim int }

func (z zeroEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, z.dim)
	}
	return out, nil
}

// fakeAdapter materializes a fixed directory and can be told whether the
// upstream has "advanced" between HasAdvanced calls.
type fakeAdapter struct {
	id       string
	dir      string
	scope    skill.Scope
	tenantID string
	advanced bool
}

func (f *fakeAdapter) Identifier() string { return f.id }
func (f *fakeAdapter) Materialize(context.Context) (string, error) {
	return f.dir, nil
}
func (f *fakeAdapter) Scope() skill.Scope { return f.scope }
func (f *fakeAdapter) TenantID() string   { return f.tenantID }
func (f *fakeAdapter) HasAdvanced(context.Context) (bool, error) {
	return f.advanced, nil
}

func writeSkillBundle(t *testing.T, root, name, description string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\nname: " + name + "\ndescription: " + description + "\n---\n# Body\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, loader.ManifestName), []byte(content), 0o644))
}

func testLoaderConfig() loader.Config {
	return loader.Config{TextExtensions: []string{".md"}, LoadDocuments: true}
}

func TestStartIngestsAllSourcesAndMarksComplete(t *testing.T) {
	dirA := t.TempDir()
	writeSkillBundle(t, dirA, "skill-a", "does a thing")
	dirB := t.TempDir()
	writeSkillBundle(t, dirB, "skill-b", "does another thing")

	idx := index.New(zeroEmbedder{dim: 2})
	state := loadingstate.New()

	c := New(idx, state, Config{
		Sources: []SourceSpec{
			{Config: source.Config{}, Adapter: &fakeAdapter{id: "src-a", dir: dirA, scope: skill.ScopeGlobal}},
			{Config: source.Config{}, Adapter: &fakeAdapter{id: "src-b", dir: dirB, scope: skill.ScopeGlobal}},
		},
		LoaderConfig:  testLoaderConfig(),
		SourceTimeout: 5 * time.Second,
	})

	c.Start(context.Background())
	waitForComplete(t, state)
	c.Stop()

	snap := state.Snapshot()
	assert.True(t, snap.IsComplete)
	assert.Equal(t, 2, snap.SourcesDone)
	assert.Equal(t, 2, snap.SkillsLoaded)
	assert.Equal(t, 2, idx.Len())
}

func TestRefreshReplacesSkillsForAdvancedSource(t *testing.T) {
	dir := t.TempDir()
	writeSkillBundle(t, dir, "skill-v1", "version one")

	idx := index.New(zeroEmbedder{dim: 2})
	state := loadingstate.New()
	adapter := &fakeAdapter{id: "src", dir: dir, scope: skill.ScopeGlobal, advanced: true}

	c := New(idx, state, Config{
		Sources:       []SourceSpec{{Config: source.Config{}, Adapter: adapter}},
		LoaderConfig:  testLoaderConfig(),
		SourceTimeout: 5 * time.Second,
	})

	c.Start(context.Background())
	waitForComplete(t, state)

	// Upstream now has a different skill under the same source identifier.
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "skill-v1")))
	writeSkillBundle(t, dir, "skill-v2", "version two")

	c.refreshOnce(context.Background())
	c.Stop()

	assert.Equal(t, 1, idx.Len())
	_, hasOld := idx.Get("skill-v1")
	assert.False(t, hasOld)
	_, hasNew := idx.Get("skill-v2")
	assert.True(t, hasNew)
}

func TestUploadArchiveAddsSkillsToIndex(t *testing.T) {
	idx := index.New(zeroEmbedder{dim: 2})
	state := loadingstate.New()
	c := New(idx, state, Config{LoaderConfig: testLoaderConfig(), SourceTimeout: 5 * time.Second})
	c.Start(context.Background())
	waitForComplete(t, state)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("example-skill/SKILL.md")
	require.NoError(t, err)
	_, err = w.Write([]byte("---\nname: Example Skill\ndescription: Example description\n---\n# Body\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	added, err := c.UploadArchive(context.Background(), zr, t.TempDir(), skill.ScopeGlobal, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Example Skill"}, added)
	assert.Equal(t, 1, idx.Len())

	c.Stop()
}

func TestUploadArchiveRejectsZipSlip(t *testing.T) {
	idx := index.New(zeroEmbedder{dim: 2})
	state := loadingstate.New()
	c := New(idx, state, Config{LoaderConfig: testLoaderConfig()})

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../../etc/passwd")
	require.NoError(t, err)
	_, err = w.Write([]byte("evil"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	_, err = c.UploadArchive(context.Background(), zr, t.TempDir(), skill.ScopeGlobal, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload-rejected")
}

func waitForComplete(t *testing.T, state *loadingstate.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state.Snapshot().IsComplete {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("loading state never completed")
}
