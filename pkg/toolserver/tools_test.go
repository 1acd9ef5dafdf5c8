package toolserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docker/agent-skills/pkg/index"
	"github.com/docker/agent-skills/pkg/loadingstate"
	"github.com/docker/agent-skills/pkg/skill"
)

type zeroEmbedder struct{ dim int }

func (z zeroEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, z.dim)
	}
	return out, nil
}

func newTestServer(t *testing.T, skills []skill.Skill) *Server {
	t.Helper()
	idx := index.New(zeroEmbedder{dim: 2})
	require.NoError(t, idx.IndexSkills(context.Background(), skills))
	state := loadingstate.New()
	state.SetTotal(0)
	return New(idx, state)
}

func docSkill(name, description, source string, docs []skill.Document) skill.Skill {
	return skill.Skill{
		Name:            name,
		Description:     description,
		Source:          source,
		Scope:           skill.ScopeGlobal,
		PrimaryDocument: docs[0],
		Documents:       docs,
	}
}

func TestHandleFindHelpfulSkillsClampsTopK(t *testing.T) {
	s := newTestServer(t, []skill.Skill{
		docSkill("a", "alpha", "src", []skill.Document{{Path: "SKILL.md", Kind: skill.DocumentText, Content: "x"}}),
	})

	_, out, err := s.handleFindHelpfulSkills(context.Background(), nil, FindHelpfulSkillsArgs{TaskDescription: "x", TopK: 9999})
	require.NoError(t, err)
	assert.Len(t, out.Skills, 1)
	assert.Equal(t, maxTopK, clampTopK(9999))
}

func TestHandleFindHelpfulSkillsIncludesDocumentsWhenRequested(t *testing.T) {
	s := newTestServer(t, []skill.Skill{
		docSkill("a", "alpha", "src", []skill.Document{
			{Path: "SKILL.md", Kind: skill.DocumentText, Content: "x"},
			{Path: "scripts/a.py", Kind: skill.DocumentText, Content: "print(1)"},
		}),
	})

	_, out, err := s.handleFindHelpfulSkills(context.Background(), nil, FindHelpfulSkillsArgs{TaskDescription: "x", ListDocuments: true})
	require.NoError(t, err)
	require.Len(t, out.Skills, 1)
	assert.ElementsMatch(t, []string{"SKILL.md", "scripts/a.py"}, out.Skills[0].Documents)
}

func TestHandleReadSkillDocumentDefaultsToPrimary(t *testing.T) {
	s := newTestServer(t, []skill.Skill{
		docSkill("a", "alpha", "src", []skill.Document{{Path: "SKILL.md", Kind: skill.DocumentText, Content: "body"}}),
	})

	_, out, err := s.handleReadSkillDocument(context.Background(), nil, ReadSkillDocumentArgs{SkillName: "a"})
	require.NoError(t, err)
	assert.Contains(t, out.Content, "body")
	assert.Equal(t, []string{"SKILL.md"}, out.MatchedPaths)
}

func TestHandleReadSkillDocumentUnknownSkill(t *testing.T) {
	s := newTestServer(t, nil)
	_, _, err := s.handleReadSkillDocument(context.Background(), nil, ReadSkillDocumentArgs{SkillName: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill-not-found")
}

func TestHandleReadSkillDocumentGlobConcatenatesTextMatches(t *testing.T) {
	s := newTestServer(t, []skill.Skill{
		docSkill("Doc", "doc skill", "src", []skill.Document{
			{Path: "SKILL.md", Kind: skill.DocumentText, Content: "manifest"},
			{Path: "scripts/a.py", Kind: skill.DocumentText, Content: "a-body"},
			{Path: "scripts/b.py", Kind: skill.DocumentText, Content: "b-body"},
		}),
	})

	_, out, err := s.handleReadSkillDocument(context.Background(), nil, ReadSkillDocumentArgs{SkillName: "Doc", DocumentPath: "scripts/*.py"})
	require.NoError(t, err)
	assert.Contains(t, out.Content, "a-body")
	assert.Contains(t, out.Content, "b-body")
	assert.ElementsMatch(t, []string{"scripts/a.py", "scripts/b.py"}, out.MatchedPaths)
}

func TestHandleReadSkillDocumentGlobListsBinaryWithoutInlining(t *testing.T) {
	s := newTestServer(t, []skill.Skill{
		docSkill("Doc", "doc skill", "src", []skill.Document{
			{Path: "SKILL.md", Kind: skill.DocumentText, Content: "manifest"},
			{Path: "assets/logo.png", Kind: skill.DocumentImage, Locator: "/tmp/logo.png"},
		}),
	})

	_, out, err := s.handleReadSkillDocument(context.Background(), nil, ReadSkillDocumentArgs{SkillName: "Doc", DocumentPath: "assets/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/logo.png"}, out.BinaryOnlyPath)
	assert.NotContains(t, out.Content, "logo")
}

func TestHandleReadSkillDocumentNoGlobMatchFails(t *testing.T) {
	s := newTestServer(t, []skill.Skill{
		docSkill("a", "alpha", "src", []skill.Document{{Path: "SKILL.md", Kind: skill.DocumentText, Content: "x"}}),
	})

	_, _, err := s.handleReadSkillDocument(context.Background(), nil, ReadSkillDocumentArgs{SkillName: "a", DocumentPath: "nope/*.md"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doc-not-found")
}

func TestHandleListSkillsReportsLoadingInProgress(t *testing.T) {
	idx := index.New(zeroEmbedder{dim: 2})
	state := loadingstate.New()
	state.SetTotal(1)
	s := New(idx, state)

	_, out, err := s.handleListSkills(context.Background(), nil, ListSkillsArgs{})
	require.NoError(t, err)
	assert.True(t, out.LoadingInProgress)

	state.RecordSourceDone("src", 0, nil)
	_, out, err = s.handleListSkills(context.Background(), nil, ListSkillsArgs{})
	require.NoError(t, err)
	assert.False(t, out.LoadingInProgress)
}
