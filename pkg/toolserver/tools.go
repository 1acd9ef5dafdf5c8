package toolserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/skill"
)

const (
	defaultTopK = 3
	minTopK     = 1
	maxTopK     = 20
)

// FindHelpfulSkillsArgs is the find_helpful_skills tool's input.
type FindHelpfulSkillsArgs struct {
	TaskDescription   string   `json:"task_description" jsonschema:"Natural-language description of the task to find helpful skills for"`
	TopK              int      `json:"top_k,omitempty" jsonschema:"Maximum number of skills to return, clamped to [1, 20]; default 3"`
	ListDocuments     bool     `json:"list_documents,omitempty" jsonschema:"When true, include each skill's document path list"`
	TenantID          string   `json:"tenant_id,omitempty" jsonschema:"Tenant id the caller is acting as"`
	AllowedSkillNames []string `json:"allowed_skill_names,omitempty" jsonschema:"Tenant-scoped skill names the caller is authorized to see"`
}

// SkillMatch is one ranked skill in a find_helpful_skills response.
type SkillMatch struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RelevanceScore float32  `json:"relevance_score"`
	Documents      []string `json:"documents,omitempty"`
}

// FindHelpfulSkillsOutput is the find_helpful_skills tool's output.
type FindHelpfulSkillsOutput struct {
	Text   string       `json:"text"`
	Skills []SkillMatch `json:"skills"`
}

func clampTopK(topK int) int {
	if topK <= 0 {
		return defaultTopK
	}
	if topK < minTopK {
		return minTopK
	}
	if topK > maxTopK {
		return maxTopK
	}
	return topK
}

func (s *Server) handleFindHelpfulSkills(ctx context.Context, _ *mcp.CallToolRequest, args FindHelpfulSkillsArgs) (*mcp.CallToolResult, FindHelpfulSkillsOutput, error) {
	results, err := s.index.Search(ctx, args.TaskDescription, clampTopK(args.TopK), args.TenantID, args.AllowedSkillNames)
	if err != nil {
		return nil, FindHelpfulSkillsOutput{}, err
	}

	matches := make([]SkillMatch, len(results))
	var text strings.Builder
	for i, r := range results {
		match := SkillMatch{
			Name:           r.Skill.Name,
			Description:    r.Skill.Description,
			RelevanceScore: r.RelevanceScore,
		}
		if args.ListDocuments {
			match.Documents = r.Skill.DocumentPaths()
		}
		matches[i] = match

		fmt.Fprintf(&text, "%s (score %.3f): %s\n", r.Skill.Name, r.RelevanceScore, r.Skill.Description)
	}

	return nil, FindHelpfulSkillsOutput{Text: text.String(), Skills: matches}, nil
}

// ReadSkillDocumentArgs is the read_skill_document tool's input.
type ReadSkillDocumentArgs struct {
	SkillName    string `json:"skill_name" jsonschema:"The name of the skill to read a document from"`
	DocumentPath string `json:"document_path,omitempty" jsonschema:"A literal relative document path or a glob pattern; defaults to the skill's primary document"`
}

// ReadSkillDocumentOutput is the read_skill_document tool's output.
type ReadSkillDocumentOutput struct {
	Content        string   `json:"content"`
	MatchedPaths   []string `json:"matched_paths"`
	BinaryOnlyPath []string `json:"binary_only_paths,omitempty"`
}

func (s *Server) handleReadSkillDocument(_ context.Context, _ *mcp.CallToolRequest, args ReadSkillDocumentArgs) (*mcp.CallToolResult, ReadSkillDocumentOutput, error) {
	sk, ok := s.index.Get(args.SkillName)
	if !ok {
		return nil, ReadSkillDocumentOutput{}, fmt.Errorf("%w: %q", errs.ErrSkillNotFound, args.SkillName)
	}

	path := args.DocumentPath
	if path == "" {
		path = sk.PrimaryDocument.Path
	}

	if doc, ok := sk.DocumentByPath(path); ok {
		out, err := renderDocuments([]skill.Document{doc})
		return nil, out, err
	}

	matched, err := matchDocuments(sk, path)
	if err != nil {
		return nil, ReadSkillDocumentOutput{}, fmt.Errorf("%w: %w", errs.ErrDocNotFound, err)
	}
	if len(matched) == 0 {
		return nil, ReadSkillDocumentOutput{}, fmt.Errorf("%w: no document in %q matches %q", errs.ErrDocNotFound, args.SkillName, path)
	}
	out, err := renderDocuments(matched)
	return nil, out, err
}

func matchDocuments(sk skill.Skill, pattern string) ([]skill.Document, error) {
	var matched []skill.Document
	for _, doc := range sk.Documents {
		ok, err := doublestar.Match(pattern, doc.Path)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if ok {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

func renderDocuments(docs []skill.Document) (ReadSkillDocumentOutput, error) {
	out := ReadSkillDocumentOutput{}
	var text strings.Builder

	for _, doc := range docs {
		out.MatchedPaths = append(out.MatchedPaths, doc.Path)
		if doc.Kind != skill.DocumentText {
			out.BinaryOnlyPath = append(out.BinaryOnlyPath, doc.Path)
			continue
		}
		if len(docs) > 1 {
			fmt.Fprintf(&text, "--- %s ---\n", doc.Path)
		}
		text.WriteString(doc.Content)
		text.WriteString("\n")
	}

	out.Content = text.String()
	return out, nil
}

// ListSkillsArgs is the list_skills tool's (empty) input.
type ListSkillsArgs struct{}

// SkillSummary is one skill entry in a list_skills response.
type SkillSummary struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Source        string `json:"source"`
	Scope         string `json:"scope"`
	DocumentCount int    `json:"document_count"`
}

// ListSkillsOutput is the list_skills tool's output.
type ListSkillsOutput struct {
	Skills            []SkillSummary `json:"skills"`
	LoadingInProgress bool           `json:"loading_in_progress"`
}

func (s *Server) handleListSkills(_ context.Context, _ *mcp.CallToolRequest, _ ListSkillsArgs) (*mcp.CallToolResult, ListSkillsOutput, error) {
	entries := s.index.List()
	summaries := make([]SkillSummary, len(entries))
	for i, e := range entries {
		summaries[i] = SkillSummary{
			Name:          e.Name,
			Description:   e.Description,
			Source:        e.Source,
			Scope:         string(e.Scope),
			DocumentCount: e.DocumentCount,
		}
	}

	return nil, ListSkillsOutput{
		Skills:            summaries,
		LoadingInProgress: !s.state.Snapshot().IsComplete,
	}, nil
}
