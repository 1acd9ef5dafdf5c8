// Package toolserver exposes the skill index over the Model Context
// Protocol: three tools (find_helpful_skills, read_skill_document,
// list_skills) served over both stdio and a streamable HTTP transport.
package toolserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docker/agent-skills/pkg/index"
	"github.com/docker/agent-skills/pkg/loadingstate"
)

const (
	ToolNameFindHelpfulSkills = "find_helpful_skills"
	ToolNameReadSkillDocument = "read_skill_document"
	ToolNameListSkills        = "list_skills"
)

// Server wraps the index and loading state in an MCP server exposing the
// three skill-retrieval tools.
type Server struct {
	index *index.Index
	state *loadingstate.State
	mcp   *mcp.Server
}

// New builds a Server and registers its tools. The returned value is ready
// to run over either transport via Run or ServeHTTP.
func New(idx *index.Index, state *loadingstate.State) *Server {
	s := &Server{
		index: idx,
		state: state,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "agent-skills",
			Version: "0.1.0",
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolNameFindHelpfulSkills,
		Description: "Search the skill index for skills helpful to a described task, ranked by relevance.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		InputSchema: MustSchemaFor[FindHelpfulSkillsArgs](),
	}, s.handleFindHelpfulSkills)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolNameReadSkillDocument,
		Description: "Read a skill's primary manifest or a supporting document by literal path or glob pattern.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		InputSchema: MustSchemaFor[ReadSkillDocumentArgs](),
	}, s.handleReadSkillDocument)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolNameListSkills,
		Description: "List every indexed skill with name, description, source, scope, and document count.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		InputSchema: MustSchemaFor[ListSkillsArgs](),
	}, s.handleListSkills)
}

// Run serves the three tools over a newline-delimited JSON-RPC stdio
// transport until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	slog.Debug("tool server starting on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("tool server error: %w", err)
	}
	return nil
}

// MCPHandler returns the streamable-HTTP MCP transport handler, meant to be
// mounted at "/mcp" alongside the upload/health endpoints on a shared mux.
func (s *Server) MCPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

// ServeHTTP starts a streamable-HTTP MCP transport on ln, serving at "/mcp"
// on its own mux. It blocks until ctx is canceled or the listener errors.
func (s *Server) ServeHTTP(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.MCPHandler())

	httpServer := &http.Server{Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()

	select {
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
