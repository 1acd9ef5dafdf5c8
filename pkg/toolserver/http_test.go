package toolserver

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docker/agent-skills/pkg/coordinator"
	"github.com/docker/agent-skills/pkg/index"
	"github.com/docker/agent-skills/pkg/loader"
	"github.com/docker/agent-skills/pkg/loadingstate"
)

func buildUploadBody(t *testing.T, zipBytes []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "skill.zip")
	require.NoError(t, err)
	_, err = part.Write(zipBytes)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func buildSkillZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("example-skill/SKILL.md")
	require.NoError(t, err)
	_, err = w.Write([]byte("---\nname: Example Skill\ndescription: Example description\n---\n# Body\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestHTTPServer(t *testing.T) *HTTPServer {
	t.Helper()
	idx := index.New(zeroEmbedder{dim: 2})
	state := loadingstate.New()
	c := coordinator.New(idx, state, coordinator.Config{
		LoaderConfig:  loader.Config{TextExtensions: []string{".md"}, LoadDocuments: true},
		SourceTimeout: 5 * time.Second,
	})
	c.Start(context.Background())
	t.Cleanup(c.Stop)
	return NewHTTPServer(c, state, t.TempDir())
}

func TestUploadSkillsEndpointSuccess(t *testing.T) {
	h := newTestHTTPServer(t)

	body, contentType := buildUploadBody(t, buildSkillZip(t))
	req := httptest.NewRequest(http.MethodPost, "/skills/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, resp.SkillsAdded, "Example Skill")
}

func TestUploadSkillsEndpointRejectsMissingFile(t *testing.T) {
	h := newTestHTTPServer(t)

	req := httptest.NewRequest(http.MethodPost, "/skills/upload", nil)
	rec := httptest.NewRecorder()

	h.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpointReportsStatusOk(t *testing.T) {
	h := newTestHTTPServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.LoadingState.IsComplete)
}
