package toolserver

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/docker/agent-skills/pkg/coordinator"
	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/loadingstate"
	"github.com/docker/agent-skills/pkg/skill"
)

// HTTPServer exposes the upload and health endpoints alongside the MCP
// streamable-HTTP transport, in the same echo-based style the rest of the
// ambient HTTP surface uses.
type HTTPServer struct {
	e           *echo.Echo
	coordinator *coordinator.Coordinator
	state       *loadingstate.State
	stagingRoot string
}

// NewHTTPServer builds an HTTPServer with routes registered. stagingRoot is
// the parent directory upload archives are unpacked under before loading.
func NewHTTPServer(coord *coordinator.Coordinator, state *loadingstate.State, stagingRoot string) *HTTPServer {
	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())

	h := &HTTPServer{e: e, coordinator: coord, state: state, stagingRoot: stagingRoot}
	e.POST("/skills/upload", h.uploadSkills)
	e.GET("/health", h.health)
	return h
}

// Handler exposes the underlying echo instance so it can be composed with
// other muxes (e.g. the MCP streamable-HTTP handler on the same listener).
func (h *HTTPServer) Handler() http.Handler {
	return h.e
}

// Serve blocks, serving HTTP requests on ln until it is closed.
func (h *HTTPServer) Serve(ln net.Listener) error {
	srv := http.Server{Handler: h.e}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start http server", "error", err)
		return err
	}
	return nil
}

type uploadResponse struct {
	Status      string   `json:"status"`
	SkillsAdded []string `json:"skills_added,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

func (h *HTTPServer) uploadSkills(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{Status: "error", Errors: []string{"missing file field"}})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{Status: "error", Errors: []string{"opening upload: " + err.Error()}})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{Status: "error", Errors: []string{"reading upload: " + err.Error()}})
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{Status: "error", Errors: []string{"invalid zip archive: " + err.Error()}})
	}

	scope := skill.Scope(c.FormValue("scope"))
	if scope == "" {
		scope = skill.ScopeGlobal
	}
	tenantID := c.FormValue("tenant_id")

	added, err := h.coordinator.UploadArchive(c.Request().Context(), zr, h.stagingRoot, scope, tenantID)
	if err != nil {
		slog.Error("skill upload failed", "error", err)
		if errors.Is(err, errs.ErrUploadRejected) {
			return c.JSON(http.StatusBadRequest, uploadResponse{Status: "error", Errors: []string{err.Error()}})
		}
		return c.JSON(http.StatusInternalServerError, uploadResponse{Status: "error", Errors: []string{err.Error()}})
	}

	return c.JSON(http.StatusOK, uploadResponse{Status: "ok", SkillsAdded: added})
}

type healthResponse struct {
	Status       string                `json:"status"`
	LoadingState loadingstate.Snapshot `json:"loading_state"`
}

func (h *HTTPServer) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", LoadingState: h.state.Snapshot()})
}
