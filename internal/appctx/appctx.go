// Package appctx wires the service's components — index, loading state,
// coordinator, and resolved configuration — into a single record threaded
// through the tool and HTTP handlers, instead of package-level globals.
// Mirrors the small wiring-struct shape of the reference codebase's own
// App type, generalized from a TUI session to a headless service process.
package appctx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/agent-skills/pkg/coordinator"
	"github.com/docker/agent-skills/pkg/embedding"
	"github.com/docker/agent-skills/pkg/index"
	"github.com/docker/agent-skills/pkg/loader"
	"github.com/docker/agent-skills/pkg/loadingstate"
	"github.com/docker/agent-skills/pkg/paths"
	"github.com/docker/agent-skills/pkg/serviceconfig"
	"github.com/docker/agent-skills/pkg/source"
)

// App bundles every long-lived component the tool server and HTTP server
// need, built once at startup from a resolved Config.
type App struct {
	Config      *serviceconfig.Config
	Index       *index.Index
	State       *loadingstate.State
	Coordinator *coordinator.Coordinator
	StagingRoot string
}

// New builds every long-lived component from cfg, without starting
// background ingestion — call App.Coordinator.Start separately so callers
// can control when ingestion begins relative to the listeners coming up.
func New(cfg *serviceconfig.Config) (*App, error) {
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = paths.GetCacheDir()
	}

	specs := make([]coordinator.SourceSpec, 0, len(cfg.SkillSources))
	for _, sc := range cfg.SkillSources {
		srcCfg := source.Config{
			Type:     source.Kind(sc.Type),
			URL:      sc.URL,
			Ref:      sc.Ref,
			Path:     sc.Path,
			Scope:    sc.Scope,
			TenantID: sc.TenantID,
		}
		adapter, err := source.New(srcCfg, source.Options{CacheDir: cacheDir})
		if err != nil {
			return nil, err
		}
		specs = append(specs, coordinator.SourceSpec{Config: srcCfg, Adapter: adapter})
	}

	embedder := embedding.NewProvider(embedding.Config{
		ModelName: cfg.EmbeddingModel,
		DataDir:   paths.GetDataDir(),
	})

	idx := index.New(embedder)
	state := loadingstate.New()

	stagingRoot := filepath.Join(paths.GetDataDir(), "uploads")
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload staging directory: %w", err)
	}

	var refreshInterval time.Duration
	if cfg.AutoUpdateEnabled {
		refreshInterval = time.Duration(cfg.UpdateIntervalSeconds) * time.Second
	}

	coord := coordinator.New(idx, state, coordinator.Config{
		Sources: specs,
		LoaderConfig: loader.Config{
			TextExtensions:  cfg.TextFileExtensions,
			ImageExtensions: cfg.AllowedImageExtensions,
			MaxImageSize:    cfg.MaxImageSizeBytes,
			LoadDocuments:   cfg.LoadSkillDocuments,
		},
		SourceTimeout:   time.Duration(cfg.SourceTimeoutSeconds) * time.Second,
		RefreshInterval: refreshInterval,
	})

	return &App{
		Config:      cfg,
		Index:       idx,
		State:       state,
		Coordinator: coord,
		StagingRoot: stagingRoot,
	}, nil
}

// Start begins background ingestion. Stop (deferred by the caller) must be
// called to release workers cleanly.
func (a *App) Start(ctx context.Context) {
	a.Coordinator.Start(ctx)
}

// Stop cancels background ingestion and waits for workers to return.
func (a *App) Stop() {
	a.Coordinator.Stop()
}
