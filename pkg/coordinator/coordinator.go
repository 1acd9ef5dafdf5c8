// Package coordinator owns the skill index's lifecycle: lazy model warm-up is
// left to the embedding provider, but everything about *which* skills are in
// the index — initial ingestion, uploads, and periodic refresh — is
// orchestrated here.
package coordinator

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/index"
	"github.com/docker/agent-skills/pkg/loader"
	"github.com/docker/agent-skills/pkg/loadingstate"
	"github.com/docker/agent-skills/pkg/skill"
	"github.com/docker/agent-skills/pkg/source"
)

// SourceSpec is one configured skill source plus its constructed adapter.
type SourceSpec struct {
	Config  source.Config
	Adapter source.Adapter
}

// Config controls the coordinator's ingestion and refresh behavior.
type Config struct {
	Sources         []SourceSpec
	LoaderConfig    loader.Config
	SourceTimeout   time.Duration
	RefreshInterval time.Duration // 0 disables periodic refresh
}

// Coordinator runs the background workers that keep an Index populated from
// a fixed set of sources, plus the ad hoc upload path.
type Coordinator struct {
	idx      *index.Index
	state    *loadingstate.State
	sources  []SourceSpec
	loaderCf loader.Config
	timeout  time.Duration
	interval time.Duration

	// uploadMu serializes any mutation that isn't purely additive: uploads
	// and refresh both remove-then-add for a given source, and must not
	// interleave with each other.
	uploadMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Coordinator. Start must be called to begin ingestion.
func New(idx *index.Index, state *loadingstate.State, cfg Config) *Coordinator {
	timeout := cfg.SourceTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Coordinator{
		idx:      idx,
		state:    state,
		sources:  cfg.Sources,
		loaderCf: cfg.LoaderConfig,
		timeout:  timeout,
		interval: cfg.RefreshInterval,
	}
}

// Start launches one ingestion worker per configured source, plus a
// background refresh loop if RefreshInterval > 0. It returns immediately;
// ingestion completion is observed through the loading state.
func (c *Coordinator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.state.SetTotal(len(c.sources))

	for _, spec := range c.sources {
		spec := spec
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.ingestSource(ctx, spec)
		}()
	}

	if c.interval > 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.refreshLoop(ctx)
		}()
	}
}

// Stop cancels in-flight and scheduled background work and waits for
// running workers to return (they finish or time out on their own).
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Coordinator) ingestSource(ctx context.Context, spec SourceSpec) {
	identifier := spec.Adapter.Identifier()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	skills, err := c.loadFromAdapter(ctx, spec.Adapter)
	if err != nil {
		slog.Error("source ingestion failed", "source", identifier, "error", err)
		c.state.RecordSourceDone(identifier, 0, err)
		return
	}

	if err := c.idx.AddSkills(ctx, skills); err != nil {
		slog.Error("indexing skills failed", "source", identifier, "error", err)
		c.state.RecordSourceDone(identifier, 0, err)
		return
	}

	slog.Info("source ingested", "source", identifier, "skills", len(skills))
	c.state.RecordSourceDone(identifier, len(skills), nil)
}

func (c *Coordinator) loadFromAdapter(ctx context.Context, adapter source.Adapter) ([]skill.Skill, error) {
	dir, err := adapter.Materialize(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: %w", errs.ErrSourceTimeout, adapter.Identifier(), err)
		}
		return nil, err
	}
	return loader.Load(dir, adapter.Identifier(), adapter.Scope(), adapter.TenantID(), c.loaderCf)
}

func (c *Coordinator) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshOnce(ctx)
		}
	}
}

func (c *Coordinator) refreshOnce(ctx context.Context) {
	for _, spec := range c.sources {
		refreshable, ok := spec.Adapter.(source.Refreshable)
		if !ok {
			continue
		}

		advanced, err := refreshable.HasAdvanced(ctx)
		if err != nil {
			slog.Warn("refresh check failed", "source", spec.Adapter.Identifier(), "error", err)
			continue
		}
		if !advanced {
			continue
		}

		c.replaceSource(ctx, spec)
	}
}

// replaceSource performs a targeted refresh: re-fetch one source, remove its
// prior skills, and add the new ones, all under the upload lock so a
// concurrent upload can't race the swap.
func (c *Coordinator) replaceSource(ctx context.Context, spec SourceSpec) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	identifier := spec.Adapter.Identifier()

	skills, err := c.loadFromAdapter(ctx, spec.Adapter)
	if err != nil {
		slog.Error("targeted refresh failed", "source", identifier, "error", err)
		return
	}

	c.uploadMu.Lock()
	defer c.uploadMu.Unlock()

	before := c.idx.Len()
	c.idx.RemoveBySource(identifier)
	if err := c.idx.AddSkills(ctx, skills); err != nil {
		slog.Error("targeted refresh failed to reindex", "source", identifier, "error", err)
		return
	}
	c.state.AdjustSkillsLoaded(c.idx.Len() - before)
	slog.Info("source refreshed", "source", identifier, "skills", len(skills))
}

// UploadArchive unpacks a zip archive of skill bundles into a scratch
// staging directory, loads it as a one-off source, and adds the result to
// the index. stagingRoot is the parent directory new staging subdirectories
// are created under (typically a cache/tmp directory); the per-upload
// staging subdirectory is removed after loading regardless of outcome.
func (c *Coordinator) UploadArchive(ctx context.Context, zipReader *zip.Reader, stagingRoot string, scope skill.Scope, tenantID string) ([]string, error) {
	stagingDir, err := os.MkdirTemp(stagingRoot, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	if err := extractZip(zipReader, stagingDir); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUploadRejected, err)
	}

	identifier := "upload:" + filepath.Base(stagingDir)
	skills, err := loader.Load(stagingDir, identifier, scope, tenantID, c.loaderCf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUploadRejected, err)
	}
	if len(skills) == 0 {
		return nil, fmt.Errorf("%w: archive contained no valid skill bundle", errs.ErrUploadRejected)
	}

	c.uploadMu.Lock()
	defer c.uploadMu.Unlock()

	if err := c.idx.AddSkills(ctx, skills); err != nil {
		return nil, fmt.Errorf("indexing uploaded skills: %w", err)
	}
	c.state.AdjustSkillsLoaded(len(skills))

	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return names, nil
}

// extractZip writes every regular-file entry in r into destDir, rejecting
// any entry whose resolved path would escape destDir ("zip-slip").
func extractZip(r *zip.Reader, destDir string) error {
	for _, f := range r.File {
		cleanName := filepath.Clean(f.Name)
		if cleanName == "." || strings.HasPrefix(cleanName, "..") {
			return fmt.Errorf("archive entry %q escapes staging directory", f.Name)
		}

		targetPath := filepath.Join(destDir, cleanName)
		if !strings.HasPrefix(targetPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes staging directory", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return err
		}

		if err := extractZipFile(f, targetPath); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, targetPath string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return nil
}
