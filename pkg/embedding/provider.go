// Package embedding wraps a local ONNX sentence-embedding model behind a
// process-wide, lazily-initialized Provider — the concrete realization of
// the black-box embed(texts) -> matrix function the rest of the service
// depends on.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docker/agent-skills/pkg/errs"
)

// Config configures a Provider. ModelName selects the on-disk model
// directory; BatchSize/MaxConcurrency bound how embedding calls for large
// text batches are split and parallelized.
type Config struct {
	ModelName      string
	DataDir        string
	BatchSize      int
	MaxConcurrency int
}

const (
	defaultBatchSize      = 32
	defaultMaxConcurrency = 4
	// DefaultModelName is used when Config.ModelName is empty.
	DefaultModelName = "all-MiniLM-L6-v2"
)

// Provider is a process-wide embedding model instance. The model is loaded
// on first use, not at construction, so cold start isn't dominated by model
// load time for requests that never need embeddings (list_skills, health).
type Provider struct {
	cfg     Config
	locator *ModelLocator

	loadOnce sync.Once
	loadErr  error
	eng      *engine

	// inferMu serializes calls into the ONNX session: the spec permits
	// either a thread-safe inference path or a serializing lock, and ONNX
	// Runtime sessions are not guaranteed safe for concurrent Run calls.
	inferMu sync.Mutex
}

// NewProvider constructs a Provider. No model file is touched until the
// first Embed call.
func NewProvider(cfg Config) *Provider {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	return &Provider{cfg: cfg, locator: NewModelLocator(cfg.DataDir)}
}

// Dimension returns the embedding output width.
func (p *Provider) Dimension() int {
	return EmbeddingDimension
}

func (p *Provider) ensureLoaded() error {
	p.loadOnce.Do(func() {
		modelPath := p.locator.ModelPath(p.cfg.ModelName)
		vocabPath := p.locator.VocabPath(p.cfg.ModelName)
		sharedLib := p.locator.SharedLibraryPath()

		slog.Info("loading embedding model", "model", p.cfg.ModelName, "path", modelPath)
		eng, err := loadEngine(modelPath, vocabPath, sharedLib)
		if err != nil {
			p.loadErr = err
			return
		}
		p.eng = eng
		slog.Info("embedding model loaded", "model", p.cfg.ModelName)
	})
	return p.loadErr
}

// Embed computes L2-normalized embedding rows for texts, in the same order.
// An empty input returns an empty (non-nil) matrix without loading the model.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := p.ensureLoaded(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrEmbedFailed, err)
	}

	results := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrency)

	for start := 0; start < len(texts); start += p.cfg.BatchSize {
		start := start
		end := min(start+p.cfg.BatchSize, len(texts))

		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				v, err := p.embedOne(texts[i])
				if err != nil {
					return fmt.Errorf("%w: text %d: %w", errs.ErrEmbedFailed, i, err)
				}
				results[i] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Provider) embedOne(text string) ([]float32, error) {
	p.inferMu.Lock()
	defer p.inferMu.Unlock()
	return p.eng.embed(text)
}

// Close releases the underlying ONNX session, if one was ever loaded.
func (p *Provider) Close() error {
	if p.eng != nil {
		p.eng.close()
	}
	return nil
}
