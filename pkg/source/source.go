// Package source adapts configured skill sources — a git-hosted archive or a
// local directory tree — into a local, read-only directory an ingestion
// worker can hand to the loader.
package source

import (
	"context"
	"fmt"

	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/skill"
)

// Kind selects which adapter a configured source uses.
type Kind string

const (
	KindGit   Kind = "git"
	KindLocal Kind = "local"
)

// Config is one entry of the configuration file's skill_sources list.
type Config struct {
	Type     Kind
	URL      string
	Ref      string
	Path     string
	Scope    skill.Scope
	TenantID string
}

// Validate checks the parts of invariant 3 and §6 that a source config can
// violate before any skill is ever loaded from it.
func (c Config) Validate() error {
	switch c.Type {
	case KindGit:
		if c.URL == "" {
			return fmt.Errorf("%w: git source requires url", errs.ErrConfigInvalid)
		}
	case KindLocal:
		if c.Path == "" {
			return fmt.Errorf("%w: local source requires path", errs.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown source type %q", errs.ErrConfigInvalid, c.Type)
	}

	scope := c.Scope
	if scope == "" {
		scope = skill.ScopeGlobal
	}
	switch scope {
	case skill.ScopeGlobal:
		if c.TenantID != "" {
			return fmt.Errorf("%w: scope=global source must not set tenant_id", errs.ErrConfigInvalid)
		}
	case skill.ScopeTenant:
		if c.TenantID == "" {
			return fmt.Errorf("%w: scope=tenant source requires tenant_id", errs.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown scope %q", errs.ErrConfigInvalid, scope)
	}
	return nil
}

// Adapter fetches a source's skill bundles into a local directory.
type Adapter interface {
	// Identifier is the opaque string stamped onto every skill loaded from
	// this source, and the key used by targeted-replacement refresh.
	Identifier() string
	// Materialize returns a local, read-only directory containing candidate
	// skill roots as direct subdirectories.
	Materialize(ctx context.Context) (string, error)
	// Scope and TenantID are inherited by every skill loaded from this source.
	Scope() skill.Scope
	TenantID() string
}

// Refreshable is implemented by adapters that can report whether their
// upstream has advanced since the last successful Materialize, without
// doing a full fetch.
type Refreshable interface {
	HasAdvanced(ctx context.Context) (bool, error)
}

// New builds the adapter described by cfg.
func New(cfg Config, opts Options) (Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scope := cfg.Scope
	if scope == "" {
		scope = skill.ScopeGlobal
	}

	switch cfg.Type {
	case KindLocal:
		return &LocalAdapter{path: cfg.Path, scope: scope, tenantID: cfg.TenantID}, nil
	case KindGit:
		return newGitAdapter(cfg, scope, opts)
	default:
		return nil, fmt.Errorf("%w: unknown source type %q", errs.ErrConfigInvalid, cfg.Type)
	}
}

// Options carries dependencies shared by all adapters constructed via New.
type Options struct {
	CacheDir       string
	DefaultTimeout int // seconds; not read by any adapter (fetch timeouts are applied by the coordinator)
}
