package source

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/skill"
)

// LocalAdapter yields an already-materialized directory on disk, unchanged.
type LocalAdapter struct {
	path     string
	scope    skill.Scope
	tenantID string
}

func (a *LocalAdapter) Identifier() string { return "local:" + a.path }

func (a *LocalAdapter) Materialize(_ context.Context) (string, error) {
	info, err := os.Stat(a.path)
	if err != nil {
		return "", fmt.Errorf("%w: local source %s: %w", errs.ErrSourceUnavailable, a.path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: local source %s is not a directory", errs.ErrSourceUnavailable, a.path)
	}
	return a.path, nil
}

func (a *LocalAdapter) Scope() skill.Scope { return a.scope }
func (a *LocalAdapter) TenantID() string   { return a.tenantID }
