// Package serviceconfig loads and validates the service's JSON configuration
// file: skill sources, the embedding model, and the ambient HTTP/logging
// knobs, layered over a fixed set of defaults the same way the reference
// codebase overlays a partial config over defaults with mergo.
package serviceconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"

	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/paths"
	"github.com/docker/agent-skills/pkg/skill"
)

// SourceConfig is one entry of the skill_sources list.
type SourceConfig struct {
	Type     string     `json:"type"`
	URL      string     `json:"url,omitempty"`
	Ref      string     `json:"ref,omitempty"`
	Path     string     `json:"path,omitempty"`
	Scope    skill.Scope `json:"scope,omitempty"`
	TenantID string     `json:"tenant_id,omitempty"`
}

// Config is the fully resolved, validated service configuration.
type Config struct {
	SkillSources []SourceConfig `json:"skill_sources"`

	EmbeddingModel string `json:"embedding_model"`
	DefaultTopK    int    `json:"default_top_k"`

	AutoUpdateEnabled     bool `json:"auto_update_enabled"`
	UpdateIntervalSeconds int  `json:"update_interval_seconds"`

	LoadSkillDocuments     bool     `json:"load_skill_documents"`
	TextFileExtensions     []string `json:"text_file_extensions"`
	AllowedImageExtensions []string `json:"allowed_image_extensions"`
	MaxImageSizeBytes      int64    `json:"max_image_size_bytes"`

	SourceTimeoutSeconds int `json:"source_timeout_seconds"`

	ListenAddress string `json:"listen_address"`
	CacheDir      string `json:"cache_dir,omitempty"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// defaults returns the baseline Config every loaded file is merged over.
func defaults() Config {
	return Config{
		DefaultTopK:            3,
		UpdateIntervalSeconds:  3600,
		LoadSkillDocuments:     true,
		TextFileExtensions:     []string{".md", ".txt", ".py", ".js", ".ts", ".json", ".yaml", ".yml"},
		AllowedImageExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".svg"},
		MaxImageSizeBytes:      5 * 1024 * 1024,
		SourceTimeoutSeconds:   300,
		ListenAddress:          ":8080",
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// Path returns the default configuration file location when --config is not
// given explicitly.
func Path() string {
	return filepath.Join(paths.GetConfigDir(), "config.json")
}

// Load reads, defaults, and validates the configuration file at path. An
// empty path resolves to the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", errs.ErrConfigInvalid, path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", errs.ErrConfigInvalid, path, err)
	}

	cfg := defaults()
	if err := mergo.Merge(&cfg, loaded, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("%w: merging defaults: %w", errs.ErrConfigInvalid, err)
	}

	// mergo never overrides with a zero value, so an explicit
	// "load_skill_documents": false is applied separately.
	var explicit struct {
		LoadSkillDocuments *bool `json:"load_skill_documents"`
	}
	if err := json.Unmarshal(data, &explicit); err == nil && explicit.LoadSkillDocuments != nil {
		cfg.LoadSkillDocuments = *explicit.LoadSkillDocuments
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every config-invalid condition spec §6 names, without
// touching the filesystem beyond stat-ing local source paths.
func (c *Config) Validate() error {
	if len(c.SkillSources) == 0 {
		return fmt.Errorf("%w: skill_sources must not be empty", errs.ErrConfigInvalid)
	}

	for i, src := range c.SkillSources {
		if err := validateSource(src); err != nil {
			return fmt.Errorf("%w: skill_sources[%d]: %w", errs.ErrConfigInvalid, i, err)
		}
	}
	return nil
}

func validateSource(src SourceConfig) error {
	switch src.Type {
	case "git":
		if src.URL == "" {
			return fmt.Errorf("git source requires url")
		}
	case "local":
		if src.Path == "" {
			return fmt.Errorf("local source requires path")
		}
		if _, err := os.Stat(src.Path); err != nil {
			return fmt.Errorf("local source path %q: %w", src.Path, err)
		}
	default:
		return fmt.Errorf("unknown source type %q", src.Type)
	}

	scope := src.Scope
	if scope == "" {
		scope = skill.ScopeGlobal
	}
	switch scope {
	case skill.ScopeGlobal:
		if src.TenantID != "" {
			return fmt.Errorf("scope=global source must not set tenant_id")
		}
	case skill.ScopeTenant:
		if src.TenantID == "" {
			return fmt.Errorf("scope=tenant source requires tenant_id")
		}
	default:
		return fmt.Errorf("unknown scope %q", scope)
	}
	return nil
}
