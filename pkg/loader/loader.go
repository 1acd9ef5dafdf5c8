// Package loader parses skill bundles on disk into skill.Skill values.
package loader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/skill"
)

// ManifestName is the required filename of a skill bundle's manifest.
const ManifestName = "SKILL.md"

// Config controls document classification and loading behavior.
type Config struct {
	// TextExtensions and ImageExtensions are dot-prefixed extensions
	// (".md", ".py", ".png") matched case-insensitively.
	TextExtensions  []string
	ImageExtensions []string
	MaxImageSize    int64
	// LoadDocuments, when false, skips the recursive walk entirely: only the
	// manifest (name, description, primary document) is kept.
	LoadDocuments bool
}

// CandidateRoots returns the direct subdirectories of root that contain a
// manifest file, in deterministic (sorted) order. Directories without a
// manifest are silently skipped.
func CandidateRoots(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading source root %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var roots []string
	for _, entry := range entries {
		if !entry.IsDir() || isHiddenOrSymlink(entry) {
			continue
		}
		candidate := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(candidate, ManifestName)); err == nil {
			roots = append(roots, candidate)
		} else {
			slog.Debug("skipping directory without manifest", "path", candidate)
		}
	}
	return roots, nil
}

// LoadOne parses a single candidate skill root into a skill.Skill.
func LoadOne(skillRoot, source string, scope skill.Scope, tenantID string, cfg Config) (skill.Skill, error) {
	manifestPath := filepath.Join(skillRoot, ManifestName)
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return skill.Skill{}, fmt.Errorf("%w: reading %s: %w", errs.ErrManifestMalformed, manifestPath, err)
	}

	header, body, err := parseFrontmatter(string(raw))
	if err != nil {
		return skill.Skill{}, fmt.Errorf("%s: %w", skillRoot, err)
	}

	primary := skill.Document{
		Path:    ManifestName,
		Kind:    skill.DocumentText,
		Size:    int64(len(raw)),
		Content: body,
	}

	s := skill.Skill{
		Name:            header.Name,
		Description:     header.Description,
		Source:          source,
		Scope:           scope,
		TenantID:        tenantID,
		PrimaryDocument: primary,
		Documents:       []skill.Document{primary},
	}

	if cfg.LoadDocuments {
		docs, err := walkDocuments(skillRoot, cfg)
		if err != nil {
			return skill.Skill{}, fmt.Errorf("%s: %w", skillRoot, err)
		}
		s.Documents = append(s.Documents, docs...)
	}

	if err := s.Validate(); err != nil {
		return skill.Skill{}, err
	}

	return s, nil
}

// Load loads every candidate skill root under sourceRoot, de-duplicating by
// name within the batch (later wins, matching the loader contract).
func Load(sourceRoot, source string, scope skill.Scope, tenantID string, cfg Config) ([]skill.Skill, error) {
	roots, err := CandidateRoots(sourceRoot)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]skill.Skill, len(roots))
	order := make([]string, 0, len(roots))

	for _, root := range roots {
		s, err := LoadOne(root, source, scope, tenantID, cfg)
		if err != nil {
			slog.Warn("skipping skill candidate", "path", root, "error", err)
			continue
		}
		if _, exists := byName[s.Name]; exists {
			slog.Warn("duplicate skill name in batch, later wins", "name", s.Name)
		} else {
			order = append(order, s.Name)
		}
		byName[s.Name] = s
	}

	skills := make([]skill.Skill, 0, len(order))
	for _, name := range order {
		skills = append(skills, byName[name])
	}
	return skills, nil
}

func walkDocuments(skillRoot string, cfg Config) ([]skill.Document, error) {
	var docs []skill.Document

	err := filepath.WalkDir(skillRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == skillRoot {
			return nil
		}

		rel, err := filepath.Rel(skillRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if isHiddenOrSymlinkName(d.Name()) || d.Type()&fs.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if rel == ManifestName {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		doc, skip := classify(path, rel, info.Size(), cfg)
		if skip {
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func classify(absPath, relPath string, size int64, cfg Config) (skill.Document, bool) {
	ext := strings.ToLower(filepath.Ext(relPath))

	switch {
	case hasExt(cfg.TextExtensions, ext):
		content, err := os.ReadFile(absPath)
		if err != nil || !utf8.Valid(content) {
			return skill.Document{Path: relPath, Kind: skill.DocumentBinaryOther, Size: size, Locator: absPath}, false
		}
		return skill.Document{Path: relPath, Kind: skill.DocumentText, Size: size, Content: string(content)}, false

	case hasExt(cfg.ImageExtensions, ext):
		if cfg.MaxImageSize > 0 && size > cfg.MaxImageSize {
			slog.Warn("skipping oversized image document", "path", relPath, "size", size)
			return skill.Document{}, true
		}
		return skill.Document{Path: relPath, Kind: skill.DocumentImage, Size: size, Locator: absPath}, false

	default:
		return skill.Document{Path: relPath, Kind: skill.DocumentBinaryOther, Size: size, Locator: absPath}, false
	}
}

func hasExt(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func isHiddenOrSymlink(e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink != 0 {
		return true
	}
	return strings.HasPrefix(e.Name(), ".")
}

func isHiddenOrSymlinkName(name string) bool {
	return strings.HasPrefix(name, ".")
}
