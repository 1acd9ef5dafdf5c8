// Package skill defines the immutable value types the rest of the service
// indexes, loads, and serves: a Skill is a named bundle of instructions and
// supporting documents, classified by visibility scope.
package skill

import "fmt"

// Scope is a skill's visibility class.
type Scope string

const (
	// ScopeGlobal skills are visible to every caller.
	ScopeGlobal Scope = "global"
	// ScopeTenant skills are visible only to their owning tenant, and only
	// when explicitly allow-listed on the query.
	ScopeTenant Scope = "tenant"
)

// DocumentKind classifies a document within a skill bundle.
type DocumentKind string

const (
	DocumentText        DocumentKind = "text"
	DocumentImage       DocumentKind = "image"
	DocumentBinaryOther DocumentKind = "binary-other"
)

// Document is one file within a skill bundle.
type Document struct {
	// Path is relative to the skill root, using forward slashes.
	Path string
	Kind DocumentKind
	Size int64
	// Content holds the decoded text for DocumentText documents. Empty for
	// image/binary-other documents, which are resolved lazily from disk by
	// Locator when their bytes are actually needed.
	Content string
	// Locator is an absolute, on-disk path to the document's bytes, used for
	// image/binary-other documents that are not kept resident in memory.
	Locator string
}

// Skill is an immutable value describing one skill and its documents. Once
// published to a search index it is never mutated in place: a later insertion
// of the same name replaces the prior value wholesale.
type Skill struct {
	Name        string
	Description string
	// Source identifies the skill's origin: a repository URL plus
	// subdirectory, or a local filesystem path. Opaque to everything except
	// the lifecycle coordinator's targeted-refresh replacement.
	Source string
	Scope  Scope
	// TenantID is required and non-empty iff Scope == ScopeTenant, and must
	// be empty when Scope == ScopeGlobal.
	TenantID string
	// PrimaryDocument is the bundle's manifest file (e.g. SKILL.md), always
	// present, always classified DocumentText.
	PrimaryDocument Document
	// Documents is every loaded file in the bundle in deterministic order:
	// PrimaryDocument first, then the remaining documents sorted by path.
	Documents []Document
}

// Validate checks the scope/tenant pairing invariant (invariant 3).
func (s Skill) Validate() error {
	switch s.Scope {
	case ScopeGlobal:
		if s.TenantID != "" {
			return fmt.Errorf("skill %q: scope=global must not carry a tenant id", s.Name)
		}
	case ScopeTenant:
		if s.TenantID == "" {
			return fmt.Errorf("skill %q: scope=tenant requires a non-empty tenant id", s.Name)
		}
	default:
		return fmt.Errorf("skill %q: unknown scope %q", s.Name, s.Scope)
	}
	return nil
}

// Visible reports whether this skill is visible to a query issued with the
// given tenant id and allow-list (invariant 4).
func (s Skill) Visible(tenantID string, allowed map[string]struct{}) bool {
	if s.Scope == ScopeGlobal {
		return true
	}
	if s.TenantID != tenantID {
		return false
	}
	if len(allowed) == 0 {
		return false
	}
	_, ok := allowed[s.Name]
	return ok
}

// DocumentByPath returns the document with an exact path match.
func (s Skill) DocumentByPath(path string) (Document, bool) {
	for _, d := range s.Documents {
		if d.Path == path {
			return d, true
		}
	}
	return Document{}, false
}

// DocumentPaths returns the relative paths of every document, in bundle order.
func (s Skill) DocumentPaths() []string {
	paths := make([]string, len(s.Documents))
	for i, d := range s.Documents {
		paths[i] = d.Path
	}
	return paths
}
