// Package errs defines the service's fixed error-kind taxonomy as sentinel
// values, following the same pattern as the reference codebase's occasional
// package-level Err* sentinels (e.g. provider/dmr's ErrNotInstalled), applied
// consistently across every layer that needs errors.Is-compatible kinds.
package errs

import "errors"

var (
	// ErrConfigInvalid marks a fatal startup configuration problem.
	ErrConfigInvalid = errors.New("config-invalid")
	// ErrSourceUnavailable marks a source fetch that failed outright.
	ErrSourceUnavailable = errors.New("source-unavailable")
	// ErrSourceTimeout marks a source fetch that exceeded its timeout.
	ErrSourceTimeout = errors.New("source-timeout")
	// ErrManifestMalformed marks one skill bundle's manifest as unreadable;
	// never aborts the containing source.
	ErrManifestMalformed = errors.New("manifest-malformed")
	// ErrEmbedFailed marks an embedding call failure; the index operation
	// that triggered it is aborted, leaving prior state untouched.
	ErrEmbedFailed = errors.New("embed-failed")
	// ErrSkillNotFound marks a tool request naming an unindexed skill.
	ErrSkillNotFound = errors.New("skill-not-found")
	// ErrDocNotFound marks a tool request naming a document that doesn't
	// exist, or a glob pattern with no match, within a known skill.
	ErrDocNotFound = errors.New("doc-not-found")
	// ErrUploadRejected marks an upload archive the coordinator declined to
	// index; no index mutation occurs.
	ErrUploadRejected = errors.New("upload-rejected")
)
