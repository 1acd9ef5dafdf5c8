// Package paths resolves the on-disk locations agent-skills uses for
// configuration, cached sources, and data.
package paths

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the user's config directory for agent-skills.
//
// If the home directory cannot be determined, it falls back to a directory
// under the system temporary directory. This is a best-effort fallback and
// not intended to be a security boundary.
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".agent-skills-config"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".config", "agent-skills"))
}

// GetDataDir returns the user's data directory for agent-skills (caches, logs).
//
// If the home directory cannot be determined, it falls back to a directory
// under the system temporary directory.
func GetDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".agent-skills"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".agent-skills"))
}

// GetCacheDir returns the directory used to cache fetched git sources.
func GetCacheDir() string {
	return filepath.Clean(filepath.Join(GetDataDir(), "cache", "sources"))
}

// GetHomeDir returns the user's home directory.
//
// Returns an empty string if the home directory cannot be determined.
func GetHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Clean(homeDir)
}
