package loader

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/docker/agent-skills/pkg/errs"
)

// manifestHeader is the subset of front-matter fields the loader requires;
// unknown keys are accepted and ignored, matching the spec's "passed through
// opaquely" contract for additional manifest metadata.
type manifestHeader struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// parseFrontmatter splits a manifest file's content into its YAML front
// matter and markdown body. The front matter is the block between the first
// two lines consisting solely of "---". Returns an error if the block is
// absent or malformed, or if name/description are missing or empty.
func parseFrontmatter(content string) (manifestHeader, string, error) {
	const delim = "---"

	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delim {
		return manifestHeader{}, "", fmt.Errorf("%w: missing front-matter block", errs.ErrManifestMalformed)
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delim {
			end = i
			break
		}
	}
	if end == -1 {
		return manifestHeader{}, "", fmt.Errorf("%w: unterminated front-matter block", errs.ErrManifestMalformed)
	}

	raw := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")
	body = strings.TrimPrefix(body, "\n")

	var header manifestHeader
	if err := yaml.Unmarshal([]byte(raw), &header); err != nil {
		return manifestHeader{}, "", fmt.Errorf("%w: %w", errs.ErrManifestMalformed, err)
	}

	if strings.TrimSpace(header.Name) == "" || strings.TrimSpace(header.Description) == "" {
		return manifestHeader{}, "", fmt.Errorf("%w: name and description are required", errs.ErrManifestMalformed)
	}

	return header, body, nil
}
