package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	header, body, err := parseFrontmatter("---\nname: my-skill\ndescription: A test skill\n---\n\n# Skill Content")
	require.NoError(t, err)
	assert.Equal(t, "my-skill", header.Name)
	assert.Equal(t, "A test skill", header.Description)
	assert.Equal(t, "# Skill Content", body)
}

func TestParseFrontmatterMissingBlock(t *testing.T) {
	_, _, err := parseFrontmatter("# Just content\n\nNo frontmatter here.")
	require.Error(t, err)
}

func TestParseFrontmatterMissingDescription(t *testing.T) {
	_, _, err := parseFrontmatter("---\nname: only-name\n---\nbody")
	require.Error(t, err)
}

func TestParseFrontmatterUnterminated(t *testing.T) {
	_, _, err := parseFrontmatter("---\nname: x\ndescription: y\nbody without closing delimiter")
	require.Error(t, err)
}
