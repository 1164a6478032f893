package importers

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	input := `
owner: jiggmin
files:
  - downloads/50815.txt
  - /abs/level.txt
levels:
  - id: 50816
    version: 3
  - id: 50817
`
	m, err := LoadManifest(strings.NewReader(input), "/work")

	require.NoError(t, err)
	assert.Equal(t, "jiggmin", m.Owner)

	sources := m.Sources()
	require.Len(t, sources, 4)
	assert.Equal(t, LocalFile{Path: filepath.Join("/work", "downloads/50815.txt")}, sources[0])
	assert.Equal(t, LocalFile{Path: "/abs/level.txt"}, sources[1])
	assert.Equal(t, "50816 v3", sources[2].Ref())
	assert.Equal(t, "50817", sources[3].Ref())
}

func TestLoadManifest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"empty", "", "manifest is empty"},
		{"unknown field", "owner: a\nlevelz: []\n", "invalid manifest"},
		{"bad id", "levels:\n  - id: 0\n", "Levels[0].ID: level id needs to be a positive number"},
		{"bad version", "levels:\n  - id: 5\n    version: -1\n", "version (if specified)"},
		{"empty path", "files:\n  - a.txt\n  - \"\"\n", "Files[1] has an empty path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(strings.NewReader(tt.input), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expect)
		})
	}
}
