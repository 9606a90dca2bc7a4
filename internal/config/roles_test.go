package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roles.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRoles(t *testing.T) {
	t.Run("preserves configuration order", func(t *testing.T) {
		path := writeRoles(t, `[
			{"name": "Software Engineer", "aliases": ["Backend Developer"]},
			{"name": "Data Analyst", "aliases": []}
		]`)

		entries, err := LoadRoles(path)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Software Engineer", entries[0].Name)
		assert.Equal(t, []string{"Backend Developer"}, entries[0].Aliases)
		assert.Equal(t, "Data Analyst", entries[1].Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRoles(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("empty table", func(t *testing.T) {
		_, err := LoadRoles(writeRoles(t, `[]`))
		assert.Error(t, err)
	})

	t.Run("nameless entry", func(t *testing.T) {
		_, err := LoadRoles(writeRoles(t, `[{"name": "", "aliases": []}]`))
		assert.Error(t, err)
	})

	t.Run("duplicate category", func(t *testing.T) {
		_, err := LoadRoles(writeRoles(t, `[
			{"name": "Software Engineer", "aliases": []},
			{"name": "Software Engineer", "aliases": []}
		]`))
		assert.Error(t, err)
	})
}
