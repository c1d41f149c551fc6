package modelcatalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCatalogListsConfiguredModels(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogFile(t, dir, `
models:
  - id: claude-4.1-opus
    ownedBy: relaygw
    created: 1700000000
`)
	c, err := Load(path)
	require.NoError(t, err)
	defer c.Close()

	list := c.List()
	assert.Equal(t, "list", list.Object)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "claude-4.1-opus", list.Data[0].ID)
	assert.Equal(t, "model", list.Data[0].Object)
	assert.True(t, c.Has("claude-4.1-opus"))
	assert.False(t, c.Has("unknown-model"))
}

func TestCatalogMissingFileStartsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	defer c.Close()

	assert.Empty(t, c.List().Data)
}

func TestCatalogReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogFile(t, dir, "models:\n  - id: a\n    ownedBy: relaygw\n")

	c, err := Load(path)
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.Has("a"))

	require.NoError(t, os.WriteFile(path, []byte("models:\n  - id: b\n    ownedBy: relaygw\n"), 0o644))

	require.Eventually(t, func() bool {
		return c.Has("b")
	}, 2*time.Second, 20*time.Millisecond)
}
