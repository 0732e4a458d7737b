package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Toomas633/Adlist-Parser/internal/models"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadObjectShape(t *testing.T) {
	path := writeConfig(t, "adlists.json", `{
		"lists": ["https://one.example/list.txt"],
		"urls": ["https://two.example/list.txt"],
		"adlists": ["local/extra.txt"],
		"sources": ["https://three.example/list.txt"]
	}`)

	srcs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, srcs, 4)

	assert.Equal(t, models.SourceRemote, srcs[0].Kind)
	assert.Equal(t, "https://one.example/list.txt", srcs[0].Location)

	assert.Equal(t, models.SourceLocal, srcs[2].Kind)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "local", "extra.txt"), srcs[2].Location)
	assert.Equal(t, "local/extra.txt", srcs[2].Raw)
}

func TestLoadArrayShape(t *testing.T) {
	path := writeConfig(t, "adlists.json", `["https://one.example/a.txt", "b.txt"]`)

	srcs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.True(t, srcs[0].IsRemote())
	assert.False(t, srcs[1].IsRemote())
}

func TestLoadAbsolutePathKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "list.txt")
	path := writeConfig(t, "adlists.json", `{"lists": ["`+abs+`"]}`)

	srcs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.Equal(t, abs, srcs[0].Location)
}

func TestLoadFileURI(t *testing.T) {
	path := writeConfig(t, "adlists.json", `{"lists": ["file:///etc/lists/extra.txt"]}`)

	srcs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.False(t, srcs[0].IsRemote())
	assert.Equal(t, "/etc/lists/extra.txt", srcs[0].Location)
}

func TestLoadEmpty(t *testing.T) {
	path := writeConfig(t, "adlists.json", `{"lists": []}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadUnsupportedShape(t *testing.T) {
	path := writeConfig(t, "adlists.json", `"just a string"`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
