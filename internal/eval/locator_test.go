package eval

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateEntryScriptSingle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "plugin.lua"), "")
	writeFile(t, filepath.Join(root, "src", "other.lua"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")

	entry, err := LocateEntryScript(root, "plugin.lua")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "plugin.lua"), entry.Path)
	assert.Equal(t, filepath.Join(root, "src"), entry.Dir)
}

func TestLocateEntryScriptNone(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.lua"), "")
	writeFile(t, filepath.Join(root, "plugin.lua.bak"), "")

	_, err := LocateEntryScript(root, "plugin.lua")
	assert.ErrorIs(t, err, ErrEntryScriptNotFound)
}

func TestLocateEntryScriptSeveral(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "plugin.lua"), "")
	writeFile(t, filepath.Join(root, "nested", "deeper", "plugin.lua"), "")

	_, err := LocateEntryScript(root, "plugin.lua")
	assert.ErrorIs(t, err, ErrMultipleEntryScripts)
	assert.False(t, errors.Is(err, ErrEntryScriptNotFound))
	assert.Contains(t, err.Error(), filepath.Join(root, "nested", "deeper", "plugin.lua"))
}

func TestLocateEntryScriptMissingRoot(t *testing.T) {
	_, err := LocateEntryScript(filepath.Join(t.TempDir(), "gone"), "plugin.lua")
	assert.ErrorIs(t, err, ErrEntryScriptNotFound)
}
