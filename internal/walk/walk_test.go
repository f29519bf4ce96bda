package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestFilesDepthFirstOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"))
	writeFile(t, filepath.Join(dir, "b", "c.txt"))
	writeFile(t, filepath.Join(dir, "b", "d", "e.txt"))
	writeFile(t, filepath.Join(dir, "b", "f.txt"))
	writeFile(t, filepath.Join(dir, "g.txt"))

	got, err := Collect(Files(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b", "c.txt"),
		filepath.Join(dir, "b", "d", "e.txt"),
		filepath.Join(dir, "b", "f.txt"),
		filepath.Join(dir, "g.txt"),
	}, got)
}

func TestFilesSkipsEmptyDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty", "nested"), 0755))

	got, err := Collect(Files(dir))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilesSingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.lua")
	writeFile(t, path)

	got, err := Collect(Files(path))
	require.NoError(t, err)
	assert.Equal(t, []string{path}, got)
}

func TestFilesMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := Collect(Files(missing))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "got %v", err)
}

func TestFilesRestartable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.txt"))
	writeFile(t, filepath.Join(dir, "sub", "two.txt"))

	seq := Files(dir)
	first, err := Collect(seq)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "sub", "three.txt"))

	second, err := Collect(seq)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Len(t, second, 3, "walk must re-read the tree")
}

func TestFilesEarlyStop(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		writeFile(t, filepath.Join(dir, name))
	}

	count := 0
	for _, err := range Files(dir) {
		require.NoError(t, err)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestFilesDeepTree(t *testing.T) {
	dir := t.TempDir()
	path := dir
	for i := 0; i < 64; i++ {
		path = filepath.Join(path, "d")
	}
	writeFile(t, filepath.Join(path, "leaf.txt"))

	got, err := Collect(Files(dir))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
