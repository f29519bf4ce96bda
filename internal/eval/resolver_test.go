package eval

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseDirectives(t *testing.T) {
	src := strings.Join([]string{
		"-- classpath: lib/",
		"local x = 1",
		"print('-- classpath: quoted.lua')",
		"local y = 2 -- classpath:  trailing.lua  ",
		"-- classpath:",
		"-- classpath:    ",
		"--classpath: no-space.lua",
		"-- classpath: a -- classpath: b",
	}, "\n")

	got, err := ParseDirectives(strings.NewReader(src), DefaultDirective)
	require.NoError(t, err)
	assert.Equal(t, []Directive{
		{Line: 1, Expr: "lib/"},
		{Line: 3, Expr: "quoted.lua')"},
		{Line: 4, Expr: "trailing.lua"},
		{Line: 8, Expr: "a -- classpath: b"},
	}, got)
}

func TestParseDirectivesCustomSentinel(t *testing.T) {
	src := "// classpath: lib/\r\n-- classpath: ignored.lua\r\n"

	got, err := ParseDirectives(strings.NewReader(src), "// classpath:")
	require.NoError(t, err)
	assert.Equal(t, []Directive{{Line: 1, Expr: "lib/"}}, got)
}

// TestResolveDirectoryAndMissing covers a directory directive followed by a
// directive naming a path that does not exist.
func TestResolveDirectoryAndMissing(t *testing.T) {
	dir := t.TempDir()
	entryPath := filepath.Join(dir, "plugin.lua")
	writeFile(t, entryPath, "// classpath: lib/\n// classpath: missing.jar\n")
	writeFile(t, filepath.Join(dir, "lib", "a.jar"), "a")
	writeFile(t, filepath.Join(dir, "lib", "b.txt"), "b")

	r := NewResolver("// classpath:")
	entries, problems, err := r.Resolve(EntryScript{Path: entryPath, Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "lib", "a.jar"),
		filepath.Join(dir, "lib", "b.txt"),
	}, entries)

	require.Len(t, problems, 1)
	assert.ErrorIs(t, problems[0], ErrDependencyMissing)
	assert.Contains(t, problems[0].Error(), "missing.jar")
	assert.Equal(t, "Couldn't find dependency 'missing.jar'", dependencyMessage(entryPath, problems[0]))
}

func TestResolveAbsoluteAndNested(t *testing.T) {
	dir := t.TempDir()
	shared := t.TempDir()
	writeFile(t, filepath.Join(shared, "util.lua"), "")
	writeFile(t, filepath.Join(dir, "deps", "x", "one.lua"), "")
	writeFile(t, filepath.Join(dir, "deps", "two.lua"), "")

	entryPath := filepath.Join(dir, "plugin.lua")
	writeFile(t, entryPath, fmt.Sprintf("-- classpath: %s\n-- classpath: deps\n", filepath.Join(shared, "util.lua")))

	entries, problems, err := NewResolver("").Resolve(EntryScript{Path: entryPath, Dir: dir})
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Equal(t, []string{
		filepath.Join(shared, "util.lua"),
		filepath.Join(dir, "deps", "two.lua"),
		filepath.Join(dir, "deps", "x", "one.lua"),
	}, entries)
}

func TestResolveEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "empty"), 0755))
	entryPath := filepath.Join(dir, "plugin.lua")
	writeFile(t, entryPath, "-- classpath: empty\n")

	entries, problems, err := NewResolver("").Resolve(EntryScript{Path: entryPath, Dir: dir})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, problems)
}

func TestResolveCollectsEveryMissingPath(t *testing.T) {
	dir := t.TempDir()
	entryPath := filepath.Join(dir, "plugin.lua")
	writeFile(t, filepath.Join(dir, "present.lua"), "")
	writeFile(t, entryPath, "-- classpath: one.lua\n-- classpath: present.lua\n-- classpath: two/\n")

	entries, problems, err := NewResolver("").Resolve(EntryScript{Path: entryPath, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "present.lua")}, entries)
	require.Len(t, problems, 2)
	assert.Equal(t, "Couldn't find dependency 'one.lua'", dependencyMessage(entryPath, problems[0]))
	assert.Equal(t, "Couldn't find dependency 'two/'", dependencyMessage(entryPath, problems[1]))
}

func TestResolveUnstatablePathIsProblem(t *testing.T) {
	dir := t.TempDir()
	entryPath := filepath.Join(dir, "plugin.lua")
	loop := filepath.Join(dir, "loop")
	require.NoError(t, os.Symlink(loop, loop))
	writeFile(t, filepath.Join(dir, "after.lua"), "")
	writeFile(t, entryPath, "-- classpath: missing1\n-- classpath: loop\n-- classpath: after.lua\n")

	entries, problems, err := NewResolver("").Resolve(EntryScript{Path: entryPath, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "after.lua")}, entries)
	require.Len(t, problems, 2)

	assert.ErrorIs(t, problems[0], ErrDependencyMissing)
	assert.Equal(t, "Couldn't find dependency 'missing1'", dependencyMessage(entryPath, problems[0]))

	var depErr *DependencyError
	require.ErrorAs(t, problems[1], &depErr)
	assert.Equal(t, 2, depErr.Line)
	assert.Equal(t, "loop", depErr.Expr)
	assert.False(t, errors.Is(problems[1], ErrDependencyMissing))
	assert.True(t, strings.HasPrefix(dependencyMessage(entryPath, problems[1]),
		"Error while looking for dependencies. Main script: "+entryPath+". "))
}

func TestResolveUnreadableEntry(t *testing.T) {
	dir := t.TempDir()
	_, _, err := NewResolver("").Resolve(EntryScript{Path: filepath.Join(dir, "plugin.lua"), Dir: dir})
	assert.True(t, os.IsNotExist(err), "got %v", err)
}

// Entries follow directive order regardless of file names.
func TestResolvePreservesDirectiveOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z]{1,8}`), 1, 12, rapid.ID[string],
		).Draw(rt, "names")

		dir, err := os.MkdirTemp("", "resolve-order-")
		if err != nil {
			rt.Fatal(err)
		}
		defer os.RemoveAll(dir)

		var src strings.Builder
		want := make([]string, len(names))
		for i, name := range names {
			name = "mod_" + name
			path := filepath.Join(dir, name+".lua")
			if err := os.WriteFile(path, nil, 0644); err != nil {
				rt.Fatal(err)
			}
			fmt.Fprintf(&src, "-- classpath: %s.lua\n", name)
			want[i] = path
		}
		entryPath := filepath.Join(dir, "plugin.lua")
		if err := os.WriteFile(entryPath, []byte(src.String()), 0644); err != nil {
			rt.Fatal(err)
		}

		got, problems, err := NewResolver("").Resolve(EntryScript{Path: entryPath, Dir: dir})
		if err != nil {
			rt.Fatal(err)
		}
		if len(problems) != 0 {
			rt.Fatalf("problems = %v", problems)
		}
		assert.Equal(rt, want, got)
	})
}
