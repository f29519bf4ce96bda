package lua

import (
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// require resolves a module child-first: plugin search path, then host
// modules, then shared directories.
func (c *Context) require(L *lua.LState) int {
	name := L.CheckString(1)

	loaded := c.loadedTable()
	if v := loaded.RawGetString(name); v != lua.LNil {
		L.Push(v)
		return 1
	}

	var value lua.LValue
	if path, ok := c.findInSearchPath(name); ok {
		value = c.loadFile(L, name, path)
	} else if loader, ok := c.modules[name]; ok {
		L.Push(L.NewFunction(loader))
		L.Push(lua.LString(name))
		L.Call(1, 1)
		value = L.Get(-1)
		L.Pop(1)
	} else if path, ok := c.findInShared(name); ok {
		value = c.loadFile(L, name, path)
	} else {
		L.RaiseError("module '%s' not found:\n\tsearched: %s", name, strings.Join(c.searched(name), "\n\tsearched: "))
		return 0
	}

	if value == lua.LNil {
		value = lua.LTrue
	}
	loaded.RawSetString(name, value)
	L.Push(value)
	return 1
}

// loadFile compiles and runs a module file, returning its result.
func (c *Context) loadFile(L *lua.LState, name, path string) lua.LValue {
	fn, err := L.LoadFile(path)
	if err != nil {
		L.RaiseError("error loading module '%s' from file '%s':\n\t%s", name, path, err.Error())
		return lua.LNil
	}
	L.Push(fn)
	L.Push(lua.LString(name))
	L.Call(1, 1)
	value := L.Get(-1)
	L.Pop(1)
	return value
}

// loadedTable returns package.loaded, creating a private one if the package
// library is unavailable.
func (c *Context) loadedTable() *lua.LTable {
	if pkg, ok := c.L.GetGlobal("package").(*lua.LTable); ok {
		if loaded, ok := c.L.GetField(pkg, "loaded").(*lua.LTable); ok {
			return loaded
		}
	}
	loaded := c.L.NewTable()
	c.L.SetGlobal("package", c.L.NewTable())
	c.L.SetField(c.L.GetGlobal("package"), "loaded", loaded)
	return loaded
}

// modulePath maps a dotted module name to a relative file path stem.
func modulePath(name string) string {
	return filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))
}

// dirCandidates lists the files a module may live in under dir.
func dirCandidates(dir, name string) []string {
	rel := modulePath(name)
	return []string{
		filepath.Join(dir, rel+".lua"),
		filepath.Join(dir, rel, "init.lua"),
	}
}

// findInSearchPath looks in the entry directory, then the classpath.
func (c *Context) findInSearchPath(name string) (string, bool) {
	for _, candidate := range dirCandidates(c.entryDir, name) {
		if isFile(candidate) {
			return candidate, true
		}
	}

	suffix := modulePath(name) + ".lua"
	for _, entry := range c.classpath {
		if hasPathSuffix(entry, suffix) {
			return entry, true
		}
	}
	return "", false
}

// findInShared looks in the shared library directories.
func (c *Context) findInShared(name string) (string, bool) {
	for _, dir := range c.sharedPaths {
		for _, candidate := range dirCandidates(dir, name) {
			if isFile(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// searched lists every location consulted for name, for error messages.
func (c *Context) searched(name string) []string {
	locations := dirCandidates(c.entryDir, name)
	locations = append(locations, "classpath entries ending in "+modulePath(name)+".lua")
	locations = append(locations, "host modules")
	for _, dir := range c.sharedPaths {
		locations = append(locations, dirCandidates(dir, name)...)
	}
	return locations
}

// findResource locates rel in the entry directory, then the classpath.
func (c *Context) findResource(rel string) (string, bool) {
	rel = filepath.FromSlash(rel)
	candidate := filepath.Join(c.entryDir, rel)
	if isFile(candidate) && within(c.entryDir, candidate) {
		return candidate, true
	}
	for _, entry := range c.classpath {
		if hasPathSuffix(entry, rel) {
			return entry, true
		}
	}
	return "", false
}

// hasPathSuffix reports whether path ends with suffix on a separator boundary.
func hasPathSuffix(path, suffix string) bool {
	if path == suffix {
		return true
	}
	return strings.HasSuffix(path, string(filepath.Separator)+suffix)
}

// within reports whether path is inside dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
