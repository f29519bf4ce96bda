package lua

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/plugeval/internal/logging"
)

// HostModuleName is the name scripts require to reach the host.
const HostModuleName = "host"

// openHostModule builds the host module table for this context.
func (c *Context) openHostModule(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"log":         c.hostLog,
		"resource":    c.hostResource,
		"search_path": c.hostSearchPath,
	})
	L.SetField(mod, "plugin_id", lua.LString(c.pluginID))
	L.Push(mod)
	return 1
}

// hostLog implements host.log(level, msg...). Table arguments become
// attributes: a record table adds one attribute per key, a list adds a
// "values" attribute.
func (c *Context) hostLog(L *lua.LState) int {
	level := logging.ParseLevel(L.CheckString(1))
	top := L.GetTop()
	parts := make([]string, 0, top-1)
	var attrs []any
	bridge := NewBridge(L)
	for i := 2; i <= top; i++ {
		tbl, ok := L.Get(i).(*lua.LTable)
		if !ok {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
			continue
		}
		switch v := bridge.ToGoValue(tbl).(type) {
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				attrs = append(attrs, slog.Any(k, v[k]))
			}
		default:
			attrs = append(attrs, slog.Any("values", v))
		}
	}
	c.logger.Log(context.Background(), level, strings.Join(parts, " "), attrs...)
	return 0
}

// hostResource implements host.resource(rel) -> contents | nil, err.
func (c *Context) hostResource(L *lua.LState) int {
	rel := L.CheckString(1)
	path, ok := c.findResource(rel)
	if !ok {
		L.Push(lua.LNil)
		L.Push(lua.LString("resource not found: " + rel))
		return 2
	}
	data, err := os.ReadFile(path)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(data))
	return 1
}

// hostSearchPath implements host.search_path() -> {paths...}.
func (c *Context) hostSearchPath(L *lua.LState) int {
	t := L.NewTable()
	for i, p := range c.SearchPath() {
		t.RawSetInt(i+1, lua.LString(p))
	}
	L.Push(t)
	return 1
}
