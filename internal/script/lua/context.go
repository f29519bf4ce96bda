package lua

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dshills/plugeval/internal/script"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Context is an isolated gopher-lua state for one plugin run.
//
// gopher-lua's LState is not goroutine-safe; a Context must be used from a
// single goroutine.
type Context struct {
	L *lua.LState

	pluginID    string
	entryDir    string
	classpath   []string
	sharedPaths []string
	modules     map[string]lua.LGFunction

	stdout io.Writer
	logger *slog.Logger

	closed bool
}

// executable is a compiled chunk.
type executable struct {
	name  string
	proto *lua.FunctionProto
}

func (e *executable) Name() string { return e.name }

// install replaces print and require in the fresh state.
func (c *Context) install() {
	c.L.SetGlobal("print", c.L.NewFunction(c.print))
	c.L.SetGlobal("require", c.L.NewFunction(c.require))

	// The stock loaders must not see the process-wide LUA_PATH.
	if pkg, ok := c.L.GetGlobal("package").(*lua.LTable); ok {
		c.L.SetField(pkg, "path", lua.LString(""))
		c.L.SetField(pkg, "cpath", lua.LString(""))
	}
}

// print writes its arguments, tab separated, to the context's stdout.
func (c *Context) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, top)
	for i := 1; i <= top; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(c.stdout, strings.Join(parts, "\t"))
	return 0
}

// Compile implements script.Context.
func (c *Context) Compile(path string, src []byte) (script.Executable, error) {
	if c.closed {
		return nil, script.ErrContextClosed
	}

	chunk, err := parse.Parse(bytes.NewReader(src), path)
	if err != nil {
		ce := &script.CompileError{Path: path, Message: strings.TrimSpace(err.Error()), Err: err}
		var perr *parse.Error
		if errors.As(err, &perr) {
			ce.Line = perr.Pos.Line
			ce.Message = perr.Message
			if perr.Token != "" {
				ce.Message = fmt.Sprintf("%s near '%s'", perr.Message, perr.Token)
			}
		}
		return nil, ce
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		ce := &script.CompileError{Path: path, Message: err.Error(), Err: err}
		var lerr *lua.CompileError
		if errors.As(err, &lerr) {
			ce.Line = lerr.Line
			ce.Message = lerr.Message
		}
		return nil, ce
	}

	return &executable{name: path, proto: proto}, nil
}

// Run implements script.Context.
func (c *Context) Run(ctx context.Context, exe script.Executable, binding script.Binding) error {
	if c.closed {
		return script.ErrContextClosed
	}

	compiled, ok := exe.(*executable)
	if !ok {
		return &script.RuntimeError{Message: ErrForeignExecutable.Error(), Err: ErrForeignExecutable}
	}

	bridge := NewBridge(c.L)
	for name, value := range binding {
		c.L.SetGlobal(name, bridge.ToLuaValue(value))
	}

	if ctx != nil && ctx.Done() != nil {
		c.L.SetContext(ctx)
		defer c.L.RemoveContext()
	}

	top := c.L.GetTop()
	defer c.L.SetTop(top)

	return c.doWithRecovery(func() error {
		c.L.Push(c.L.NewFunctionFromProto(compiled.proto))
		return c.L.PCall(0, lua.MultRet, nil)
	})
}

// doWithRecovery runs fn and converts errors and panics to *script.RuntimeError.
func (c *Context) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &script.RuntimeError{Message: fmt.Sprintf("lua panic: %v", r)}
		}
	}()

	if err := fn(); err != nil {
		return toRuntimeError(err)
	}
	return nil
}

// toRuntimeError splits a gopher-lua error into message and traceback.
func toRuntimeError(err error) *script.RuntimeError {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		msg := ""
		if apiErr.Object != nil {
			msg = apiErr.Object.String()
		}
		if msg == "" && apiErr.Cause != nil {
			msg = apiErr.Cause.Error()
		}
		return &script.RuntimeError{Message: msg, Trace: apiErr.StackTrace, Err: err}
	}
	return &script.RuntimeError{Message: err.Error(), Err: err}
}

// SearchPath implements script.Context.
func (c *Context) SearchPath() []string {
	path := make([]string, 0, 1+len(c.classpath))
	path = append(path, c.entryDir)
	return append(path, c.classpath...)
}

// Close implements script.Context.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.L.Close()
	c.closed = true
	return nil
}
