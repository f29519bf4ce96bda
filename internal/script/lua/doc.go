// Package lua implements the script backend on top of gopher-lua.
//
// Every context is a fresh *lua.LState with the standard libraries opened.
// The global require is replaced by a child-first resolver:
//
//  1. the plugin's own search path: the entry directory (name.lua and
//     name/init.lua, dots mapping to directories), then the resolved
//     classpath entries whose path ends in name.lua;
//  2. the host's shared environment: Go modules registered on the Backend
//     (the built-in host module among them), then the configured shared
//     library directories.
//
// A plugin may therefore shadow a shared module by shipping a file of the
// same name. Loaded modules are cached per context in package.loaded and
// disappear with the context.
//
// # Host module
//
//	local host = require("host")
//	host.plugin_id               -- id of the running plugin
//	host.log("info", "message")  -- forwarded to the engine logger
//	host.resource("data.txt")    -- file contents from the search path
//	host.search_path()           -- entry dir followed by classpath entries
//
// # Bindings
//
// Binding values are converted with the Bridge. Pointer values are
// converted once per run, so two globals bound to the same pointer are the
// same Lua table (rawequal(event, actionEvent) is true).
package lua
