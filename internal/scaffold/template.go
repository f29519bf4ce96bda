package scaffold

// ScriptTemplate is the initial text of a new plugin script. It must not
// contain a live classpath directive, so a fresh plugin loads without
// dependencies.
const ScriptTemplate = `-- Plugin entry script.
--
-- To add modules from elsewhere, write a comment line with the word
-- classpath, a colon and a path relative to this file, e.g. for ./lib:
--   --  classpath: lib   (remove the extra space after the dashes)

local host = require("host")

host.log("info", "plugin " .. host.plugin_id .. " triggered by " .. event.trigger)
`
