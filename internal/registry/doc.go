// Package registry supplies the ordered set of plugins an evaluation run
// visits.
//
// A Registry lists plugin descriptors (an id and the plugin's root
// directory) in the order the engine must process them. Three sources are
// provided:
//
//   - Static, an in-memory list for tests and embedding hosts.
//   - DirRegistry, which treats every sub-directory of its roots as a plugin.
//   - FileRegistry, which reads an ordered YAML mapping of id to path.
package registry
