// Package eval discovers, resolves and runs script plugins and aggregates
// their failures.
//
// For every plugin supplied by a registry.Registry, in registry order, the
// Engine:
//
//  1. locates the single entry script under the plugin root,
//  2. resolves the classpath directives declared in the entry script,
//  3. builds an isolated script.Context from the entry directory and the
//     resolved entries,
//  4. compiles the entry script, then
//  5. runs it with the triggering Event bound under two names.
//
// Failures before step 5 are loading errors; a failure during step 5 is an
// evaluation failure. Both are collected in a per-run Aggregator and never
// stop the remaining plugins. A plugin with more than one entry script is
// fatal for that plugin and is reported separately from both aggregates.
//
// Run does not display anything. Emit hands a Result to a report.Reporter.
package eval
