package eval

// State is a plugin's position in one evaluation run.
type State int

// Plugin states.
const (
	// StateDiscovering - locating the entry script.
	StateDiscovering State = iota

	// StateResolved - exactly one entry script was found.
	StateResolved

	// StateDiscoveryFailed - no entry script, or the search failed.
	StateDiscoveryFailed

	// StateDiscoveryFatal - more than one entry script.
	StateDiscoveryFatal

	// StateDependencyResolving - reading classpath directives.
	StateDependencyResolving

	// StateLoaderReady - every dependency resolved.
	StateLoaderReady

	// StateLoadingErrorsPresent - at least one dependency problem.
	StateLoadingErrorsPresent

	// StateLoaderFailed - the isolated context could not be built.
	StateLoaderFailed

	// StateCompiling - compiling the entry script.
	StateCompiling

	// StateCompiled - the entry script compiled.
	StateCompiled

	// StateCompileFailed - the entry script did not compile.
	StateCompileFailed

	// StateRunning - the entry script is executing.
	StateRunning

	// StateSucceeded - the entry script returned normally.
	StateSucceeded

	// StateRuntimeFailed - the entry script raised an error.
	StateRuntimeFailed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateDiscovering:
		return "discovering"
	case StateResolved:
		return "resolved"
	case StateDiscoveryFailed:
		return "discovery-failed"
	case StateDiscoveryFatal:
		return "discovery-fatal"
	case StateDependencyResolving:
		return "dependency-resolving"
	case StateLoaderReady:
		return "loader-ready"
	case StateLoadingErrorsPresent:
		return "loading-errors-present"
	case StateLoaderFailed:
		return "loader-failed"
	case StateCompiling:
		return "compiling"
	case StateCompiled:
		return "compiled"
	case StateCompileFailed:
		return "compile-failed"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateRuntimeFailed:
		return "runtime-failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the plugin's processing has ended.
func (s State) IsTerminal() bool {
	switch s {
	case StateDiscoveryFailed, StateDiscoveryFatal, StateLoadingErrorsPresent,
		StateLoaderFailed, StateCompileFailed, StateSucceeded, StateRuntimeFailed:
		return true
	}
	return false
}

// IsLoadingFailure returns true for terminal states that produce loading errors.
func (s State) IsLoadingFailure() bool {
	switch s {
	case StateDiscoveryFailed, StateLoadingErrorsPresent, StateLoaderFailed, StateCompileFailed:
		return true
	}
	return false
}
