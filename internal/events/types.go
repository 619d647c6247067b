// Package events provides event types and subject helpers for the CodeCell
// event system.
package events

// Event types for executions. Per-session subjects append the session key,
// so one run publishes on e.g. "execution.output.s1".
const (
	ExecutionOutput       = "execution.output"        // Incremental output line
	ExecutionCompleted    = "execution.completed"     // Terminal result
	ExecutionStateChanged = "execution.state_changed" // Tracked-process presence flip
)

// Event types for projects
const (
	ProjectSaved   = "project.saved"
	ProjectDeleted = "project.deleted"
)

// BuildExecutionOutputSubject creates an output subject for a specific session
func BuildExecutionOutputSubject(sessionID string) string {
	return ExecutionOutput + "." + sessionID
}

// BuildExecutionOutputWildcardSubject creates a wildcard subscription for all output events
func BuildExecutionOutputWildcardSubject() string {
	return ExecutionOutput + ".*"
}

// BuildExecutionCompletedSubject creates a completion subject for a specific session
func BuildExecutionCompletedSubject(sessionID string) string {
	return ExecutionCompleted + "." + sessionID
}

// BuildExecutionCompletedWildcardSubject creates a wildcard subscription for all completion events
func BuildExecutionCompletedWildcardSubject() string {
	return ExecutionCompleted + ".*"
}

// BuildExecutionStateChangedSubject creates a state-changed subject for a specific session
func BuildExecutionStateChangedSubject(sessionID string) string {
	return ExecutionStateChanged + "." + sessionID
}

// BuildExecutionStateChangedWildcardSubject creates a wildcard subscription for all state-changed events
func BuildExecutionStateChangedWildcardSubject() string {
	return ExecutionStateChanged + ".*"
}
