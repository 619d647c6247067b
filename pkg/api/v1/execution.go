// Package v1 defines the public API types exchanged over HTTP and WebSocket.
package v1

// ExecuteRequest submits a snippet of source code for execution.
type ExecuteRequest struct {
	Code      string `json:"code" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	Language  string `json:"language" binding:"required"`
}

// ExecutionResult is the terminal outcome of one execution request.
// ExitCode is -1 when the process was killed or no code is reportable.
type ExecutionResult struct {
	SessionID  string `json:"sessionId"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exitCode"`
	DurationMs int64  `json:"durationMs"`
}

// OutputEvent is one incremental output line, terminator included as produced.
type OutputEvent struct {
	SessionID string `json:"sessionId"`
	Line      string `json:"line"`
	Stream    string `json:"stream"` // "stdout" or "stderr"
}

// StateChange signals a flip in a session's tracked-process presence.
type StateChange struct {
	SessionID string `json:"sessionId"`
	IsRunning bool   `json:"isRunning"`
}

// StopResponse reports whether a live process was found and killed.
type StopResponse struct {
	SessionID string `json:"sessionId"`
	Stopped   bool   `json:"stopped"`
}

// RuntimeStatus reports availability of one language toolchain.
type RuntimeStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Available   bool   `json:"available"`
	InstallHint string `json:"installHint,omitempty"`
}
