package websocket

// Action constants for WebSocket messages
const (
	// Health
	ActionHealthCheck = "health.check"

	// Execution actions
	ActionExecutionSubmit = "execution.submit"
	ActionExecutionStop   = "execution.stop"
	ActionSessionTeardown = "session.teardown"

	// Subscription actions
	ActionSessionSubscribe   = "session.subscribe"
	ActionSessionUnsubscribe = "session.unsubscribe"

	// Notification actions (server -> client)
	ActionExecutionOutput       = "execution.output"
	ActionExecutionCompleted    = "execution.completed"
	ActionExecutionStateChanged = "execution.state_changed"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeConflict      = "CONFLICT"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
