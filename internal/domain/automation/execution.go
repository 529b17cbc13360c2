package automation

// Mode distinguishes synthetic executions from real webhook calls.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeReal Mode = "real"
)

// Status is the terminal state of an execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ExecutionPayload is the caller-supplied input for a dispatch.
// UserID and CorrelationID are tracing/attribution fields only; they are
// never used for authorization decisions.
type ExecutionPayload struct {
	Input         map[string]any `json:"input"`
	UserID        string         `json:"user_id,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// ExecutionResult is the structured outcome of a single dispatch.
// DurationMs is populated only for real executions.
type ExecutionResult struct {
	AgentID       string         `json:"agent_id"`
	DepartmentKey string         `json:"department_key"`
	DepartmentID  string         `json:"department_id"`
	Mode          Mode           `json:"mode"`
	Provider      Provider       `json:"provider"`
	Status        Status         `json:"status"`
	DurationMs    int64          `json:"duration_ms,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	Error         string         `json:"error,omitempty"`
}
