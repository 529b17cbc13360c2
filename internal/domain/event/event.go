// Package event defines the closed contract of system events carried by the bus.
// Producers and consumers agree on the payload shape per event type without
// importing each other.
package event

// Type identifies the kind of system event.
type Type string

const (
	TypeChatMessageReceived Type = "chat.message.received"
	TypeAutomationTriggered Type = "automation.triggered"
	TypeLeadQualified       Type = "lead.qualified"
)

// Payload is implemented by every event payload in the contract.
// The returned Type doubles as the transport subject.
type Payload interface {
	EventType() Type
}

// ChatMessageReceived fires once per inbound chat message, after the HTTP
// response has already been produced.
type ChatMessageReceived struct {
	DepartmentKey string `json:"department_key"`
	Message       string `json:"message"`
	DepartmentID  string `json:"department_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (ChatMessageReceived) EventType() Type { return TypeChatMessageReceived }

// AutomationTriggered reports that an agent dispatch was initiated.
type AutomationTriggered struct {
	AgentID        string         `json:"agent_id"`
	TriggerContext map[string]any `json:"trigger_context,omitempty"`
}

func (AutomationTriggered) EventType() Type { return TypeAutomationTriggered }

// LeadQualified reports a CRM lead crossing the qualification threshold.
type LeadQualified struct {
	Source string         `json:"source"`
	Data   map[string]any `json:"data,omitempty"`
	Score  float64        `json:"score"`
}

func (LeadQualified) EventType() Type { return TypeLeadQualified }
