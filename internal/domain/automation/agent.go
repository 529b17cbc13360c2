// Package automation defines the automation agent domain entities.
package automation

// Provider identifies the external automation platform an agent targets.
type Provider string

const (
	ProviderMake   Provider = "make"
	ProviderN8n    Provider = "n8n"
	ProviderCustom Provider = "custom"
)

// Trigger describes how an agent is meant to be started.
// Advisory only; the dispatcher does not schedule anything itself.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerAuto      Trigger = "auto"
	TriggerScheduled Trigger = "scheduled"
)

// Agent is a configured reference to an external automation workflow.
// Agents are loaded once at startup and never mutated afterwards.
type Agent struct {
	ID            string   `json:"id" yaml:"id"`
	DepartmentKey string   `json:"department_key" yaml:"department_key"`
	DepartmentID  string   `json:"department_id" yaml:"department_id"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Provider      Provider `json:"provider" yaml:"provider"`
	WebhookURL    string   `json:"webhook_url,omitempty" yaml:"webhook_url"`
	WebhookEnv    string   `json:"-" yaml:"webhook_env"`
	Trigger       Trigger  `json:"trigger" yaml:"trigger"`
	Active        bool     `json:"active" yaml:"active"`
}

// HasWebhook reports whether the agent has an external execution target.
// An active agent without a webhook URL is a valid state: it runs in mock mode.
func (a Agent) HasWebhook() bool { return a.WebhookURL != "" }
