// Package memcatalog implements the catalog port as an in-memory, read-only
// agent registry loaded once at startup.
package memcatalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/neurahub/dispatch/internal/domain/automation"
)

// Catalog holds the static agent set. Immutable after New, so concurrent
// reads need no synchronization.
type Catalog struct {
	byID         map[string]automation.Agent
	byDepartment map[string][]automation.Agent
	all          []automation.Agent
}

// New builds a Catalog from the given agents and logs advisory warnings for
// active non-custom agents without a webhook URL. Such agents are valid and
// run in mock mode; the process keeps starting.
func New(agents []automation.Agent) *Catalog {
	c := &Catalog{
		byID:         make(map[string]automation.Agent, len(agents)),
		byDepartment: make(map[string][]automation.Agent),
		all:          agents,
	}

	for _, a := range agents {
		if !a.Active {
			continue
		}
		c.byID[a.ID] = a
		c.byDepartment[a.DepartmentKey] = append(c.byDepartment[a.DepartmentKey], a)

		if !a.HasWebhook() && a.Provider != automation.ProviderCustom {
			slog.Warn("agent has no webhook url, executions will run in mock mode",
				"agent_id", a.ID,
				"department", a.DepartmentKey,
				"provider", a.Provider,
			)
		}
	}

	return c
}

// FindByID resolves an active agent by id.
func (c *Catalog) FindByID(id string) (automation.Agent, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// ListByDepartment returns all active agents for a department key.
func (c *Catalog) ListByDepartment(departmentKey string) []automation.Agent {
	return c.byDepartment[departmentKey]
}

// Size returns the number of loaded agents, active or not.
func (c *Catalog) Size() int { return len(c.all) }

// agentsFile is the YAML shape of the agents catalog file.
type agentsFile struct {
	Agents []automation.Agent `yaml:"agents"`
}

// LoadFile reads the agents YAML file and builds a Catalog.
// A webhook_env entry names an environment variable holding the webhook URL;
// it is resolved at load time and wins over an inline webhook_url.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from validated config
	if err != nil {
		return nil, fmt.Errorf("read agents file %s: %w", path, err)
	}

	var f agentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse agents file %s: %w", path, err)
	}

	for i := range f.Agents {
		a := &f.Agents[i]
		if a.WebhookEnv != "" {
			if v := os.Getenv(a.WebhookEnv); v != "" {
				a.WebhookURL = v
			}
		}
		if err := validateAgent(*a); err != nil {
			return nil, fmt.Errorf("agents file %s: %w", path, err)
		}
	}

	return New(f.Agents), nil
}

// validateAgent checks the fields the dispatcher cannot work without.
func validateAgent(a automation.Agent) error {
	if a.ID == "" {
		return fmt.Errorf("agent with empty id")
	}
	if a.DepartmentKey == "" {
		return fmt.Errorf("agent %s: department_key is required", a.ID)
	}
	switch a.Provider {
	case automation.ProviderMake, automation.ProviderN8n, automation.ProviderCustom:
	default:
		return fmt.Errorf("agent %s: unknown provider %q", a.ID, a.Provider)
	}
	switch a.Trigger {
	case automation.TriggerManual, automation.TriggerAuto, automation.TriggerScheduled, "":
	default:
		return fmt.Errorf("agent %s: unknown trigger %q", a.ID, a.Trigger)
	}
	return nil
}
