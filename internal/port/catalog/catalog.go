// Package catalog defines the agent catalog port (interface).
package catalog

import "github.com/neurahub/dispatch/internal/domain/automation"

// Catalog answers lookups against the static, pre-loaded agent set.
// Implementations must be safe for unsynchronized concurrent reads.
type Catalog interface {
	// FindByID resolves an active agent by id. Inactive or unknown ids
	// report not-found; deactivation is a config-time switch and inactive
	// agents are never exposed to execution paths.
	FindByID(id string) (automation.Agent, bool)

	// ListByDepartment returns all active agents for a department key.
	// Callers must not assume any ordering.
	ListByDepartment(departmentKey string) []automation.Agent
}
