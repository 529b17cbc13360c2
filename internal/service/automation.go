// Package service contains application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/neurahub/dispatch/internal/adapter/otel"
	"github.com/neurahub/dispatch/internal/domain/automation"
	"github.com/neurahub/dispatch/internal/port/catalog"
	"github.com/neurahub/dispatch/internal/port/webhook"
	"github.com/neurahub/dispatch/internal/resilience"
)

var (
	// ErrAgentNotFound is returned when an agent id does not resolve to an
	// active agent.
	ErrAgentNotFound = errors.New("automation agent not found")

	// ErrUnsupportedProvider is returned when no executor is registered for
	// the agent's provider.
	ErrUnsupportedProvider = errors.New("automation provider not supported")

	// ErrNoAgentForDepartment is returned when a department has no active
	// auto-trigger agent to run for a chat message.
	ErrNoAgentForDepartment = errors.New("no auto-trigger agent for department")
)

// AutomationService resolves agents and executes them, in mock mode when no
// webhook is configured or against the provider webhook otherwise. All
// executor failures are converted into structured results; an executor can
// never abort a dispatch with a panic.
type AutomationService struct {
	catalog   catalog.Catalog
	executors webhook.Registry
	breakers  map[automation.Provider]*resilience.Breaker
	timeout   time.Duration
	metrics   *otel.Metrics
}

// AutomationOptions tunes real webhook execution.
type AutomationOptions struct {
	Timeout            time.Duration // per-call deadline, default 30s
	BreakerMaxFailures int           // consecutive failures before a provider circuit opens
	BreakerTimeout     time.Duration // how long an open circuit rejects calls
}

// NewAutomationService creates an AutomationService. One circuit breaker is
// built per registered provider. metrics may be nil.
func NewAutomationService(cat catalog.Catalog, executors webhook.Registry, opts AutomationOptions, metrics *otel.Metrics) *AutomationService {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BreakerMaxFailures <= 0 {
		opts.BreakerMaxFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	breakers := make(map[automation.Provider]*resilience.Breaker, len(executors))
	for provider := range executors {
		breakers[provider] = resilience.NewBreaker(opts.BreakerMaxFailures, opts.BreakerTimeout)
	}

	return &AutomationService{
		catalog:   cat,
		executors: executors,
		breakers:  breakers,
		timeout:   opts.Timeout,
		metrics:   metrics,
	}
}

// ListAgentsByDepartment returns the active agents for a department key.
func (s *AutomationService) ListAgentsByDepartment(departmentKey string) []automation.Agent {
	return s.catalog.ListByDepartment(departmentKey)
}

// ExecuteByAgentID resolves the agent and runs it. Unknown or inactive ids
// return ErrAgentNotFound without side effects. Agents without a webhook URL
// run in mock mode and always complete; agents with a webhook run against
// their provider executor, and executor failures come back as a failed
// result, not an error.
func (s *AutomationService) ExecuteByAgentID(ctx context.Context, agentID string, payload automation.ExecutionPayload) (automation.ExecutionResult, error) {
	agent, ok := s.catalog.FindByID(agentID)
	if !ok {
		return automation.ExecutionResult{}, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}

	slog.Info("executing agent",
		"agent_id", agent.ID,
		"department", agent.DepartmentKey,
		"provider", agent.Provider,
		"correlation_id", payload.CorrelationID,
	)

	if !agent.HasWebhook() {
		return s.executeMock(ctx, agent, payload), nil
	}
	return s.executeReal(ctx, agent, payload)
}

// ExecuteForDepartment runs the department's auto-trigger agent for an
// inbound chat message. Departments without one report ErrNoAgentForDepartment.
func (s *AutomationService) ExecuteForDepartment(ctx context.Context, departmentKey string, payload automation.ExecutionPayload) (automation.ExecutionResult, error) {
	for _, agent := range s.catalog.ListByDepartment(departmentKey) {
		if agent.Trigger == automation.TriggerAuto {
			return s.ExecuteByAgentID(ctx, agent.ID, payload)
		}
	}
	return automation.ExecutionResult{}, fmt.Errorf("%w: %s", ErrNoAgentForDepartment, departmentKey)
}

// executeMock synthesizes a deterministic success without any network call.
// This path never fails.
func (s *AutomationService) executeMock(ctx context.Context, agent automation.Agent, payload automation.ExecutionPayload) automation.ExecutionResult {
	slog.Warn("webhook not configured, running in mock mode", "agent_id", agent.ID)

	if s.metrics != nil {
		s.metrics.DispatchesMock.Add(ctx, 1)
	}

	return automation.ExecutionResult{
		AgentID:       agent.ID,
		DepartmentKey: agent.DepartmentKey,
		DepartmentID:  agent.DepartmentID,
		Mode:          automation.ModeMock,
		Provider:      agent.Provider,
		Status:        automation.StatusCompleted,
		Data: map[string]any{
			"execution_id": "mock-" + uuid.NewString(),
			"platform":     string(agent.Provider),
			"input":        payload.Input,
		},
	}
}

// executeReal dispatches to the provider executor under the per-provider
// circuit breaker and the configured deadline.
func (s *AutomationService) executeReal(ctx context.Context, agent automation.Agent, payload automation.ExecutionPayload) (automation.ExecutionResult, error) {
	executor, ok := s.executors.For(agent.Provider)
	if !ok {
		return automation.ExecutionResult{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, agent.Provider)
	}

	body := map[string]any{
		"agent_id":       agent.ID,
		"input":          payload.Input,
		"user_id":        payload.UserID,
		"correlation_id": payload.CorrelationID,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	var data map[string]any
	err := s.breakers[agent.Provider].Execute(func() error {
		var callErr error
		data, callErr = s.callExecutor(callCtx, executor, agent.WebhookURL, body)
		return callErr
	})
	elapsed := time.Since(start)

	result := automation.ExecutionResult{
		AgentID:       agent.ID,
		DepartmentKey: agent.DepartmentKey,
		DepartmentID:  agent.DepartmentID,
		Mode:          automation.ModeReal,
		Provider:      agent.Provider,
		DurationMs:    elapsed.Milliseconds(),
	}

	if err != nil {
		result.Status = automation.StatusFailed
		result.Error = err.Error()
		slog.Error("agent execution failed", "agent_id", agent.ID, "error", err)
		if s.metrics != nil {
			s.metrics.DispatchesFailed.Add(ctx, 1)
		}
		return result, nil
	}

	result.Status = automation.StatusCompleted
	result.Data = data
	if s.metrics != nil {
		s.metrics.DispatchesCompleted.Add(ctx, 1)
		s.metrics.DispatchDuration.Record(ctx, elapsed.Seconds())
	}
	return result, nil
}

// callExecutor runs the executor, converting a panic into an error so a
// misbehaving adapter cannot abort the dispatch.
func (s *AutomationService) callExecutor(ctx context.Context, executor webhook.Executor, url string, body map[string]any) (data map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webhook executor panicked: %v", r)
		}
	}()
	return executor.Execute(ctx, url, body)
}
