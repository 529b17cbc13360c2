package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neurahub/dispatch/internal/adapter/memcatalog"
	"github.com/neurahub/dispatch/internal/domain/automation"
	"github.com/neurahub/dispatch/internal/port/webhook"
)

// spyExecutor records calls and returns canned responses.
type spyExecutor struct {
	mu       sync.Mutex
	provider automation.Provider
	calls    int
	lastURL  string
	lastBody map[string]any
	data     map[string]any
	err      error
	panicMsg string
}

func (s *spyExecutor) Provider() automation.Provider { return s.provider }

func (s *spyExecutor) Execute(_ context.Context, url string, body map[string]any) (map[string]any, error) {
	s.mu.Lock()
	s.calls++
	s.lastURL = url
	s.lastBody = body
	s.mu.Unlock()

	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.data, s.err
}

func (s *spyExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testCatalog() *memcatalog.Catalog {
	return memcatalog.New([]automation.Agent{
		{
			ID:            "x1",
			DepartmentKey: "ceo",
			DepartmentID:  "a-ceo-01",
			Provider:      automation.ProviderMake,
			Trigger:       automation.TriggerAuto,
			Active:        true,
		},
		{
			ID:            "x2",
			DepartmentKey: "ceo",
			DepartmentID:  "a-ceo-01",
			Provider:      automation.ProviderMake,
			WebhookURL:    "https://hook.example/abc",
			Trigger:       automation.TriggerManual,
			Active:        true,
		},
		{
			ID:            "x3",
			DepartmentKey: "cto",
			Provider:      automation.ProviderCustom,
			WebhookURL:    "https://hook.example/custom",
			Trigger:       automation.TriggerManual,
			Active:        true,
		},
		{
			ID:            "x4",
			DepartmentKey: "cto",
			Provider:      automation.ProviderN8n,
			Trigger:       automation.TriggerManual,
			Active:        false,
		},
	})
}

func newTestService(executors ...webhook.Executor) (*AutomationService, *spyExecutor) {
	var spy *spyExecutor
	if len(executors) == 0 {
		spy = &spyExecutor{provider: automation.ProviderMake, data: map[string]any{"status": "ok"}}
		executors = []webhook.Executor{spy}
	} else if s, ok := executors[0].(*spyExecutor); ok {
		spy = s
	}
	svc := NewAutomationService(testCatalog(), webhook.NewRegistry(executors...), AutomationOptions{}, nil)
	return svc, spy
}

func TestExecuteByAgentIDNotFound(t *testing.T) {
	svc, spy := newTestService()

	_, err := svc.ExecuteByAgentID(context.Background(), "does-not-exist", automation.ExecutionPayload{})
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
	if spy.callCount() != 0 {
		t.Errorf("executor must not be called for unknown agents, got %d calls", spy.callCount())
	}
}

func TestExecuteByAgentIDInactive(t *testing.T) {
	svc, spy := newTestService()

	_, err := svc.ExecuteByAgentID(context.Background(), "x4", automation.ExecutionPayload{})
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound for inactive agent, got %v", err)
	}
	if spy.callCount() != 0 {
		t.Errorf("executor must not be called for inactive agents, got %d calls", spy.callCount())
	}
}

func TestExecuteByAgentIDMock(t *testing.T) {
	svc, spy := newTestService()

	payload := automation.ExecutionPayload{Input: map[string]any{"a": 1}}
	result, err := svc.ExecuteByAgentID(context.Background(), "x1", payload)
	if err != nil {
		t.Fatalf("mock path must not fail, got %v", err)
	}

	if result.Mode != automation.ModeMock {
		t.Errorf("expected mode mock, got %s", result.Mode)
	}
	if result.Status != automation.StatusCompleted {
		t.Errorf("expected status completed, got %s", result.Status)
	}
	if result.AgentID != "x1" || result.DepartmentKey != "ceo" || result.DepartmentID != "a-ceo-01" {
		t.Errorf("agent identity not copied: %+v", result)
	}

	input, ok := result.Data["input"].(map[string]any)
	if !ok || input["a"] != 1 {
		t.Errorf("expected input echoed in data, got %v", result.Data)
	}
	execID, _ := result.Data["execution_id"].(string)
	if !strings.HasPrefix(execID, "mock-") {
		t.Errorf("expected generated mock execution id, got %q", execID)
	}

	if spy.callCount() != 0 {
		t.Errorf("mock path must not invoke any executor, got %d calls", spy.callCount())
	}
}

func TestExecuteByAgentIDRealSuccess(t *testing.T) {
	svc, spy := newTestService()

	result, err := svc.ExecuteByAgentID(context.Background(), "x2", automation.ExecutionPayload{
		Input:         map[string]any{"q": "status"},
		CorrelationID: "c-9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Mode != automation.ModeReal {
		t.Errorf("expected mode real, got %s", result.Mode)
	}
	if result.Status != automation.StatusCompleted {
		t.Errorf("expected status completed, got %s", result.Status)
	}
	if result.DurationMs < 0 {
		t.Errorf("expected non-negative duration, got %d", result.DurationMs)
	}
	if result.Data["status"] != "ok" {
		t.Errorf("expected adapter data passed through, got %v", result.Data)
	}

	if spy.callCount() != 1 {
		t.Fatalf("expected exactly 1 executor call, got %d", spy.callCount())
	}
	if spy.lastURL != "https://hook.example/abc" {
		t.Errorf("expected agent webhook url, got %q", spy.lastURL)
	}
	if spy.lastBody["agent_id"] != "x2" {
		t.Errorf("expected agent_id in posted body, got %v", spy.lastBody)
	}
	if spy.lastBody["correlation_id"] != "c-9" {
		t.Errorf("expected correlation_id in posted body, got %v", spy.lastBody)
	}
}

func TestExecuteByAgentIDRealFailure(t *testing.T) {
	spy := &spyExecutor{provider: automation.ProviderMake, err: errors.New("scenario offline")}
	svc, _ := newTestService(spy)

	result, err := svc.ExecuteByAgentID(context.Background(), "x2", automation.ExecutionPayload{})
	if err != nil {
		t.Fatalf("executor failure must come back as a result, got error %v", err)
	}

	if result.Mode != automation.ModeReal {
		t.Errorf("expected mode real, got %s", result.Mode)
	}
	if result.Status != automation.StatusFailed {
		t.Errorf("expected status failed, got %s", result.Status)
	}
	if !strings.Contains(result.Error, "scenario offline") {
		t.Errorf("expected adapter error preserved, got %q", result.Error)
	}
}

func TestExecuteByAgentIDUnsupportedProvider(t *testing.T) {
	svc, spy := newTestService()

	// x3 has a webhook but its provider has no registered executor.
	_, err := svc.ExecuteByAgentID(context.Background(), "x3", automation.ExecutionPayload{})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
	if spy.callCount() != 0 {
		t.Errorf("executor must not be called for unsupported providers, got %d calls", spy.callCount())
	}
}

func TestExecuteByAgentIDPanickingExecutor(t *testing.T) {
	spy := &spyExecutor{provider: automation.ProviderMake, panicMsg: "adapter bug"}
	svc, _ := newTestService(spy)

	result, err := svc.ExecuteByAgentID(context.Background(), "x2", automation.ExecutionPayload{})
	if err != nil {
		t.Fatalf("a panicking executor must come back as a failed result, got error %v", err)
	}
	if result.Status != automation.StatusFailed {
		t.Errorf("expected status failed, got %s", result.Status)
	}
	if !strings.Contains(result.Error, "adapter bug") {
		t.Errorf("expected panic message preserved, got %q", result.Error)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	spy := &spyExecutor{provider: automation.ProviderMake, err: errors.New("down")}
	svc := NewAutomationService(testCatalog(), webhook.NewRegistry(spy), AutomationOptions{
		BreakerMaxFailures: 2,
		BreakerTimeout:     time.Minute,
	}, nil)

	for i := 0; i < 2; i++ {
		result, err := svc.ExecuteByAgentID(context.Background(), "x2", automation.ExecutionPayload{})
		if err != nil || result.Status != automation.StatusFailed {
			t.Fatalf("call %d: expected failed result, got %+v err %v", i, result, err)
		}
	}

	// Circuit is open: the executor is not called again.
	result, err := svc.ExecuteByAgentID(context.Background(), "x2", automation.ExecutionPayload{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != automation.StatusFailed {
		t.Errorf("expected failed result while circuit is open, got %s", result.Status)
	}
	if !strings.Contains(result.Error, "circuit breaker") {
		t.Errorf("expected circuit breaker error, got %q", result.Error)
	}
	if spy.callCount() != 2 {
		t.Errorf("expected 2 executor calls before the circuit opened, got %d", spy.callCount())
	}
}

func TestExecuteForDepartment(t *testing.T) {
	svc, spy := newTestService()

	result, err := svc.ExecuteForDepartment(context.Background(), "ceo", automation.ExecutionPayload{
		Input: map[string]any{"source_message": "prepare the board agenda"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// x1 is the ceo department's auto-trigger agent; it has no webhook.
	if result.AgentID != "x1" {
		t.Errorf("expected auto-trigger agent x1, got %s", result.AgentID)
	}
	if result.Mode != automation.ModeMock {
		t.Errorf("expected mock mode, got %s", result.Mode)
	}
	if spy.callCount() != 0 {
		t.Errorf("expected no executor calls, got %d", spy.callCount())
	}
}

func TestExecuteForDepartmentNoAutoAgent(t *testing.T) {
	svc, _ := newTestService()

	// cto's only active agent is manual-trigger.
	_, err := svc.ExecuteForDepartment(context.Background(), "cto", automation.ExecutionPayload{})
	if !errors.Is(err, ErrNoAgentForDepartment) {
		t.Fatalf("expected ErrNoAgentForDepartment, got %v", err)
	}
}

func TestListAgentsByDepartment(t *testing.T) {
	svc, _ := newTestService()

	agents := svc.ListAgentsByDepartment("ceo")
	if len(agents) != 2 {
		t.Fatalf("expected 2 ceo agents, got %d", len(agents))
	}
}
