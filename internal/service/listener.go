package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/neurahub/dispatch/internal/domain/automation"
	"github.com/neurahub/dispatch/internal/domain/event"
	"github.com/neurahub/dispatch/internal/eventbus"
	"github.com/neurahub/dispatch/internal/logger"
)

// Listener bridges the event bus to the automation service for the
// chat-triggered event type. It is stateless per delivery; the one-time
// subscription in Start is its only setup.
type Listener struct {
	bus *eventbus.Bus
	svc *AutomationService
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewListener creates a Listener that runs at most maxConcurrent dispatches
// at a time.
func NewListener(bus *eventbus.Bus, svc *AutomationService, maxConcurrent int64) *Listener {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Listener{
		bus: bus,
		svc: svc,
		sem: semaphore.NewWeighted(maxConcurrent),
	}
}

// Start subscribes to the chat message event. Call once at process startup.
func (l *Listener) Start() error {
	return l.bus.On(event.TypeChatMessageReceived, l.handleChatMessage)
}

// Wait blocks until all in-flight dispatches have finished.
func (l *Listener) Wait() { l.wg.Wait() }

// handleChatMessage decodes the event and dispatches asynchronously. Nothing
// here may propagate back to the publisher: malformed payloads are dropped
// with a log entry and dispatch runs on its own goroutine, detached from the
// publish call's cancellation.
func (l *Listener) handleChatMessage(ctx context.Context, eventType string, data []byte) {
	var p event.ChatMessageReceived
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Error("invalid event payload dropped", "event_type", eventType, "error", err)
		return
	}

	slog.Debug("processing chat message event",
		"department", p.DepartmentKey,
		"correlation_id", p.CorrelationID,
	)

	// The publish context typically belongs to an HTTP request that has
	// already been answered; keep its values but not its cancellation.
	dispatchCtx := context.WithoutCancel(ctx)
	if p.CorrelationID != "" {
		dispatchCtx = logger.WithCorrelationID(dispatchCtx, p.CorrelationID)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("unhandled panic in automation listener", "panic", r)
			}
		}()

		if err := l.sem.Acquire(dispatchCtx, 1); err != nil {
			slog.Error("dispatch slot acquire failed", "error", err)
			return
		}
		defer l.sem.Release(1)

		l.dispatch(dispatchCtx, p)
	}()
}

func (l *Listener) dispatch(ctx context.Context, p event.ChatMessageReceived) {
	payload := automation.ExecutionPayload{
		Input: map[string]any{
			"source_message": p.Message,
			"department_id":  p.DepartmentID,
		},
		UserID:        p.UserID,
		CorrelationID: p.CorrelationID,
	}

	result, err := l.svc.ExecuteForDepartment(ctx, p.DepartmentKey, payload)
	switch {
	case errors.Is(err, ErrNoAgentForDepartment):
		slog.Debug("no auto-trigger agent for chat message", "department", p.DepartmentKey)
	case err != nil:
		slog.Error("agent execution failed asynchronously",
			"department", p.DepartmentKey,
			"correlation_id", p.CorrelationID,
			"error", err,
		)
	case result.Status == automation.StatusFailed:
		slog.Error("agent execution failed asynchronously",
			"agent_id", result.AgentID,
			"mode", result.Mode,
			"correlation_id", p.CorrelationID,
			"error", result.Error,
		)
	default:
		slog.Info("agent executed",
			"agent_id", result.AgentID,
			"mode", result.Mode,
			"duration_ms", result.DurationMs,
			"correlation_id", p.CorrelationID,
		)
	}
}
