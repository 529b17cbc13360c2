package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neurahub/dispatch/internal/domain/automation"
	"github.com/neurahub/dispatch/internal/domain/event"
	"github.com/neurahub/dispatch/internal/eventbus"
	"github.com/neurahub/dispatch/internal/logger"
	"github.com/neurahub/dispatch/internal/service"
)

// Handlers bundles the services exposed over HTTP.
type Handlers struct {
	Automation *service.AutomationService
	Bus        *eventbus.Bus
}

// MountRoutes registers all API routes on the router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat/messages", h.postChatMessage)
		r.Route("/automation", func(r chi.Router) {
			r.Get("/agents", h.listAgents)
			r.Post("/agents/{agentID}/execute", h.executeAgent)
		})
	})
}

type chatMessageRequest struct {
	DepartmentKey string `json:"department_key"`
	Message       string `json:"message"`
	DepartmentID  string `json:"department_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type chatMessageResponse struct {
	Accepted      bool   `json:"accepted"`
	CorrelationID string `json:"correlation_id"`
}

// postChatMessage accepts an inbound chat message and fires the event that
// drives automation. The response is produced before any automation runs;
// the caller never observes the dispatch outcome.
func (h *Handlers) postChatMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[chatMessageRequest](w, r)
	if !ok {
		return
	}
	if req.DepartmentKey == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "department_key and message are required")
		return
	}

	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}
	ctx := logger.WithCorrelationID(r.Context(), req.CorrelationID)

	h.Bus.Emit(ctx, event.ChatMessageReceived{
		DepartmentKey: req.DepartmentKey,
		Message:       req.Message,
		DepartmentID:  req.DepartmentID,
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
	})

	writeJSON(w, http.StatusAccepted, chatMessageResponse{
		Accepted:      true,
		CorrelationID: req.CorrelationID,
	})
}

// listAgents returns the active agents for a department key.
func (h *Handlers) listAgents(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	if department == "" {
		writeError(w, http.StatusBadRequest, "department query parameter is required")
		return
	}

	agents := h.Automation.ListAgentsByDepartment(department)
	if agents == nil {
		agents = []automation.Agent{}
	}
	writeJSON(w, http.StatusOK, agents)
}

type executeAgentRequest struct {
	Input         map[string]any `json:"input"`
	UserID        string         `json:"user_id,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// executeAgent runs a single agent synchronously and returns the structured
// execution result, including failed real executions.
func (h *Handlers) executeAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	req, ok := readJSON[executeAgentRequest](w, r)
	if !ok {
		return
	}

	result, err := h.Automation.ExecuteByAgentID(r.Context(), agentID, automation.ExecutionPayload{
		Input:         req.Input,
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
	})
	switch {
	case errors.Is(err, service.ErrAgentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnsupportedProvider):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, result)
	}
}
