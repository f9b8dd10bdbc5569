package handler

import (
	"log/slog"
	"net/http"

	"isma/internal/domain/models/form"
	"isma/internal/httputil"
	"isma/internal/service/agent/conversation"
)

// ChatHandler runs agent turns over HTTP.
type ChatHandler struct {
	orchestrator *conversation.Orchestrator
	logger       *slog.Logger
}

func NewChatHandler(orchestrator *conversation.Orchestrator, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, logger: logger}
}

type chatRequest struct {
	Message         string                 `json:"message"`
	Roles           []string               `json:"roles,omitempty"`
	CurrentQuestion string                 `json:"currentQuestion,omitempty"`
	FormValues      map[string]interface{} `json:"formValues,omitempty"`
	GenerationMode  bool                   `json:"generationMode,omitempty"`
}

type chatResponse struct {
	Messages []string      `json:"messages"`
	Project  *form.Project `json:"project"`
}

// RunTurn executes one chat turn against the project
// POST /api/projects/{id}/chat
func (h *ChatHandler) RunTurn(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orchestrator.Run(r.Context(), conversation.TurnInput{
		ProjectID:       r.PathValue("id"),
		UserID:          userID,
		Message:         req.Message,
		Roles:           req.Roles,
		CurrentQuestion: req.CurrentQuestion,
		FormValues:      req.FormValues,
		GenerationMode:  req.GenerationMode,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chatResponse{
		Messages: result.Messages,
		Project:  result.Project,
	})
}
