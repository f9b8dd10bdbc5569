package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"isma/internal/domain"
	"isma/internal/httputil"
	"isma/internal/service/form/logic"
	projectsvc "isma/internal/service/project"
)

// LogicHandler composes XLSForm conditions server-side so the UI never
// concatenates expression strings itself.
type LogicHandler struct {
	projects *projectsvc.Service
	logger   *slog.Logger
}

func NewLogicHandler(projects *projectsvc.Service, logger *slog.Logger) *LogicHandler {
	return &LogicHandler{projects: projects, logger: logger}
}

type logicPreviewRequest struct {
	QuestionName string `json:"questionName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
	Existing     string `json:"existing,omitempty"`
}

type logicPreviewResponse struct {
	Condition  string `json:"condition"`
	Expression string `json:"expression"`
}

// PreviewCondition composes one condition against a project question
// POST /api/projects/{id}/logic/preview
func (h *LogicHandler) PreviewCondition(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req logicPreviewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := h.projects.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	idx := project.FormData.FindQuestion(req.QuestionName)
	if idx < 0 {
		handleError(w, fmt.Errorf("%w: question %q introuvable", domain.ErrValidation, req.QuestionName))
		return
	}

	condition, err := logic.ComposeCondition(project.FormData.Survey[idx], logic.Operator(req.Operator), req.Value)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, logicPreviewResponse{
		Condition:  condition,
		Expression: logic.AppendCondition(req.Existing, condition),
	})
}
