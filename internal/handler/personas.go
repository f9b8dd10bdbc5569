package handler

import (
	"net/http"

	"isma/internal/httputil"
	"isma/internal/personas"
)

// PersonasHandler serves the fixed persona catalog.
type PersonasHandler struct {
	catalog *personas.Registry
}

func NewPersonasHandler(catalog *personas.Registry) *PersonasHandler {
	return &PersonasHandler{catalog: catalog}
}

// ListPersonas returns the catalog in its fixed order
// GET /api/personas
func (h *PersonasHandler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.List())
}
