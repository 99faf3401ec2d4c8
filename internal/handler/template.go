package handler

import (
	"net/http"

	"github.com/msomdec/mtaabiz/internal/service"
)

// TemplateHandler serves the caller's message templates and the shared
// library.
type TemplateHandler struct {
	templates *service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// GET /api/messages
func (h *TemplateHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	templates, err := h.templates.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTOs(templates))
}

// HandleLibrary returns the read-only shared templates.
// GET /api/messages/library
func (h *TemplateHandler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.ListShared(r.Context())
	if err != nil {
		writeServiceError(w, r, "list shared templates", err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTOs(templates))
}

// POST /api/messages
func (h *TemplateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var req templateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, "decode template", err)
		return
	}

	t, err := h.templates.Create(r.Context(), user.ID, req.toInput())
	if err != nil {
		writeServiceError(w, r, "create template", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateDTO(t))
}

// GET /api/messages/{id}
func (h *TemplateHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, "parse template id", err)
		return
	}

	t, err := h.templates.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, "get template", err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTO(t))
}

// PUT|PATCH /api/messages/{id}
func (h *TemplateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, "parse template id", err)
		return
	}
	var req templateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, "decode template", err)
		return
	}

	t, err := h.templates.Update(r.Context(), user.ID, id, req.toInput(), r.Method == http.MethodPatch)
	if err != nil {
		writeServiceError(w, r, "update template", err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTO(t))
}

// DELETE /api/messages/{id}
func (h *TemplateHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, "parse template id", err)
		return
	}

	if err := h.templates.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, "delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
