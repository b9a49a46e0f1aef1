package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/porton/gate-relay/internal/audit"
	"github.com/porton/gate-relay/internal/httputil"
	"github.com/porton/gate-relay/internal/model"
	"github.com/porton/gate-relay/internal/service"
)

// CodeHandler serves the operator CRUD surface for access codes.
type CodeHandler struct {
	codes *service.CodeService
}

func NewCodeHandler(codes *service.CodeService) *CodeHandler {
	return &CodeHandler{codes: codes}
}

func (h *CodeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{pin}", h.Update)
	r.Delete("/{pin}", h.Delete)
	return r
}

func (h *CodeHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if codes == nil {
		codes = []model.AccessCode{}
	}
	writeJSON(w, http.StatusOK, codes)
}

func (h *CodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rec model.CodeRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, err)
		return
	}

	code := rec.Normalize()
	params := service.CreateCodeParams{
		PIN:       code.PIN,
		Username:  code.Username,
		Days:      code.Days,
		StartTime: code.StartTime,
		EndTime:   code.EndTime,
	}

	if _, err := h.codes.Create(audit.WithRequest(r.Context(), r), params); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteOK(w)
}

// Update applies a partial change. A pin in the body is ignored; the path
// parameter selects the code.
func (h *CodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var rec model.CodeRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, err)
		return
	}

	patch := rec.Patch()
	params := service.UpdateCodeParams{
		Username:  patch.Username,
		Days:      patch.Days,
		StartTime: patch.StartTime,
		EndTime:   patch.EndTime,
	}

	if _, err := h.codes.Update(audit.WithRequest(r.Context(), r), chi.URLParam(r, "pin"), params); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteOK(w)
}

func (h *CodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.codes.Delete(audit.WithRequest(r.Context(), r), chi.URLParam(r, "pin")); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteOK(w)
}
