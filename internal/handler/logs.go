package handler

import (
	"net/http"

	"github.com/porton/gate-relay/internal/model"
	"github.com/porton/gate-relay/internal/service"
)

type LogHandler struct {
	logs         *service.LogService
	defaultLimit int
}

func NewLogHandler(logs *service.LogService, defaultLimit int) *LogHandler {
	return &LogHandler{logs: logs, defaultLimit: defaultLimit}
}

// List returns {"entries": [...]} newest first.
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r, h.defaultLimit)

	entries, err := h.logs.ListRecent(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.AccessLogEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
