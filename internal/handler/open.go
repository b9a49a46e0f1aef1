package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/porton/gate-relay/internal/audit"
	"github.com/porton/gate-relay/internal/httputil"
	"github.com/porton/gate-relay/internal/service"
)

type openRequest struct {
	PIN string `json:"pin"`
}

// OpenHandler exposes the PIN-gated open action and the operator webhook test.
type OpenHandler struct {
	access *service.AccessService
}

func NewOpenHandler(access *service.AccessService) *OpenHandler {
	return &OpenHandler{access: access}
}

func (h *OpenHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.access.Open(audit.WithRequest(r.Context(), r), req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Info().Str("username", result.Username).Msg("gate opened")
	httputil.WriteOK(w)
}

// TestWebhook fires the actuator without a PIN.
func (h *OpenHandler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.access.TestActuator(audit.WithRequest(r.Context(), r)); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteOK(w)
}
