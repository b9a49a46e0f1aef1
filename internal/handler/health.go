package handler

import (
	"net/http"
	"time"

	"github.com/porton/gate-relay/internal/clock"
)

type HealthHandler struct {
	clock    clock.Clock
	timezone string
}

func NewHealthHandler(clk clock.Clock, timezone string) *HealthHandler {
	return &HealthHandler{clock: clk, timezone: timezone}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.clock.Now().Format(time.RFC3339),
		"timezone":  h.timezone,
	})
}
