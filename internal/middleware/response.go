package middleware

import (
	"net/http"

	"github.com/porton/gate-relay/internal/httputil"
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
