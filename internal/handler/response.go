package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/porton/gate-relay/internal/errors"
	"github.com/porton/gate-relay/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// decodeJSON reads the request body into dst. Any syntax or type error comes
// back as INVALID_FORMAT so clients always see "Invalid data".
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.InvalidFormat("Request body too large").WithCause(err)
		}
		return apperrors.InvalidFormat("Invalid data").WithCause(err)
	}
	return nil
}
