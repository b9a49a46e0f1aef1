package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/porton/gate-relay/internal/audit"
	apperrors "github.com/porton/gate-relay/internal/errors"
	"github.com/porton/gate-relay/internal/util"
)

const (
	AdminCodeHeader = "X-Admin-Code"
	adminCodeQuery  = "adminCode"
)

// AdminMiddleware guards operator routes with a static admin code, compared
// against a bcrypt hash when one is configured. With neither configured the
// routes stay open.
type AdminMiddleware struct {
	code     string
	codeHash string
}

func NewAdminMiddleware(code, codeHash string) *AdminMiddleware {
	return &AdminMiddleware{code: code, codeHash: codeHash}
}

func (m *AdminMiddleware) Handler(next http.Handler) http.Handler {
	if m.code == "" && m.codeHash == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		supplied := extractAdminCode(r)
		if supplied == "" || !m.matches(supplied) {
			log.Warn().Str("path", r.URL.Path).Msg("admin middleware: rejected admin code")
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAdminAuthFailure,
				Details: map[string]interface{}{"path": r.URL.Path, "provided": supplied != ""},
			})
			writeError(w, apperrors.Unauthorized("Invalid admin code"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AdminMiddleware) matches(supplied string) bool {
	if m.codeHash != "" {
		return util.CheckPasswordHash(supplied, m.codeHash)
	}
	return util.ConstantTimeEqual(supplied, m.code)
}

// extractAdminCode reads the header, falling back to the query parameter
// that EventSource clients must use.
func extractAdminCode(r *http.Request) string {
	if code := strings.TrimSpace(r.Header.Get(AdminCodeHeader)); code != "" {
		return code
	}
	return strings.TrimSpace(r.URL.Query().Get(adminCodeQuery))
}
