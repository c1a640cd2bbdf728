package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ksurct/common/internal/log"
)

// extractToken pulls a bearer token from the Authorization header.
func extractToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// authorizeToken compares tokens in constant time.
func authorizeToken(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// requireToken guards mutating endpoints. With no token configured the
// daemon fails closed unless anonymous access is explicitly enabled.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "auth")

		if s.cfg.APIToken == "" {
			if s.cfg.AuthAnonymous {
				next.ServeHTTP(w, r)
				return
			}
			logger.Error().
				Str(log.FieldEvent, "auth.fail_closed").
				Msg("KSURCT_API_TOKEN not set and KSURCT_AUTH_ANONYMOUS!=true, denying access")
			writeUnauthorized(w)
			return
		}

		reqToken := extractToken(r)
		if reqToken == "" {
			logger.Warn().Str(log.FieldEvent, "auth.missing_header").Msg("authorization header missing")
			writeUnauthorized(w)
			return
		}
		if !authorizeToken(reqToken, s.cfg.APIToken) {
			logger.Warn().Str(log.FieldEvent, "auth.invalid_token").Msg("invalid api token")
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
