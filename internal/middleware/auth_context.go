package middleware

import (
	"context"
	"net/http"
	"strings"

	"immunization-scheduler/internal/platform/logger"
	"immunization-scheduler/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	HeaderDebugUserID     = "X-Debug-User-ID"
	HeaderDebugUserName   = "X-Debug-User-Name"
	HeaderDebugFacilityID = "X-Debug-Facility-ID"
)

// AuthContext resuelve el personal que opera cada request:
// - verifier != nil y Bearer token => Verify() y setea claims.
// - verifier == nil => modo dev: headers X-Debug-*.
// Sin claims el request sigue igual; los handlers de escritura devuelven 401.
func AuthContext(verifier auth.AuthVerifier, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				uid := strings.TrimSpace(r.Header.Get(HeaderDebugUserID))
				if uid == "" {
					next.ServeHTTP(w, r)
					return
				}
				claims := auth.Claims{
					UserID:     uid,
					Name:       strings.TrimSpace(r.Header.Get(HeaderDebugUserName)),
					FacilityID: strings.TrimSpace(r.Header.Get(HeaderDebugFacilityID)),
				}
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Warn("token verification failed", map[string]any{
					"path":  r.URL.Path,
					"error": err,
				})
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims adjunta claims al contexto (usado también por tests).
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
