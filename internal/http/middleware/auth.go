package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const clientClaimsKey contextKey = "mcpClientClaims"

var errMissingToken = errors.New("missing bearer token")

// BearerJWT guards the MCP transport with an HMAC-signed JWT. An empty
// secret leaves the transport open. Browser EventSource clients cannot set
// headers, so the token may also arrive as the access_token query parameter.
func BearerJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		key := []byte(secret)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseClientToken(r, key)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), clientClaimsKey, *claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseClientToken(r *http.Request, key []byte) (*jwt.RegisteredClaims, error) {
	raw := ""
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if raw == "" {
		raw = r.URL.Query().Get("access_token")
	}
	if raw == "" {
		return nil, errMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ClientClaims returns the verified token claims for the calling MCP client.
func ClientClaims(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(clientClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}
