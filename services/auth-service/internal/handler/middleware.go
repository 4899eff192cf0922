package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/usecase"
	authtypes "github.com/Perfect-QA/DevTinder-sub000/services/auth-service/pkg/types"
)

type contextKey struct{}

var accessClaimsKey = contextKey{}

// AccessClaimsFromContext returns the claims the Authenticate middleware
// stored for the request.
func AccessClaimsFromContext(ctx context.Context) (*authtypes.AccessClaims, bool) {
	claims, ok := ctx.Value(accessClaimsKey).(*authtypes.AccessClaims)
	return claims, ok
}

// Authenticate requires a valid access token, taken from the Authorization
// bearer header or the access-token cookie. Expired and malformed tokens
// both yield 401, with distinct messages for client handling.
func (h *AuthHTTPHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			h.respondError(w, http.StatusUnauthorized, "missing access token")
			return
		}

		claims, err := h.tokenUsecase.ValidateAccessToken(tokenStr)
		if err != nil {
			if errors.Is(err, usecase.ErrAccessTokenExpired) {
				h.respondError(w, http.StatusUnauthorized, "access token expired, refresh your session")
				return
			}

			h.respondError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), accessClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TouchSession refreshes the session named by the session-id header, when
// present. The touch never fails the request it rides on.
func (h *AuthHTTPHandler) TouchSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionID := r.Header.Get(HeaderSessionID); sessionID != "" {
			if claims, ok := AccessClaimsFromContext(r.Context()); ok {
				h.sessionUsecase.Touch(r.Context(), claims.AccountID, sessionID)
			}
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}
