// Package handler exposes the auth service over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rs/zerolog"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/config"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/usecase"
	authtypes "github.com/Perfect-QA/DevTinder-sub000/services/auth-service/pkg/types"
	"github.com/Perfect-QA/DevTinder-sub000/shared/provider"
)

// Request headers the auth surface understands.
const (
	HeaderSessionID  = "X-Session-ID"
	HeaderDeviceID   = "X-Device-ID"
	HeaderDeviceName = "X-Device-Name"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

type AuthHTTPHandler struct {
	authUsecase    usecase.AuthUsecase
	tokenUsecase   usecase.TokenUsecase
	sessionUsecase usecase.SessionUsecase
	oauthUsecase   usecase.OAuthUsecase
	google         *provider.GoogleOAuthProvider
	authServiceCfg *config.AuthServiceConfig
	logger         *zerolog.Logger
	validate       *validator.Validate
	trans          ut.Translator
}

func NewAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	tokenUsecase usecase.TokenUsecase,
	sessionUsecase usecase.SessionUsecase,
	oauthUsecase usecase.OAuthUsecase,
	google *provider.GoogleOAuthProvider,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) *AuthHTTPHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, trans)

	return &AuthHTTPHandler{
		authUsecase:    authUsecase,
		tokenUsecase:   tokenUsecase,
		sessionUsecase: sessionUsecase,
		oauthUsecase:   oauthUsecase,
		google:         google,
		authServiceCfg: authServiceCfg,
		logger:         logger,
		validate:       validate,
		trans:          trans,
	}
}

func (h *AuthHTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/oauth/google", h.GoogleLogin)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Use(h.TouchSession)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.ListSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
		})
	})
}

// decodeAndValidate decodes the JSON body into dst and validates it. On
// failure it writes the error response and returns false.
func (h *AuthHTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		fields := make(map[string]string)
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				fields[strings.ToLower(fieldErr.Field())] = fieldErr.Translate(h.trans)
			}
		}

		h.respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
		return false
	}

	return true
}

func (h *AuthHTTPHandler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *AuthHTTPHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Error: message})
}

func (h *AuthHTTPHandler) setAuthCookies(w http.ResponseWriter, pair *authtypes.TokenPair) {
	maxAge := int(h.authServiceCfg.Token.CookieMaxAge.Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHTTPHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// sourceIP extracts the client address, preferring the proxy-forwarded
// headers the gateway sets.
func sourceIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
