package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/usecase"
)

func (h *AuthHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrAccountAlreadyExists) {
			h.respondError(w, http.StatusConflict, "account already exists")
			return
		}

		h.logger.Error().Err(err).Msg("failed to register account")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.establishSession(w, r, account)
}

func (h *AuthHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.authUsecase.Authenticate(r.Context(), usecase.AuthenticateParams{
		Email:    req.Email,
		Password: req.Password,
		SourceIP: sourceIP(r),
	})
	if err != nil {
		var locked *usecase.AccountLockedError
		switch {
		case errors.As(err, &locked):
			h.respondJSON(w, http.StatusLocked, errorResponse{
				Error:            locked.Error(),
				MinutesRemaining: locked.Minutes(),
			})
		case errors.Is(err, usecase.ErrInvalidCredentials):
			h.respondError(w, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, usecase.ErrProviderLoginRequired):
			h.respondError(w, http.StatusUnauthorized, "this account signs in with an external provider")
		default:
			h.logger.Error().Err(err).Msg("failed to authenticate")
			h.respondError(w, http.StatusInternalServerError, "something went wrong")
		}
		return
	}

	h.establishSession(w, r, account)
}

func (h *AuthHTTPHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		h.respondError(w, http.StatusServiceUnavailable, "google login is not configured")
		return
	}

	var req googleLoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	identity, err := h.google.ResolveIdentity(r.Context(), req.IDToken, req.AccessToken, req.RefreshToken)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to resolve google identity")
		h.respondError(w, http.StatusUnauthorized, "invalid google credential")
		return
	}

	account, err := h.oauthUsecase.Resolve(r.Context(), identity)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidOAuthProfile) {
			h.respondError(w, http.StatusBadRequest, "provider profile is missing required fields")
			return
		}

		h.logger.Error().Err(err).Msg("failed to resolve oauth account")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.establishSession(w, r, account)
}

func (h *AuthHTTPHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req refreshRequest
		if err := decodeOptionalBody(r, &req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		h.respondError(w, http.StatusBadRequest, "missing refresh token")
		return
	}

	pair, account, err := h.tokenUsecase.Rotate(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			h.clearAuthCookies(w)
			h.respondError(w, http.StatusUnauthorized, "refresh token is no longer valid, please sign in again")
			return
		}

		h.logger.Error().Err(err).Msg("failed to rotate refresh token")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	sessionID := r.Header.Get(HeaderSessionID)
	if sessionID != "" {
		h.sessionUsecase.Touch(r.Context(), account.ID.Hex(), sessionID)
	}

	h.setAuthCookies(w, pair)
	h.respondJSON(w, http.StatusOK, authResponse{
		AccountID:    account.ID.Hex(),
		SessionID:    sessionID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// establishSession registers a device session for the account, mints a token
// pair, and writes both cookies and the JSON response.
func (h *AuthHTTPHandler) establishSession(w http.ResponseWriter, r *http.Request, account *model.Account) {
	sessionID := r.Header.Get(HeaderSessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	session, err := h.sessionUsecase.AddOrUpdate(r.Context(), account.ID.Hex(), usecase.SessionParams{
		SessionID:  sessionID,
		DeviceID:   r.Header.Get(HeaderDeviceID),
		DeviceName: r.Header.Get(HeaderDeviceName),
		UserAgent:  r.UserAgent(),
		SourceIP:   sourceIP(r),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to register session")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	pair, err := h.tokenUsecase.IssuePair(r.Context(), account)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue token pair")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.setAuthCookies(w, pair)
	h.respondJSON(w, http.StatusOK, authResponse{
		AccountID:    account.ID.Hex(),
		SessionID:    session.SessionID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func decodeOptionalBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("no body")
	}

	return json.NewDecoder(r.Body).Decode(dst)
}
