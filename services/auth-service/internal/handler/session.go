package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/usecase"
)

func (h *AuthHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := AccessClaimsFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	sessionID := r.Header.Get(HeaderSessionID)
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "missing session id header")
		return
	}

	if err := h.sessionUsecase.Remove(r.Context(), claims.AccountID, sessionID); err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			h.respondError(w, http.StatusNotFound, "session not found")
			return
		}

		h.logger.Error().Err(err).Msg("failed to remove session")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHTTPHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := AccessClaimsFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	if err := h.sessionUsecase.RemoveAll(r.Context(), claims.AccountID); err != nil {
		h.logger.Error().Err(err).Msg("failed to remove sessions")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	if err := h.tokenUsecase.Revoke(r.Context(), claims.AccountID); err != nil {
		h.logger.Error().Err(err).Msg("failed to revoke refresh token")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHTTPHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := AccessClaimsFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	sessions, err := h.sessionUsecase.ListActive(r.Context(), claims.AccountID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list sessions")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	responses := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, toSessionResponse(s))
	}

	h.respondJSON(w, http.StatusOK, responses)
}

func (h *AuthHTTPHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := AccessClaimsFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	if err := h.sessionUsecase.Remove(r.Context(), claims.AccountID, sessionID); err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			h.respondError(w, http.StatusNotFound, "session not found")
			return
		}

		h.logger.Error().Err(err).Msg("failed to revoke session")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
