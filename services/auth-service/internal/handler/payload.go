package handler

import (
	"time"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
)

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	IDToken      string `json:"id_token" validate:"required"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type authResponse struct {
	AccountID    string `json:"account_id"`
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	SessionID    string `json:"session_id"`
	DeviceID     string `json:"device_id"`
	DeviceLabel  string `json:"device_label"`
	DeviceClass  string `json:"device_class"`
	SourceIP     string `json:"source_ip,omitempty"`
	LastActivity string `json:"last_activity"`
	CreatedAt    string `json:"created_at"`
}

type errorResponse struct {
	Error            string            `json:"error"`
	Fields           map[string]string `json:"fields,omitempty"`
	MinutesRemaining int               `json:"minutes_remaining,omitempty"`
}

func toSessionResponse(s model.Session) sessionResponse {
	return sessionResponse{
		SessionID:    s.SessionID,
		DeviceID:     s.DeviceID,
		DeviceLabel:  s.DeviceLabel,
		DeviceClass:  s.DeviceClass,
		SourceIP:     s.SourceIP,
		LastActivity: s.LastActivity.UTC().Format(time.RFC3339),
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
	}
}
