package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Account represents an authenticated principal. An account always carries a
// password hash, even when it was created through an external identity
// provider (a random one is generated in that case), so the invariant
// "password hash present or at least one external identity" holds for every
// document in the collection.
type Account struct {
	ID                    bson.ObjectID               `bson:"_id,omitempty"`
	Email                 string                      `bson:"email"`
	EmailVerified         bool                        `bson:"email_verified"`
	PasswordHash          string                      `bson:"password_hash,omitempty"`
	PasswordlessProvider  bool                        `bson:"passwordless_provider"`
	Role                  string                      `bson:"role"`
	Permissions           []string                    `bson:"permissions,omitempty"`
	IsAdmin               bool                        `bson:"is_admin"`
	FailedLoginAttempts   int                         `bson:"failed_login_attempts"`
	LockedUntil           *time.Time                  `bson:"locked_until,omitempty"`
	LoginCount            int64                       `bson:"login_count"`
	LastLogin             *time.Time                  `bson:"last_login,omitempty"`
	LastLoginIP           string                      `bson:"last_login_ip,omitempty"`
	LinkedProviders       []string                    `bson:"linked_providers,omitempty"`
	ExternalIdentities    map[string]ExternalIdentity `bson:"external_identities,omitempty"`
	RefreshToken          string                      `bson:"refresh_token,omitempty"`
	RefreshTokenExpiresAt *time.Time                  `bson:"refresh_token_expires_at,omitempty"`
	Sessions              []Session                   `bson:"sessions,omitempty"`
	CreatedAt             time.Time                   `bson:"created_at"`
	UpdatedAt             time.Time                   `bson:"updated_at"`
}

// ExternalIdentity stores the link between an account and one external
// provider, keyed in Account.ExternalIdentities by provider name.
type ExternalIdentity struct {
	ExternalID   string    `bson:"external_id"`
	Email        string    `bson:"email,omitempty"`
	AccessToken  string    `bson:"access_token,omitempty"`
	RefreshToken string    `bson:"refresh_token,omitempty"`
	LinkedAt     time.Time `bson:"linked_at"`
}

// IsLocked reports whether the account is locked out at the given instant.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// LockoutRemaining returns how much of the lockout is left, or zero when the
// account is not locked.
func (a *Account) LockoutRemaining(now time.Time) time.Duration {
	if !a.IsLocked(now) {
		return 0
	}

	return a.LockedUntil.Sub(now)
}

// HasLinkedProvider reports whether the provider is already linked.
func (a *Account) HasLinkedProvider(provider string) bool {
	for _, p := range a.LinkedProviders {
		if p == provider {
			return true
		}
	}

	return false
}

// SessionByID returns the session with the given id, if present.
func (a *Account) SessionByID(sessionID string) (*Session, bool) {
	for i := range a.Sessions {
		if a.Sessions[i].SessionID == sessionID {
			return &a.Sessions[i], true
		}
	}

	return nil, false
}

// HasDevice reports whether any session belongs to the given device.
func (a *Account) HasDevice(deviceID string) bool {
	for i := range a.Sessions {
		if a.Sessions[i].DeviceID == deviceID {
			return true
		}
	}

	return false
}

// ActiveSessions returns the sessions that are active and whose last activity
// falls within the inactivity window ending at now.
func (a *Account) ActiveSessions(now time.Time, window time.Duration) []Session {
	cutoff := now.Add(-window)

	var active []Session
	for _, s := range a.Sessions {
		if s.Active && s.LastActivity.After(cutoff) {
			active = append(active, s)
		}
	}

	return active
}
