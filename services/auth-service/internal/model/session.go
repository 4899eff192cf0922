package model

import "time"

// Session represents one device's ongoing authenticated presence on an
// account. Sessions are embedded in the account document and exclusively
// owned by it; they are created at login, touched on requests carrying their
// id, and removed by logout, revocation, or the background reaper.
type Session struct {
	SessionID    string    `bson:"session_id"`
	DeviceID     string    `bson:"device_id"`
	DeviceLabel  string    `bson:"device_label"`
	DeviceClass  string    `bson:"device_class"`
	UserAgent    string    `bson:"user_agent,omitempty"`
	SourceIP     string    `bson:"source_ip,omitempty"`
	LastActivity time.Time `bson:"last_activity"`
	CreatedAt    time.Time `bson:"created_at"`
	Active       bool      `bson:"active"`
}
