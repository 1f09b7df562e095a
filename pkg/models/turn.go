package models

import "strings"

// Defaults applied to an invocation when the caller omits identity fields.
// These match what browser clients send on their first turn.
const (
	DefaultSessionID   = "default-session"
	DefaultActorID     = "anonymous"
	DefaultImageFormat = "jpeg"
)

// InvocationRequest is one inbound user turn.
type InvocationRequest struct {
	Prompt      string `json:"prompt"`
	SessionID   string `json:"session_id"`
	ActorID     string `json:"actor_id"`
	ImageBase64 string `json:"image_base64,omitempty"`
	ImageFormat string `json:"image_format,omitempty"`
}

// ApplyDefaults fills missing identity and image format fields.
func (r *InvocationRequest) ApplyDefaults() {
	if strings.TrimSpace(r.SessionID) == "" {
		r.SessionID = DefaultSessionID
	}
	if strings.TrimSpace(r.ActorID) == "" {
		r.ActorID = DefaultActorID
	}
	if r.ImageFormat == "" {
		r.ImageFormat = DefaultImageFormat
	}
}

// Key returns the session key for this turn.
func (r *InvocationRequest) Key() SessionKey {
	return SessionKey{SessionID: r.SessionID, ActorID: r.ActorID}
}

// SessionKey identifies one conversation's cache identity. SessionID scopes
// a single conversation (one browser tab); ActorID scopes a durable user
// identity whose long-term memory persists across sessions. Keys compare by
// exact equality only.
type SessionKey struct {
	SessionID string
	ActorID   string
}

// String renders the key for logging.
func (k SessionKey) String() string {
	return k.SessionID + "/" + k.ActorID
}
