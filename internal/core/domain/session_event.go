package domain

import "time"

// SessionEventType names a committed change of a visitor's session.
type SessionEventType string

const (
	EventLogin          SessionEventType = "login"
	EventRegister       SessionEventType = "register"
	EventLogout         SessionEventType = "logout"
	EventVerified       SessionEventType = "verified"
	EventRejected       SessionEventType = "rejected"
	EventExpired        SessionEventType = "expired"
	EventProfileUpdated SessionEventType = "profile_updated"
)

// SessionEvent is published by the session store after each commit and
// persisted to the audit trail.
type SessionEvent struct {
	VisitorID string
	Type      SessionEventType
	UserID    int64
	Email     string
	Role      string
	Reason    string // optional
	At        time.Time
}
