package persistence

import "time"

// SessionStatus values as stored.
const (
	SessionStatusActive     = "active"
	SessionStatusExpired    = "expired"
	SessionStatusTerminated = "terminated"
)

// Session is one roster entry of the persisted session slice.
type Session struct {
	ID           string
	UserID       string
	UserName     string
	UserRole     string
	StartTime    time.Time
	LastActivity time.Time
	IPAddress    string
	DeviceInfo   string
	Status       string
}

// SessionSlice is the session state that survives a restart: the configured
// inactivity timeout and the roster in creation order.
type SessionSlice struct {
	Timeout  time.Duration
	Sessions []Session
}
