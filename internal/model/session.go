package model

import "time"

// SessionStatus is the lifecycle state of a scan session.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition permits only running -> completed and running -> failed.
func CanTransition(from, to SessionStatus) bool {
	return from == StatusRunning && to.Terminal()
}

// ScanSession is one invocation of the analyzer pipeline.
type ScanSession struct {
	SessionID string `json:"session_id"`

	// Config is the normalized snapshot taken at creation.
	Config ScanConfiguration `json:"config"`

	Status SessionStatus `json:"status"`

	// FailureReason is set when Status is failed.
	FailureReason string `json:"failure_reason,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
