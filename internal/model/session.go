package model

import (
	"time"
)

// SessionStatus represents the lifecycle status of a collab session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
)

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusPaused, SessionStatusCompleted:
		return true
	}
	return false
}

// Session represents a Live Collab session in the system.
type Session struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"ownerId"`
	Title           string        `json:"title"`
	InviteCode      string        `json:"inviteCode"`
	MaxParticipants int           `json:"maxParticipants"`
	PageCount       int           `json:"pageCount"`
	Status          SessionStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// IsCompleted returns true if the session has been completed.
// Completed sessions never admit new realtime connections.
func (s *Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

// CanTransitionTo reports whether a status change from the session's current
// status to target is allowed. Completed is terminal; active and paused are
// interchangeable and either may complete.
func (s *Session) CanTransitionTo(target SessionStatus) bool {
	if !target.Valid() || s.Status == SessionStatusCompleted {
		return false
	}
	return target != s.Status
}

// Defaults applied when the corresponding request fields are zero.
const (
	DefaultMaxParticipants = 4
	DefaultPageCount       = 1
	MinParticipants        = 2
)

// CreateSessionRequest represents a request to create a new collab session.
type CreateSessionRequest struct {
	Title           string `json:"title" binding:"required"`
	MaxParticipants int    `json:"maxParticipants"`
	PageCount       int    `json:"pageCount"`
	OwnerID         string `json:"-"`
}

// Validate validates the create session request and fills in defaults.
func (r *CreateSessionRequest) Validate() error {
	if r.Title == "" {
		return ErrTitleRequired
	}
	if r.MaxParticipants == 0 {
		r.MaxParticipants = DefaultMaxParticipants
	}
	if r.MaxParticipants < MinParticipants {
		return ErrInvalidCapacity
	}
	if r.PageCount == 0 {
		r.PageCount = DefaultPageCount
	}
	if r.PageCount < 0 {
		return ErrInvalidPageCount
	}
	return nil
}
