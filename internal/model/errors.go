package model

import "errors"

var (
	// ErrTitleRequired is returned when a session creation request is missing the title.
	ErrTitleRequired = errors.New("title is required")

	// ErrInvalidCapacity is returned when maxParticipants is below the minimum
	// or above what the color palette can serve.
	ErrInvalidCapacity = errors.New("invalid participant capacity")

	// ErrInvalidPageCount is returned when a session is created with a negative page count.
	ErrInvalidPageCount = errors.New("invalid page count")

	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when joining a session that has been completed.
	ErrSessionClosed = errors.New("session is closed")

	// ErrSessionFull is returned when a session already holds its maximum
	// number of distinct participants.
	ErrSessionFull = errors.New("session is full")

	// ErrCapacityExceeded is returned when the color palette is exhausted.
	// The admission check should prevent this; it is defended against anyway.
	ErrCapacityExceeded = errors.New("participant capacity exceeded")

	// ErrInvalidTransition is returned for a disallowed session status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when a caller is not the session owner.
	ErrForbidden = errors.New("forbidden")

	// ErrInviteCodeExhausted is returned when a unique invite code could not
	// be generated after several attempts.
	ErrInviteCodeExhausted = errors.New("could not generate a unique invite code")
)
