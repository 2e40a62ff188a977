// Package session bridges the durable session store and the ephemeral
// realtime presence layer: creation with invite codes, admission checks,
// status transitions and teardown.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pscomixx/studio-collab/internal/model"
	"github.com/pscomixx/studio-collab/internal/repository"
)

// InviteCodeLength is the length of a session invite code.
const InviteCodeLength = 6

// inviteCodeCharset is the alphabet invite codes are drawn from. Codes are
// stored uppercase and compared case-insensitively.
const inviteCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// inviteCodeAttempts bounds collision retries during code generation.
const inviteCodeAttempts = 5

// Presence is the view of the realtime layer the lifecycle controller needs.
// Implemented by ws.Service.
type Presence interface {
	SessionUserCount(sessionID string) int
	HasUser(sessionID, userID string) bool
	CloseSession(sessionID, reason string)
}

// Config holds configuration for the session manager.
type Config struct {
	// MaxParticipantsLimit caps session capacity; it must not exceed the
	// color palette size. Zero means no extra cap beyond the minimum check.
	MaxParticipantsLimit int
}

// Manager is the session lifecycle controller.
type Manager struct {
	repo     *repository.SessionRepository
	presence Presence
	limit    int
}

// NewManager creates a new session manager.
func NewManager(repo *repository.SessionRepository, presence Presence, config Config) *Manager {
	return &Manager{
		repo:     repo,
		presence: presence,
		limit:    config.MaxParticipantsLimit,
	}
}

// Create creates a new collab session owned by the requesting user, with a
// fresh collision-checked invite code.
func (m *Manager) Create(ctx context.Context, req *model.CreateSessionRequest) (*model.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if m.limit > 0 && req.MaxParticipants > m.limit {
		return nil, model.ErrInvalidCapacity
	}

	code, err := m.generateInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &model.Session{
		ID:              uuid.New().String(),
		OwnerID:         req.OwnerID,
		Title:           req.Title,
		InviteCode:      code,
		MaxParticipants: req.MaxParticipants,
		PageCount:       req.PageCount,
		Status:          model.SessionStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return sess, nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(ctx context.Context, id string) (*model.Session, error) {
	return m.repo.GetByID(ctx, id)
}

// List retrieves all sessions owned by a user.
func (m *Manager) List(ctx context.Context, ownerID string) ([]*model.Session, error) {
	return m.repo.List(ctx, ownerID)
}

// ResolveInviteCode resolves an invite code, case-insensitively, to the
// session it belongs to. Codes pointing only at completed sessions resolve
// with ErrSessionClosed so callers can distinguish "gone" from "unknown".
func (m *Manager) ResolveInviteCode(ctx context.Context, code string) (*model.Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != InviteCodeLength {
		return nil, model.ErrSessionNotFound
	}

	sess, err := m.repo.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted() {
		return nil, model.ErrSessionClosed
	}
	return sess, nil
}

// AdmitCheck decides whether a user may open a realtime connection to a
// session: the session must exist, must not be completed, and must have room
// for the user. A user who is already connected is always admitted, since a
// fresh connection supersedes the old one rather than occupying a new seat.
func (m *Manager) AdmitCheck(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	sess, err := m.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted() {
		return nil, model.ErrSessionClosed
	}
	if !m.presence.HasUser(sessionID, userID) &&
		m.presence.SessionUserCount(sessionID) >= sess.MaxParticipants {
		return nil, model.ErrSessionFull
	}
	return sess, nil
}

// UpdateStatus applies an owner-initiated status transition. Completing a
// session tears down its realtime state: every connected participant
// receives a terminal error and is evicted.
func (m *Manager) UpdateStatus(ctx context.Context, id, callerID string, status model.SessionStatus) (*model.Session, error) {
	sess, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != callerID {
		return nil, model.ErrForbidden
	}
	if !sess.CanTransitionTo(status) {
		return nil, model.ErrInvalidTransition
	}

	if err := m.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	sess.Status = status
	sess.UpdatedAt = time.Now()

	if status == model.SessionStatusCompleted {
		m.presence.CloseSession(id, "session has ended")
	}

	return sess, nil
}

// Delete removes a session and tears down any realtime state it still has.
func (m *Manager) Delete(ctx context.Context, id, callerID string) error {
	sess, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sess.OwnerID != callerID {
		return model.ErrForbidden
	}

	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}

	m.presence.CloseSession(id, "session was deleted")
	return nil
}

// generateInviteCode draws random codes until one is free among non-completed
// sessions, bounded by inviteCodeAttempts.
func (m *Manager) generateInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := randomInviteCode()
		if err != nil {
			return "", err
		}
		inUse, err := m.repo.InviteCodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", model.ErrInviteCodeExhausted
}

func randomInviteCode() (string, error) {
	buf := make([]byte, InviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	code := make([]byte, InviteCodeLength)
	for i, b := range buf {
		code[i] = inviteCodeCharset[int(b)%len(inviteCodeCharset)]
	}
	return string(code), nil
}
