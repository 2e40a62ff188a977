package ws

import "time"

// Service bundles the hub manager and connection handler and exposes the
// lifecycle surface the rest of the system needs: presence queries for
// admission checks and forced teardown when a session completes.
type Service struct {
	manager *HubManager
	handler *Handler
}

// Config holds configuration for the realtime service.
type Config struct {
	// Palette is the fixed participant color palette; its length bounds
	// effective session capacity.
	Palette []string

	// JoinGrace is how long a connection may remain without a valid join.
	// Zero means the handler default.
	JoinGrace time.Duration

	// JournalDir enables per-session activity journals when non-empty.
	JournalDir string
}

// NewService creates the realtime service. Wire the admission checker with
// SetAdmitter before serving connections.
func NewService(cfg Config) *Service {
	manager := NewHubManager(cfg.Palette)
	if cfg.JournalDir != "" {
		manager.SetJournalDir(cfg.JournalDir)
	}
	handler := NewHandler(manager, cfg.JoinGrace)

	return &Service{
		manager: manager,
		handler: handler,
	}
}

// SetAdmitter wires the admission checker into the connection handler.
func (s *Service) SetAdmitter(a Admitter) {
	s.handler.SetAdmitter(a)
}

// Handler returns the WebSocket connection handler.
func (s *Service) Handler() *Handler {
	return s.handler
}

// HubManager returns the hub manager.
func (s *Service) HubManager() *HubManager {
	return s.manager
}

// SessionUserCount returns the number of distinct users connected to a session.
func (s *Service) SessionUserCount(sessionID string) int {
	hub := s.manager.Get(sessionID)
	if hub == nil {
		return 0
	}
	return hub.Count()
}

// HasUser reports whether the user is currently connected to the session.
func (s *Service) HasUser(sessionID, userID string) bool {
	hub := s.manager.Get(sessionID)
	if hub == nil {
		return false
	}
	return hub.HasUser(userID)
}

// SessionIsEmpty reports whether the session has no connected participants.
func (s *Service) SessionIsEmpty(sessionID string) bool {
	hub := s.manager.Get(sessionID)
	return hub == nil || hub.IsEmpty()
}

// Participants returns the session's current roster in join order.
func (s *Service) Participants(sessionID string) []ParticipantInfo {
	hub := s.manager.Get(sessionID)
	if hub == nil {
		return nil
	}
	return hub.Participants()
}

// CloseSession evicts every connection of a session after sending each a
// terminal error. This is the only path by which the realtime core closes
// sockets unilaterally; the lifecycle controller invokes it when a session
// is completed or deleted.
func (s *Service) CloseSession(sessionID, reason string) {
	s.manager.Remove(sessionID, reason)
}

// Close tears down all sessions' realtime state.
func (s *Service) Close() {
	s.manager.Close()
}
