package ws

import (
	"encoding/json"
	"errors"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/pscomixx/studio-collab/internal/buffer"
	"github.com/pscomixx/studio-collab/internal/journal"
	"github.com/pscomixx/studio-collab/internal/model"
)

// DefaultTool is the editing tool attributed to a participant until their
// first tool_change.
const DefaultTool = "select"

// chatHistorySize bounds the chat backlog replayed to late joiners.
const chatHistorySize = 50

// errHubReleased is returned by Join when the hub was discarded between
// lookup and join; callers fetch a fresh hub and retry.
var errHubReleased = errors.New("hub released")

// Participant is one user's live membership in a session. It exists only in
// process memory for the life of the connection.
type Participant struct {
	UserID   string
	UserName string
	Color    string
	Tool     string
	Cursor   *Cursor
	JoinedAt time.Time

	// Delivery reference only. The connection handler owns the client.
	client *Client
}

// Info returns the wire representation of the participant.
func (p *Participant) Info() ParticipantInfo {
	return ParticipantInfo{
		UserID:   p.UserID,
		UserName: p.UserName,
		Color:    p.Color,
		Tool:     p.Tool,
		Cursor:   p.Cursor,
	}
}

// Hub is the presence registry and broadcast router for one session. All
// membership state is guarded by a single per-session mutex; hubs of
// different sessions never contend. The lock is only ever held across
// in-memory mutation and non-blocking enqueues, never across a socket write.
type Hub struct {
	sessionID       string
	title           string
	pageCount       int
	maxParticipants int
	palette         []string

	mu           sync.Mutex
	released     bool
	participants map[string]*Participant
	order        []string
	chatSeq      uint64

	// Recent chat envelopes, replayed to each joiner after the joined
	// payload so late arrivals have conversational context.
	history *buffer.Ring[[]byte]

	// Optional activity journal. Nil when journaling is disabled.
	journal *journal.Journal
}

// NewHub creates a hub for a session. The session record is read once at
// creation; the realtime core never mutates it.
func NewHub(sess *model.Session, palette []string) *Hub {
	return &Hub{
		sessionID:       sess.ID,
		title:           sess.Title,
		pageCount:       sess.PageCount,
		maxParticipants: sess.MaxParticipants,
		palette:         palette,
		participants:    make(map[string]*Participant),
		history:         buffer.NewRing[[]byte](chatHistorySize),
	}
}

// SessionID returns the session ID for this hub.
func (h *Hub) SessionID() string {
	return h.sessionID
}

// Join admits a connection as a participant. If the user already has a live
// participant entry the old connection is superseded: it receives a terminal
// error and is closed, and the new connection takes over the entry, keeping
// its color and roster position. Otherwise the lowest-indexed unused palette
// color is assigned.
//
// On success the joined payload (color, session metadata, roster) is queued
// to the new connection and user_joined is queued to every other participant,
// atomically with the registry update.
func (h *Hub) Join(userID, userName string, client *Client) (*Participant, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil, errHubReleased
	}

	p := &Participant{
		UserID:   userID,
		UserName: userName,
		Tool:     DefaultTool,
		JoinedAt: time.Now(),
		client:   client,
	}

	if prev, ok := h.participants[userID]; ok {
		// Last connection wins. The superseded connection is notified and
		// closed; its own cleanup is a no-op because the registry entry no
		// longer references it.
		prev.client.SendMessage(newErrorMessage("connection superseded by a newer one"))
		prev.client.Close()
		p.Color = prev.Color
	} else {
		if len(h.participants) >= h.maxParticipants {
			return nil, model.ErrSessionFull
		}
		color, ok := h.nextColorLocked()
		if !ok {
			return nil, model.ErrCapacityExceeded
		}
		p.Color = color
		h.order = append(h.order, userID)
	}
	h.participants[userID] = p

	client.SendMessage(&Message{
		Type:         MessageTypeJoined,
		SessionID:    h.sessionID,
		Color:        p.Color,
		Title:        h.title,
		PageCount:    h.pageCount,
		Participants: h.rosterLocked(),
	})
	for _, data := range h.history.Snapshot() {
		client.Send(data)
	}

	h.broadcastLocked(client, &Message{
		Type:     MessageTypeUserJoined,
		UserID:   p.UserID,
		UserName: p.UserName,
		Color:    p.Color,
	})

	h.journalLocked("join", p.UserID, p.UserName)
	return p, nil
}

// journalLocked records an activity event if journaling is enabled. Journal
// failures never disturb the session.
func (h *Hub) journalLocked(kind, userID, detail string) {
	if h.journal == nil {
		return
	}
	if err := h.journal.Record(kind, userID, detail); err != nil {
		log.Printf("failed to journal %s event for session %s: %v", kind, h.sessionID, err)
	}
}

// Leave removes a participant and frees its color, announcing user_left to
// the remaining participants. It is idempotent and guarded by connection
// identity: a superseded connection's cleanup does not evict the connection
// that replaced it. Returns true if the participant was removed.
func (h *Hub) Leave(userID string, client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.participants[userID]
	if !ok || p.client != client {
		return false
	}

	delete(h.participants, userID)
	for i, id := range h.order {
		if id == userID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}

	h.broadcastLocked(nil, &Message{
		Type:   MessageTypeUserLeft,
		UserID: userID,
	})

	h.journalLocked("leave", userID, "")
	return true
}

// UpdateCursor records a participant's cursor position and queues cursor_update
// to every other participant. Latest-wins: a backed-up recipient only sees the
// newest position per sender.
func (h *Hub) UpdateCursor(client *Client, cursor *Cursor) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.participants[client.userID]
	if !ok || p.client != client {
		return
	}
	p.Cursor = cursor

	h.queuePresenceLocked(client, &Message{
		Type:     MessageTypeCursorUpdate,
		UserID:   p.UserID,
		UserName: p.UserName,
		Color:    p.Color,
		Cursor:   cursor,
	})
}

// UpdateTool records a participant's active tool and queues tool_update to
// every other participant. Same latest-wins semantics as cursors.
func (h *Hub) UpdateTool(client *Client, tool string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.participants[client.userID]
	if !ok || p.client != client {
		return
	}
	p.Tool = tool

	h.queuePresenceLocked(client, &Message{
		Type:   MessageTypeToolUpdate,
		UserID: p.UserID,
		Tool:   tool,
	})
}

// BroadcastChat stamps a chat message with the session's next sequence number
// and a server timestamp, then delivers it to every participant including the
// sender. Chat is the one channel where the sender must see their own message
// land.
func (h *Hub) BroadcastChat(client *Client, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.participants[client.userID]
	if !ok || p.client != client {
		return
	}

	h.chatSeq++
	data := h.broadcastLocked(nil, &Message{
		Type:      MessageTypeChat,
		UserID:    p.UserID,
		UserName:  p.UserName,
		Message:   text,
		Seq:       h.chatSeq,
		Timestamp: time.Now().UnixMilli(),
	})
	if data != nil {
		h.history.Append(data)
	}
	// Message text stays out of the journal; only the activity is recorded.
	h.journalLocked("chat", p.UserID, "")
}

// CloseAll evicts every participant, sending each a terminal error before
// closing its connection, and marks the hub released. This is the session
// teardown path driven by the lifecycle controller.
func (h *Hub) CloseAll(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := newErrorMessage(reason)
	for _, p := range h.participants {
		p.client.SendMessage(msg)
		p.client.Close()
	}
	h.participants = make(map[string]*Participant)
	h.order = nil
	h.history.Clear()
	h.released = true

	h.journalLocked("end", "", reason)
	h.closeJournalLocked()
}

func (h *Hub) closeJournalLocked() {
	if h.journal == nil {
		return
	}
	if err := h.journal.Close(); err != nil {
		log.Printf("failed to close journal for session %s: %v", h.sessionID, err)
	}
	h.journal = nil
}

// Participants returns a roster snapshot in stable join order.
func (h *Hub) Participants() []ParticipantInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rosterLocked()
}

// Count returns the number of connected participants.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.participants)
}

// IsEmpty reports whether the hub has no participants.
func (h *Hub) IsEmpty() bool {
	return h.Count() == 0
}

// HasUser reports whether the user has a live participant entry.
func (h *Hub) HasUser(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.participants[userID]
	return ok
}

func (h *Hub) rosterLocked() []ParticipantInfo {
	roster := make([]ParticipantInfo, 0, len(h.order))
	for _, id := range h.order {
		if p, ok := h.participants[id]; ok {
			roster = append(roster, p.Info())
		}
	}
	return roster
}

// nextColorLocked returns the lowest-indexed palette color not held by a
// current participant.
func (h *Hub) nextColorLocked() (string, bool) {
	used := make(map[string]bool, len(h.participants))
	for _, p := range h.participants {
		used[p.Color] = true
	}
	for _, color := range h.palette {
		if !used[color] {
			return color, true
		}
	}
	return "", false
}

// broadcastLocked queues a reliable message to every participant except the
// one behind exclude (nil means everyone). Enqueueing never blocks; a
// recipient whose buffer is full is closed by its own Send and cleaned up by
// its connection's read loop. Holding the session lock across the loop is
// what gives the reliable class its per-session ordering. Returns the
// marshaled envelope, or nil if marshaling failed.
func (h *Hub) broadcastLocked(exclude *Client, msg *Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s message: %v", msg.Type, err)
		return nil
	}
	for _, p := range h.participants {
		if p.client == exclude {
			continue
		}
		p.client.Send(data)
	}
	return data
}

// queuePresenceLocked queues a best-effort presence message to every
// participant except the sender.
func (h *Hub) queuePresenceLocked(sender *Client, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s message: %v", msg.Type, err)
		return
	}
	for _, p := range h.participants {
		if p.client == sender {
			continue
		}
		p.client.QueuePresence(msg.Type, msg.UserID, data)
	}
}

// HubManager indexes hubs by session ID. It is the single constructed entry
// point into per-session state; nothing else holds a process-wide registry.
type HubManager struct {
	palette []string

	// journalDir enables per-session activity journals when non-empty.
	journalDir string

	mu   sync.RWMutex
	hubs map[string]*Hub
}

// NewHubManager creates a new HubManager using the given color palette for
// every session it creates hubs for.
func NewHubManager(palette []string) *HubManager {
	return &HubManager{
		palette: palette,
		hubs:    make(map[string]*Hub),
	}
}

// SetJournalDir enables per-session activity journals, written as one
// JSON-Lines file per session under dir.
func (m *HubManager) SetJournalDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journalDir = dir
}

// GetOrCreate returns an existing hub or creates a new one for the session.
func (m *HubManager) GetOrCreate(sess *model.Session) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[sess.ID]; ok {
		return hub
	}

	hub := NewHub(sess, m.palette)
	if m.journalDir != "" {
		hub.journal = m.openJournal(sess)
	}
	m.hubs[sess.ID] = hub
	return hub
}

// openJournal creates the session's journal file. A failure disables
// journaling for the session but never blocks it.
func (m *HubManager) openJournal(sess *model.Session) *journal.Journal {
	j, err := journal.New(filepath.Join(m.journalDir, sess.ID+".jsonl"))
	if err != nil {
		log.Printf("failed to open journal for session %s: %v", sess.ID, err)
		return nil
	}
	if err := j.WriteHeader(sess.ID, sess.Title); err != nil {
		log.Printf("failed to write journal header for session %s: %v", sess.ID, err)
		j.Close()
		return nil
	}
	return j
}

// Get returns the hub for the session, or nil if not found.
func (m *HubManager) Get(sessionID string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[sessionID]
}

// Remove tears down the hub for the session, evicting all participants.
func (m *HubManager) Remove(sessionID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[sessionID]; ok {
		hub.CloseAll(reason)
		delete(m.hubs, sessionID)
	}
}

// ReleaseIfEmpty discards the session's hub if it has no participants. The
// hub is marked released under its own lock so a racing Join fails and
// retries against a fresh hub.
func (m *HubManager) ReleaseIfEmpty(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[sessionID]
	if !ok {
		return
	}

	hub.mu.Lock()
	empty := len(hub.participants) == 0
	if empty {
		hub.released = true
		hub.closeJournalLocked()
	}
	hub.mu.Unlock()

	if empty {
		delete(m.hubs, sessionID)
	}
}

// Close tears down all hubs.
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, hub := range m.hubs {
		hub.CloseAll("server shutting down")
	}
	m.hubs = make(map[string]*Hub)
}
