package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pscomixx/studio-collab/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Time allotted to the admission check against the session store.
	admitTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the studio frontend origins in production
		return true
	},
}

// Admitter decides whether a (session, user) pair may join the realtime
// session. Implemented by the session lifecycle manager.
type Admitter interface {
	AdmitCheck(ctx context.Context, sessionID, userID string) (*model.Session, error)
}

// Handler runs the protocol state machine for each WebSocket connection:
// Connecting -> AwaitingJoin -> Joined -> Closed. One goroutine reads each
// connection sequentially; a second goroutine writes.
type Handler struct {
	manager   *HubManager
	admitter  Admitter
	joinGrace time.Duration
}

// NewHandler creates a new connection handler. The admitter may be wired
// afterwards with SetAdmitter to break construction cycles.
func NewHandler(manager *HubManager, joinGrace time.Duration) *Handler {
	if joinGrace <= 0 {
		joinGrace = 10 * time.Second
	}
	return &Handler{
		manager:   manager,
		joinGrace: joinGrace,
	}
}

// SetAdmitter wires the admission checker. Must be called before serving
// connections.
func (h *Handler) SetAdmitter(a Admitter) {
	h.admitter = a
}

// HandleConnection upgrades the HTTP request and starts the connection's
// read and write pumps. Identity is established by the join handshake, not
// the upgrade request.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(conn)

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

// readPump reads inbound messages sequentially and drives the state machine.
// Its deferred cleanup is the single disconnect path for the connection:
// graceful close, abrupt close and error-driven close all funnel here, and
// the hub's identity-guarded Leave keeps it idempotent. Closing the client
// ends the write pump, which flushes queued messages (a terminal error in
// particular must reach the peer) and then closes the socket.
func (h *Handler) readPump(client *Client) {
	defer h.disconnect(client)

	client.conn.SetReadLimit(maxMessageSize)
	// Until a valid join arrives, the grace period is the read deadline.
	client.conn.SetReadDeadline(time.Now().Add(h.joinGrace))
	client.conn.SetPongHandler(func(string) error {
		if client.Joined() {
			client.conn.SetReadDeadline(time.Now().Add(pongWait))
		}
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			// Soft failure: a malformed frame never ejects a collaborator.
			client.SendMessage(newErrorMessage("malformed message"))
			continue
		}

		if !client.Joined() {
			if msg.Type != MessageTypeJoin {
				client.SendMessage(newErrorMessage("join required"))
				continue
			}
			if err := h.handleJoin(client, &msg); err != nil {
				// Failed join is terminal for the connection.
				return
			}
			client.conn.SetReadDeadline(time.Now().Add(pongWait))
			continue
		}

		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		h.handleMessage(client, &msg)
	}
}

// handleJoin performs the admission handshake. On failure an error envelope
// is sent and the returned error closes the connection; on success the
// client transitions to Joined.
func (h *Handler) handleJoin(client *Client, msg *Message) error {
	if msg.SessionID == "" || msg.UserID == "" {
		client.SendMessage(newErrorMessage("sessionId and userId are required"))
		return errors.New("join missing identity")
	}

	ctx, cancel := context.WithTimeout(context.Background(), admitTimeout)
	defer cancel()

	sess, err := h.admitter.AdmitCheck(ctx, msg.SessionID, msg.UserID)
	if err != nil {
		client.SendMessage(newErrorMessage(admissionReason(err)))
		return err
	}

	client.userID = msg.UserID
	client.userName = msg.UserName
	if client.userName == "" {
		client.userName = msg.UserID
	}

	hub, err := h.joinHub(sess, client)
	if err != nil {
		client.SendMessage(newErrorMessage(admissionReason(err)))
		return err
	}
	client.hub = hub

	return nil
}

// joinHub registers the client with the session's hub, retrying if the hub
// was concurrently discarded for being empty.
func (h *Handler) joinHub(sess *model.Session, client *Client) (*Hub, error) {
	for {
		hub := h.manager.GetOrCreate(sess)
		_, err := hub.Join(client.userID, client.userName, client)
		if errors.Is(err, errHubReleased) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return hub, nil
	}
}

// handleMessage processes a message from a Joined connection. Protocol
// violations are soft: reported, logged, and the connection stays open.
func (h *Handler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MessageTypeCursorMove:
		if msg.Cursor == nil {
			client.SendMessage(newErrorMessage("cursor_move requires a cursor"))
			return
		}
		client.hub.UpdateCursor(client, msg.Cursor)
	case MessageTypeToolChange:
		if msg.Tool == "" {
			client.SendMessage(newErrorMessage("tool_change requires a tool"))
			return
		}
		client.hub.UpdateTool(client, msg.Tool)
	case MessageTypeChat:
		if msg.Text == "" {
			client.SendMessage(newErrorMessage("chat requires text"))
			return
		}
		client.hub.BroadcastChat(client, msg.Text)
	case MessageTypeJoin:
		client.SendMessage(newErrorMessage("already joined"))
	default:
		client.SendMessage(newErrorMessage("unknown message type"))
	}
}

// disconnect runs the leave path for a connection. Safe to call for
// connections that never joined, and for superseded connections whose
// registry entry now belongs to a newer client.
func (h *Handler) disconnect(client *Client) {
	client.Close()
	if client.hub == nil {
		return
	}
	if client.hub.Leave(client.userID, client) && client.hub.IsEmpty() {
		h.manager.ReleaseIfEmpty(client.hub.SessionID())
	}
}

// writePump delivers outbound traffic for one connection: the reliable
// channel in order, coalesced presence slots, and keepalive pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Each message goes in its own frame so JSON.parse works on the
			// frontend.
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(client.SendChan())
			for i := 0; i < n; i++ {
				queued, ok := <-client.SendChan()
				if !ok {
					client.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				client.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-client.presenceDirty:
			for _, data := range client.drainPresence() {
				client.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// admissionReason maps an admission or registry error to the human-readable
// reason sent to the offending connection.
func admissionReason(err error) string {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, model.ErrSessionClosed):
		return "session is closed"
	case errors.Is(err, model.ErrSessionFull):
		return "session is full"
	case errors.Is(err, model.ErrCapacityExceeded):
		return "participant capacity exceeded"
	default:
		return "could not join session"
	}
}
