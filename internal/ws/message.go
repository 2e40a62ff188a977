package ws

// MessageType represents the type of a WebSocket message envelope.
type MessageType string

const (
	// Client -> Server message types
	MessageTypeJoin       MessageType = "join"
	MessageTypeCursorMove MessageType = "cursor_move"
	MessageTypeToolChange MessageType = "tool_change"
	MessageTypeChat       MessageType = "chat"

	// Server -> Client message types
	MessageTypeJoined       MessageType = "joined"
	MessageTypeUserJoined   MessageType = "user_joined"
	MessageTypeUserLeft     MessageType = "user_left"
	MessageTypeCursorUpdate MessageType = "cursor_update"
	MessageTypeToolUpdate   MessageType = "tool_update"
	MessageTypeError        MessageType = "error"
)

// Cursor is a normalized pointer position on a session page. The client
// produces it; the server only relays it.
type Cursor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	PageID string  `json:"pageId"`
}

// ParticipantInfo is the roster entry shape sent to clients.
type ParticipantInfo struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Color    string  `json:"color"`
	Tool     string  `json:"tool"`
	Cursor   *Cursor `json:"cursor,omitempty"`
}

// Message represents a WebSocket message envelope, inbound or outbound,
// discriminated by Type.
type Message struct {
	Type MessageType `json:"type"`

	// Identity fields: inbound on join, outbound on user_joined, user_left,
	// cursor_update, tool_update and chat.
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	UserName  string `json:"userName,omitempty"`

	// Presence payloads.
	Cursor *Cursor `json:"cursor,omitempty"`
	Tool   string  `json:"tool,omitempty"`

	// Chat: Text inbound, Message/Seq/Timestamp outbound. Message doubles as
	// the human-readable reason on error envelopes.
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
	Seq       uint64 `json:"seq,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`

	// Joined payload, unicast to the newly admitted participant.
	Color        string            `json:"color,omitempty"`
	Title        string            `json:"title,omitempty"`
	PageCount    int               `json:"pageCount,omitempty"`
	Participants []ParticipantInfo `json:"participants,omitempty"`
}

// newErrorMessage builds an error envelope with a human-readable reason.
func newErrorMessage(reason string) *Message {
	return &Message{
		Type:    MessageTypeError,
		Message: reason,
	}
}
