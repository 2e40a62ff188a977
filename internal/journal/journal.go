// Package journal records session activity in a JSON-Lines format: one header
// line with session metadata followed by one line per event. Journals are
// append-only artifacts for later review of a collab session.
package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Header is the first line of a journal file.
type Header struct {
	Version   int    `json:"version"`
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
}

// Event is a single activity record.
// Serialized as [time_offset, kind, user_id, detail].
type Event struct {
	TimeOffset float64
	Kind       string // "join", "leave", "chat", "end"
	UserID     string
	Detail     string
}

// MarshalJSON implements custom JSON marshaling for Event.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.TimeOffset, e.Kind, e.UserID, e.Detail})
}

// UnmarshalJSON implements custom JSON unmarshaling for Event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var arr []interface{}
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 4 {
		return fmt.Errorf("invalid event format: expected 4 elements, got %d", len(arr))
	}

	timeOffset, ok := arr[0].(float64)
	if !ok {
		return fmt.Errorf("invalid time offset type")
	}
	e.TimeOffset = timeOffset

	kind, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid event kind type")
	}
	e.Kind = kind

	userID, ok := arr[2].(string)
	if !ok {
		return fmt.Errorf("invalid user id type")
	}
	e.UserID = userID

	detail, ok := arr[3].(string)
	if !ok {
		return fmt.Errorf("invalid detail type")
	}
	e.Detail = detail

	return nil
}

// Journal writes session activity records to a file or writer.
type Journal struct {
	writer    io.Writer
	file      *os.File // only set if we own the file
	startTime time.Time
	mu        sync.Mutex
}

// New creates a Journal that writes to the given file path.
func New(filePath string) (*Journal, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal file: %w", err)
	}

	return &Journal{
		writer:    file,
		file:      file,
		startTime: time.Now(),
	}, nil
}

// NewWithWriter creates a Journal that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Journal {
	return &Journal{
		writer:    w,
		startTime: time.Now(),
	}
}

// WriteHeader writes the journal header. Call once before recording events.
func (j *Journal) WriteHeader(sessionID, title string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	header := Header{
		Version:   1,
		SessionID: sessionID,
		Title:     title,
		Timestamp: j.startTime.Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := j.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// Record appends one activity event.
func (j *Journal) Record(kind, userID, detail string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	event := Event{
		TimeOffset: time.Since(j.startTime).Seconds(),
		Kind:       kind,
		UserID:     userID,
		Detail:     detail,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := j.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		return j.file.Close()
	}
	return nil
}

// StartTime returns the time the journal was opened.
func (j *Journal) StartTime() time.Time {
	return j.startTime
}
