package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/pscomixx/studio-collab/internal/model"
)

func propSession(max int) *model.Session {
	return &model.Session{
		ID:              "prop-session",
		OwnerID:         "owner",
		Title:           "prop",
		InviteCode:      "PROP01",
		MaxParticipants: max,
		PageCount:       1,
		Status:          model.SessionStatusActive,
	}
}

// For any sequence of joins and leaves, the colors held by the connected
// participants of a session are pairwise distinct.
func TestParticipantColorsDistinctProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("connected participants never share a color", prop.ForAll(
		func(ops []int) bool {
			hub := NewHub(propSession(len(testPalette)), testPalette)
			clients := make(map[string]*Client)

			for _, op := range ops {
				userID := fmt.Sprintf("user-%d", op%6)
				if op%3 == 0 && clients[userID] != nil {
					hub.Leave(userID, clients[userID])
					delete(clients, userID)
					continue
				}
				c := newTestClient(userID)
				if _, err := hub.Join(userID, userID, c); err == nil {
					clients[userID] = c
				}
			}

			seen := make(map[string]bool)
			for _, p := range hub.Participants() {
				if p.Color == "" || seen[p.Color] {
					return false
				}
				seen[p.Color] = true
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}

// For any sequence of join attempts, the number of distinct admitted users
// never exceeds the session capacity, and re-joining never occupies an extra
// seat.
func TestCapacityNeverExceededProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("admitted participants stay within capacity", prop.ForAll(
		func(maxParticipants int, attempts []int) bool {
			hub := NewHub(propSession(maxParticipants), testPalette)

			for _, a := range attempts {
				userID := fmt.Sprintf("user-%d", a)
				hub.Join(userID, userID, newTestClient(userID))
				if hub.Count() > maxParticipants {
					return false
				}
			}
			return hub.Count() <= maxParticipants
		},
		gen.IntRange(2, len(testPalette)),
		gen.SliceOf(gen.IntRange(0, 10)),
	))

	properties.TestingRun(t)
}

// For any interleaving of chat senders, every delivered chat message carries
// a strictly increasing per-session sequence number.
func TestChatSequenceMonotonicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("chat sequence numbers are strictly increasing", prop.ForAll(
		func(senders []bool) bool {
			hub := NewHub(propSession(2), testPalette)
			a := newTestClient("alice")
			b := newTestClient("bob")
			if _, err := hub.Join("alice", "alice", a); err != nil {
				return false
			}
			if _, err := hub.Join("bob", "bob", b); err != nil {
				return false
			}
			// Skip the join-time traffic queued to alice.
			<-a.SendChan()
			<-a.SendChan()
			<-b.SendChan()

			for i, fromAlice := range senders {
				sender := b
				if fromAlice {
					sender = a
				}
				hub.BroadcastChat(sender, fmt.Sprintf("message %d", i))
			}

			var last uint64
			for range senders {
				var msg Message
				if err := json.Unmarshal(<-a.SendChan(), &msg); err != nil {
					return false
				}
				if msg.Type != MessageTypeChat || msg.Seq <= last {
					return false
				}
				last = msg.Seq
			}
			return true
		},
		gen.SliceOfN(10, gen.Bool()),
	))

	properties.TestingRun(t)
}

// For any burst of cursor positions from one sender, a recipient that has not
// drained its outbound path observes exactly the final position.
func TestCursorLatestWinsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	positions := gen.SliceOfN(2, gen.Float64Range(0, 1))

	properties.Property("undrained recipients see only the newest cursor", prop.ForAll(
		func(burst [][]float64) bool {
			if len(burst) == 0 {
				return true
			}

			hub := NewHub(propSession(2), testPalette)
			a := newTestClient("alice")
			b := newTestClient("bob")
			if _, err := hub.Join("alice", "alice", a); err != nil {
				return false
			}
			if _, err := hub.Join("bob", "bob", b); err != nil {
				return false
			}

			for _, pos := range burst {
				hub.UpdateCursor(a, &Cursor{X: pos[0], Y: pos[1], PageID: "page1"})
			}

			pending := b.drainPresence()
			if len(pending) != 1 {
				return false
			}
			var msg Message
			if err := json.Unmarshal(pending[0], &msg); err != nil {
				return false
			}
			final := burst[len(burst)-1]
			return msg.Type == MessageTypeCursorUpdate &&
				msg.Cursor != nil &&
				msg.Cursor.X == final[0] &&
				msg.Cursor.Y == final[1]
		},
		gen.SliceOf(positions),
	))

	properties.TestingRun(t)
}
