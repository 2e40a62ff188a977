package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/pscomixx/studio-collab/internal/db"
	"github.com/pscomixx/studio-collab/internal/model"
)

// Any persisted session reads back field for field, and its invite code
// resolves regardless of the casing the caller uses.
func TestSessionRoundTripProperty(t *testing.T) {
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer testDB.Close()

	repo := NewSessionRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	nonEmptyString := gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0 && len(s) <= 100
	})
	inviteCode := gen.RegexMatch("[A-Z0-9]{6}")

	properties.Property("created sessions read back intact and resolve by code", prop.ForAll(
		func(ownerID, title, code string, maxParticipants, pageCount int) bool {
			now := time.Now()
			session := &model.Session{
				ID:              uuid.New().String(),
				OwnerID:         ownerID,
				Title:           title,
				InviteCode:      code,
				MaxParticipants: maxParticipants,
				PageCount:       pageCount,
				Status:          model.SessionStatusActive,
				CreatedAt:       now,
				UpdatedAt:       now,
			}

			if err := repo.Create(ctx, session); err != nil {
				t.Logf("failed to create session: %v", err)
				return false
			}

			retrieved, err := repo.GetByID(ctx, session.ID)
			if err != nil {
				t.Logf("failed to retrieve session: %v", err)
				return false
			}
			if retrieved.OwnerID != session.OwnerID ||
				retrieved.Title != session.Title ||
				retrieved.InviteCode != session.InviteCode ||
				retrieved.MaxParticipants != session.MaxParticipants ||
				retrieved.PageCount != session.PageCount ||
				retrieved.Status != session.Status {
				t.Logf("retrieved session does not match created session")
				return false
			}

			byCode, err := repo.GetByInviteCode(ctx, strings.ToLower(code))
			if err != nil {
				t.Logf("failed to resolve invite code: %v", err)
				return false
			}
			if byCode.ID != session.ID {
				t.Logf("invite code resolved to a different session")
				return false
			}

			// Cleanup so codes stay unique across iterations
			repo.Delete(ctx, session.ID)

			return true
		},
		nonEmptyString,
		nonEmptyString,
		inviteCode,
		gen.IntRange(2, 10),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
