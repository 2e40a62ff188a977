package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pscomixx/studio-collab/internal/model"
)

// SessionRepository provides data access for collab sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, owner_id, title, invite_code, max_participants, page_count, status, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Title,
		&s.InviteCode,
		&s.MaxParticipants,
		&s.PageCount,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session into the database.
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO collab_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.OwnerID,
		session.Title,
		session.InviteCode,
		session.MaxParticipants,
		session.PageCount,
		session.Status,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM collab_sessions WHERE id = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// GetByInviteCode retrieves the session an invite code resolves to.
// Codes are stored uppercase and compared case-insensitively. Uniqueness is
// only enforced among non-completed sessions, so a live session with the code
// is preferred over completed ones carrying the same code historically.
func (r *SessionRepository) GetByInviteCode(ctx context.Context, code string) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM collab_sessions
		WHERE invite_code = ?
		ORDER BY CASE WHEN status != 'completed' THEN 0 ELSE 1 END, created_at DESC
		LIMIT 1
	`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, strings.ToUpper(code)))
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invite code: %w", err)
	}

	return session, nil
}

// InviteCodeInUse reports whether an invite code is already held by a
// non-completed session.
func (r *SessionRepository) InviteCodeInUse(ctx context.Context, code string) (bool, error) {
	query := `SELECT 1 FROM collab_sessions WHERE invite_code = ? AND status != 'completed' LIMIT 1`

	var exists int
	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(code)).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}

	return true, nil
}

// List retrieves all sessions owned by a user, newest first.
func (r *SessionRepository) List(ctx context.Context, ownerID string) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM collab_sessions
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// UpdateStatus updates the status of a session.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status model.SessionStatus) error {
	query := `
		UPDATE collab_sessions
		SET status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// Delete removes a session from the database.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM collab_sessions WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}
