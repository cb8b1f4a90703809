package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"planning-poker/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	List(ctx context.Context, status domain.SessionStatus, limit, offset int) ([]domain.Session, error)
	UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, closedAt *time.Time) error
	UpdateDetails(ctx context.Context, session domain.Session) error
	GetRoster(ctx context.Context, sessionID string) (domain.Roster, error)
	SetEstimators(ctx context.Context, sessionID string, userIDs []string) error
	AddParticipant(ctx context.Context, sessionID, userID string) error
	RemoveParticipant(ctx context.Context, sessionID, userID string) error
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO sessions (id, name, description, project_key, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.Name,
		session.Description,
		session.ProjectKey,
		string(session.Status),
		session.CreatedBy,
		session.CreatedAt,
	)
	return err
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, name, description, project_key, status, created_by, created_at, closed_at
		FROM sessions
		WHERE id = $1
	`
	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, err
	}
	return session, err
}

func (r *PgSessionRepository) List(ctx context.Context, status domain.SessionStatus, limit, offset int) ([]domain.Session, error) {
	const query = `
		SELECT id, name, description, project_key, status, created_by, created_at, closed_at
		FROM sessions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *PgSessionRepository) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, closedAt *time.Time) error {
	const query = `
		UPDATE sessions
		SET status = $2, closed_at = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(status), closedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgSessionRepository) UpdateDetails(ctx context.Context, session domain.Session) error {
	const query = `
		UPDATE sessions
		SET name = $2, description = $3, project_key = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, session.ID, session.Name, session.Description, session.ProjectKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgSessionRepository) GetRoster(ctx context.Context, sessionID string) (domain.Roster, error) {
	var roster domain.Roster
	var err error
	roster.Estimators, err = r.listMembers(ctx, `SELECT user_id FROM session_estimators WHERE session_id = $1 ORDER BY user_id`, sessionID)
	if err != nil {
		return domain.Roster{}, err
	}
	roster.Participants, err = r.listMembers(ctx, `SELECT user_id FROM session_participants WHERE session_id = $1 ORDER BY user_id`, sessionID)
	if err != nil {
		return domain.Roster{}, err
	}
	return roster, nil
}

// SetEstimators reemplaza el roster de estimadores en una sola transaccion.
func (r *PgSessionRepository) SetEstimators(ctx context.Context, sessionID string, userIDs []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM session_estimators WHERE session_id = $1`, sessionID); err != nil {
			return err
		}
		for _, userID := range userIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO session_estimators (session_id, user_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, sessionID, userID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PgSessionRepository) AddParticipant(ctx context.Context, sessionID, userID string) error {
	const query = `
		INSERT INTO session_participants (session_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, sessionID, userID)
	return err
}

func (r *PgSessionRepository) RemoveParticipant(ctx context.Context, sessionID, userID string) error {
	const query = `DELETE FROM session_participants WHERE session_id = $1 AND user_id = $2`
	_, err := r.pool.Exec(ctx, query, sessionID, userID)
	return err
}

func (r *PgSessionRepository) listMembers(ctx context.Context, query, sessionID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var s domain.Session
	var status string
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.ProjectKey,
		&status,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.ClosedAt,
	)
	s.Status = domain.SessionStatus(status)
	return s, err
}
