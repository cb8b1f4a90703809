package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"planning-poker/internal/domain"
)

type IssueRepository interface {
	Create(ctx context.Context, issue domain.Issue) error
	GetByID(ctx context.Context, id string) (domain.Issue, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Issue, error)
	Delete(ctx context.Context, id string) error
	Finalize(ctx context.Context, id string, points int, at time.Time) (bool, error)
}

type PgIssueRepository struct {
	pool *pgxpool.Pool
}

func NewPgIssueRepository(pool *pgxpool.Pool) *PgIssueRepository {
	return &PgIssueRepository{pool: pool}
}

func (r *PgIssueRepository) Create(ctx context.Context, issue domain.Issue) error {
	const query = `
		INSERT INTO issues (id, session_id, external_key, external_url, title, description, story_points_before, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.SessionID,
		issue.ExternalKey,
		issue.ExternalURL,
		issue.Title,
		issue.Description,
		issue.StoryPointsBefore,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	return err
}

func (r *PgIssueRepository) GetByID(ctx context.Context, id string) (domain.Issue, error) {
	const query = `
		SELECT id, session_id, external_key, external_url, title, description,
		       story_points, story_points_before, is_estimated, created_at, updated_at
		FROM issues
		WHERE id = $1
	`
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Issue{}, err
	}
	return issue, err
}

func (r *PgIssueRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Issue, error) {
	const query = `
		SELECT id, session_id, external_key, external_url, title, description,
		       story_points, story_points_before, is_estimated, created_at, updated_at
		FROM issues
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return issues, nil
}

// Delete borra el issue; los votos caen por ON DELETE CASCADE.
func (r *PgIssueRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Finalize fija los puntos finales. Escribir el mismo valor dos veces no cambia nada y
// devuelve false; el valor anterior distinto queda en story_points_before.
func (r *PgIssueRepository) Finalize(ctx context.Context, id string, points int, at time.Time) (bool, error) {
	const query = `
		UPDATE issues
		SET story_points_before = CASE
		        WHEN story_points IS NOT NULL THEN story_points
		        ELSE story_points_before
		    END,
		    story_points = $2,
		    is_estimated = TRUE,
		    updated_at = $3
		WHERE id = $1
		  AND (story_points IS DISTINCT FROM $2 OR NOT is_estimated)
	`
	tag, err := r.pool.Exec(ctx, query, id, points, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanIssue(row pgx.Row) (domain.Issue, error) {
	var issue domain.Issue
	err := row.Scan(
		&issue.ID,
		&issue.SessionID,
		&issue.ExternalKey,
		&issue.ExternalURL,
		&issue.Title,
		&issue.Description,
		&issue.StoryPoints,
		&issue.StoryPointsBefore,
		&issue.IsEstimated,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)
	return issue, err
}
