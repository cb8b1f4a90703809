package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"planning-poker/internal/domain"
)

// EstimateFilter acota listados de votos. Campos vacios no filtran.
type EstimateFilter struct {
	SessionID   string
	IssueID     string
	UserID      string
	Limit       int
	Offset      int
	NewestFirst bool
}

type EstimateRepository interface {
	Upsert(ctx context.Context, vote domain.Vote) (domain.Vote, error)
	ListByIssue(ctx context.Context, issueID string) ([]domain.Vote, error)
	List(ctx context.Context, filter EstimateFilter) ([]domain.Vote, error)
}

type PgEstimateRepository struct {
	pool *pgxpool.Pool
}

func NewPgEstimateRepository(pool *pgxpool.Pool) *PgEstimateRepository {
	return &PgEstimateRepository{pool: pool}
}

// Upsert guarda el voto de un usuario para un issue. La restriccion unica
// (issue_id, user_id) garantiza un solo voto vivo: reenviar actualiza el existente y
// conserva su id y created_at.
func (r *PgEstimateRepository) Upsert(ctx context.Context, vote domain.Vote) (domain.Vote, error) {
	const query = `
		INSERT INTO estimates (id, session_id, issue_id, user_id, story_points, is_joker, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT uq_issue_user_estimate DO UPDATE
		SET story_points = EXCLUDED.story_points,
		    is_joker = EXCLUDED.is_joker,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`
	var points *int
	if p, ok := vote.Estimate.Points(); ok {
		points = &p
	}
	err := r.pool.QueryRow(ctx, query,
		vote.ID,
		vote.SessionID,
		vote.IssueID,
		vote.UserID,
		points,
		vote.Estimate.IsJoker(),
		vote.CreatedAt,
		vote.UpdatedAt,
	).Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
	if err != nil {
		return domain.Vote{}, err
	}
	return vote, nil
}

func (r *PgEstimateRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.Vote, error) {
	const query = `
		SELECT id, session_id, issue_id, user_id, story_points, is_joker, created_at, updated_at
		FROM estimates
		WHERE issue_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	return collectVotes(rows)
}

func (r *PgEstimateRepository) List(ctx context.Context, filter EstimateFilter) ([]domain.Vote, error) {
	query := `
		SELECT id, session_id, issue_id, user_id, story_points, is_joker, created_at, updated_at
		FROM estimates
		WHERE ($1 = '' OR session_id = $1)
		  AND ($2 = '' OR issue_id = $2)
		  AND ($3 = '' OR user_id = $3)
	`
	if filter.NewestFirst {
		query += ` ORDER BY created_at DESC`
	} else {
		query += ` ORDER BY created_at ASC`
	}
	query += ` LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query,
		filter.SessionID,
		filter.IssueID,
		filter.UserID,
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectVotes(rows)
}

func collectVotes(rows pgx.Rows) ([]domain.Vote, error) {
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		var points *int
		var joker bool
		err := rows.Scan(
			&v.ID,
			&v.SessionID,
			&v.IssueID,
			&v.UserID,
			&points,
			&joker,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		switch {
		case joker:
			v.Estimate = domain.Joker()
		case points != nil:
			v.Estimate = domain.Points(*points)
		default:
			return nil, domain.ErrInvalidEstimate
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return votes, nil
}
