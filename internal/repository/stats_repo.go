package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"planning-poker/internal/domain"
)

type StatsRepository interface {
	Counts(ctx context.Context) (domain.Stats, error)
	ListConflicts(ctx context.Context, minSpread int) ([]domain.Conflict, error)
	UserStats(ctx context.Context) ([]domain.UserStats, error)
}

type PgStatsRepository struct {
	pool *pgxpool.Pool
}

func NewPgStatsRepository(pool *pgxpool.Pool) *PgStatsRepository {
	return &PgStatsRepository{pool: pool}
}

func (r *PgStatsRepository) Counts(ctx context.Context) (domain.Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM issues),
			(SELECT COUNT(*) FROM issues WHERE is_estimated),
			(SELECT COUNT(*) FROM estimates),
			(SELECT COUNT(DISTINCT user_id) FROM estimates)
	`
	var s domain.Stats
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalSessions,
		&s.TotalIssues,
		&s.EstimatedIssues,
		&s.TotalEstimates,
		&s.DistinctVoters,
	)
	return s, err
}

// ListConflicts devuelve issues cuya dispersion (sin comodines) supera minSpread,
// de mayor a menor dispersion.
func (r *PgStatsRepository) ListConflicts(ctx context.Context, minSpread int) ([]domain.Conflict, error) {
	const query = `
		SELECT i.id, i.session_id, i.external_key, i.title,
		       MIN(e.story_points), MAX(e.story_points), COUNT(e.id)
		FROM issues i
		JOIN estimates e ON e.issue_id = i.id AND NOT e.is_joker
		GROUP BY i.id, i.session_id, i.external_key, i.title
		HAVING MAX(e.story_points) - MIN(e.story_points) > $1
		ORDER BY MAX(e.story_points) - MIN(e.story_points) DESC, i.id ASC
	`
	rows, err := r.pool.Query(ctx, query, minSpread)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []domain.Conflict
	for rows.Next() {
		var c domain.Conflict
		err := rows.Scan(
			&c.IssueID,
			&c.SessionID,
			&c.ExternalKey,
			&c.Title,
			&c.MinPoints,
			&c.MaxPoints,
			&c.VoteCount,
		)
		if err != nil {
			return nil, err
		}
		c.Spread = c.MaxPoints - c.MinPoints
		conflicts = append(conflicts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return conflicts, nil
}

// UserStats cuenta votos y sesiones por usuario. Un usuario aparece si voto
// alguna vez o participa de alguna sesion.
func (r *PgStatsRepository) UserStats(ctx context.Context) ([]domain.UserStats, error) {
	const query = `
		WITH users AS (
			SELECT user_id FROM estimates
			UNION
			SELECT user_id FROM session_participants
		)
		SELECT u.user_id,
		       (SELECT COUNT(*) FROM estimates e WHERE e.user_id = u.user_id),
		       (SELECT COUNT(*) FROM session_participants p WHERE p.user_id = u.user_id)
		FROM users u
		ORDER BY u.user_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.UserStats
	for rows.Next() {
		var s domain.UserStats
		if err := rows.Scan(&s.UserID, &s.TotalEstimates, &s.ParticipatedSessions); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
