package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"planning-poker/internal/domain"
	"planning-poker/internal/repository"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotActive  = errors.New("session not active")
	ErrIssueNotFound     = errors.New("issue not found")
	ErrIssueNotInSession = errors.New("issue does not belong to session")
	ErrNotEstimator      = errors.New("user is not an estimator of the session")
	ErrNotSessionOwner   = errors.New("only the session creator can update it")
	ErrPointNotOnScale   = errors.New("points not on scale")
	ErrNoEstimates       = errors.New("no estimates found")
	ErrInvalidInput      = errors.New("invalid input")
)

const (
	defaultListLimit    = 100
	defaultHistoryLimit = 50
	maxListLimit        = 500
)

// EstimationService admite votos, evalua el consenso y fija el valor final del issue.
type EstimationService struct {
	logger    *zap.Logger
	sessions  repository.SessionRepository
	issues    repository.IssueRepository
	estimates repository.EstimateRepository
	engine    ConsensusEngine
	locker    ItemLocker
	publisher VerdictPublisher
	now       func() time.Time
}

func NewEstimationService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	issues repository.IssueRepository,
	estimates repository.EstimateRepository,
	engine ConsensusEngine,
	locker ItemLocker,
	publisher VerdictPublisher,
) *EstimationService {
	if locker == nil {
		locker = NewMemoryItemLocker()
	}
	if publisher == nil {
		publisher = NewNoopVerdictPublisher()
	}
	return &EstimationService{
		logger:    logger,
		sessions:  sessions,
		issues:    issues,
		estimates: estimates,
		engine:    engine,
		locker:    locker,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type SubmitEstimateInput struct {
	SessionID string
	IssueID   string
	UserID    string
	Estimate  domain.Estimate
}

type SubmitResult struct {
	Vote      domain.Vote    `json:"estimate"`
	Verdict   domain.Verdict `json:"verdict"`
	Finalized bool           `json:"finalized"`
}

// SubmitEstimate valida y guarda el voto, y reevalua el issue con el conjunto actualizado.
// Upsert, evaluacion y finalizacion ocurren bajo el lock del issue.
func (s *EstimationService) SubmitEstimate(ctx context.Context, input SubmitEstimateInput) (SubmitResult, error) {
	input.SessionID = strings.TrimSpace(input.SessionID)
	input.IssueID = strings.TrimSpace(input.IssueID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.SessionID == "" || input.IssueID == "" || input.UserID == "" {
		return SubmitResult{}, ErrInvalidInput
	}
	if p, ok := input.Estimate.Points(); ok && !s.engine.Scale().Contains(p) {
		return SubmitResult{}, fmt.Errorf("%w: %d not in %s", ErrPointNotOnScale, p, s.engine.Scale())
	}

	session, err := s.sessions.GetByID(ctx, input.SessionID)
	if err != nil {
		return SubmitResult{}, notFound(err, ErrSessionNotFound)
	}
	if session.Status != domain.SessionActive {
		return SubmitResult{}, ErrSessionNotActive
	}
	issue, err := s.issues.GetByID(ctx, input.IssueID)
	if err != nil {
		return SubmitResult{}, notFound(err, ErrIssueNotFound)
	}
	if issue.SessionID != session.ID {
		return SubmitResult{}, ErrIssueNotInSession
	}
	roster, err := s.sessions.GetRoster(ctx, session.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !roster.CanVote(input.UserID) {
		return SubmitResult{}, ErrNotEstimator
	}

	unlock, err := s.locker.Lock(ctx, issue.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	defer unlock()

	now := s.now()
	vote, err := s.estimates.Upsert(ctx, domain.Vote{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		IssueID:   issue.ID,
		UserID:    input.UserID,
		Estimate:  input.Estimate,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	verdict, err := s.evaluate(ctx, issue.ID, roster)
	if err != nil {
		return SubmitResult{}, err
	}

	finalized := false
	if verdict.IsConsensus() {
		finalized, err = s.issues.Finalize(ctx, issue.ID, *verdict.FinalPoints, now)
		if err != nil {
			return SubmitResult{}, err
		}
		if finalized {
			s.logger.Info("issue finalized",
				zap.String("issue_id", issue.ID),
				zap.String("session_id", session.ID),
				zap.Int("story_points", *verdict.FinalPoints),
			)
		}
	}

	if err := s.publisher.Publish(ctx, session.ID, verdict); err != nil {
		s.logger.Warn("verdict publish failed", zap.Error(err), zap.String("issue_id", issue.ID))
	}

	return SubmitResult{Vote: vote, Verdict: verdict, Finalized: finalized}, nil
}

// Evaluate calcula el veredicto actual del issue sin modificar nada.
func (s *EstimationService) Evaluate(ctx context.Context, issueID string) (domain.Verdict, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return domain.Verdict{}, notFound(err, ErrIssueNotFound)
	}
	roster, err := s.sessions.GetRoster(ctx, issue.SessionID)
	if err != nil {
		return domain.Verdict{}, err
	}
	return s.evaluate(ctx, issue.ID, roster)
}

// Summary devuelve el veredicto y la carta de cada usuario.
func (s *EstimationService) Summary(ctx context.Context, issueID string) (domain.EstimateSummary, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return domain.EstimateSummary{}, notFound(err, ErrIssueNotFound)
	}
	votes, err := s.estimates.ListByIssue(ctx, issue.ID)
	if err != nil {
		return domain.EstimateSummary{}, err
	}
	roster, err := s.sessions.GetRoster(ctx, issue.SessionID)
	if err != nil {
		return domain.EstimateSummary{}, err
	}
	votes = roster.Counted(votes)
	if len(votes) == 0 {
		return domain.EstimateSummary{}, ErrNoEstimates
	}
	verdict, err := s.verdictFor(issue.ID, votes, roster)
	if err != nil {
		return domain.EstimateSummary{}, err
	}

	byUser := make(map[string]domain.Estimate, len(votes))
	for _, v := range votes {
		byUser[v.UserID] = v.Estimate
	}
	return domain.EstimateSummary{Verdict: verdict, Estimates: byUser}, nil
}

func (s *EstimationService) ListEstimates(ctx context.Context, filter repository.EstimateFilter) ([]domain.Vote, error) {
	filter.Limit = clampLimit(filter.Limit, defaultListLimit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.NewestFirst = false
	return s.estimates.List(ctx, filter)
}

// History lista votos del mas reciente al mas antiguo.
func (s *EstimationService) History(ctx context.Context, filter repository.EstimateFilter) ([]domain.Vote, error) {
	filter.Limit = clampLimit(filter.Limit, defaultHistoryLimit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.NewestFirst = true
	return s.estimates.List(ctx, filter)
}

func (s *EstimationService) evaluate(ctx context.Context, issueID string, roster domain.Roster) (domain.Verdict, error) {
	votes, err := s.estimates.ListByIssue(ctx, issueID)
	if err != nil {
		return domain.Verdict{}, err
	}
	return s.verdictFor(issueID, votes, roster)
}

// verdictFor evalua solo los votos del roster vigente; los votos de usuarios
// quitados despues de votar quedan guardados pero no cuentan.
func (s *EstimationService) verdictFor(issueID string, votes []domain.Vote, roster domain.Roster) (domain.Verdict, error) {
	votes = roster.Counted(votes)
	verdict, err := s.engine.Evaluate(issueID, votes, roster.Size(votes))
	if err != nil {
		s.logger.Error("consensus contract violated", zap.Error(err), zap.String("issue_id", issueID))
		return domain.Verdict{}, err
	}
	return verdict, nil
}

func notFound(err, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
