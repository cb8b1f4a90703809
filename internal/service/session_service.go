package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"planning-poker/internal/domain"
	"planning-poker/internal/repository"
)

// SessionService coordina sesiones de planning poker, su roster y sus issues.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	issues   repository.IssueRepository
	now      func() time.Time
}

func NewSessionService(logger *zap.Logger, sessions repository.SessionRepository, issues repository.IssueRepository) *SessionService {
	return &SessionService{
		logger:   logger,
		sessions: sessions,
		issues:   issues,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateSessionInput struct {
	Name        string
	Description string
	ProjectKey  string
	CreatedBy   string
	Estimators  []string
}

type SessionDetail struct {
	domain.Session
	Roster domain.Roster `json:"roster"`
}

// UpdateSessionInput trae solo los campos a modificar. ActorID vacio omite el
// control de creador.
type UpdateSessionInput struct {
	ActorID     string
	Name        *string
	Description *string
	ProjectKey  *string
}

type AddIssueInput struct {
	SessionID         string
	ExternalKey       string
	ExternalURL       string
	Title             string
	Description       string
	StoryPointsBefore *int
}

// CreateSession crea la sesion activa y suma al creador como participante.
func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (SessionDetail, error) {
	name := strings.TrimSpace(input.Name)
	createdBy := strings.TrimSpace(input.CreatedBy)
	if name == "" || createdBy == "" {
		return SessionDetail{}, ErrInvalidInput
	}

	session := domain.Session{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ProjectKey:  strings.TrimSpace(input.ProjectKey),
		Status:      domain.SessionActive,
		CreatedBy:   createdBy,
		CreatedAt:   s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return SessionDetail{}, err
	}
	if err := s.sessions.AddParticipant(ctx, session.ID, createdBy); err != nil {
		return SessionDetail{}, err
	}
	if estimators := normalizeIDs(input.Estimators); len(estimators) > 0 {
		if err := s.sessions.SetEstimators(ctx, session.ID, estimators); err != nil {
			return SessionDetail{}, err
		}
	}

	s.logger.Info("session created", zap.String("session_id", session.ID), zap.String("created_by", createdBy))
	return s.GetSession(ctx, session.ID)
}

func (s *SessionService) GetSession(ctx context.Context, id string) (SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return SessionDetail{}, notFound(err, ErrSessionNotFound)
	}
	roster, err := s.sessions.GetRoster(ctx, session.ID)
	if err != nil {
		return SessionDetail{}, err
	}
	return SessionDetail{Session: session, Roster: roster}, nil
}

func (s *SessionService) ListSessions(ctx context.Context, status domain.SessionStatus, limit, offset int) ([]domain.Session, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidInput
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessions.List(ctx, status, clampLimit(limit, defaultListLimit), offset)
}

// UpdateSession modifica nombre, descripcion y clave de proyecto.
func (s *SessionService) UpdateSession(ctx context.Context, id string, input UpdateSessionInput) (SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return SessionDetail{}, notFound(err, ErrSessionNotFound)
	}
	if actor := strings.TrimSpace(input.ActorID); actor != "" && actor != session.CreatedBy {
		return SessionDetail{}, ErrNotSessionOwner
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return SessionDetail{}, ErrInvalidInput
		}
		session.Name = name
	}
	if input.Description != nil {
		session.Description = strings.TrimSpace(*input.Description)
	}
	if input.ProjectKey != nil {
		session.ProjectKey = strings.TrimSpace(*input.ProjectKey)
	}
	if err := s.sessions.UpdateDetails(ctx, session); err != nil {
		return SessionDetail{}, notFound(err, ErrSessionNotFound)
	}
	return s.GetSession(ctx, id)
}

// UpdateStatus cambia el estado; cerrar registra closed_at y reabrir lo limpia.
func (s *SessionService) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) (SessionDetail, error) {
	if !status.Valid() {
		return SessionDetail{}, ErrInvalidInput
	}
	var closedAt *time.Time
	if status == domain.SessionClosed {
		now := s.now()
		closedAt = &now
	}
	if err := s.sessions.UpdateStatus(ctx, id, status, closedAt); err != nil {
		return SessionDetail{}, notFound(err, ErrSessionNotFound)
	}
	return s.GetSession(ctx, id)
}

// SetEstimators reemplaza el roster de estimadores. Una lista vacia vuelve a usar
// a los participantes como roster.
func (s *SessionService) SetEstimators(ctx context.Context, id string, userIDs []string) (SessionDetail, error) {
	if _, err := s.sessions.GetByID(ctx, id); err != nil {
		return SessionDetail{}, notFound(err, ErrSessionNotFound)
	}
	if err := s.sessions.SetEstimators(ctx, id, normalizeIDs(userIDs)); err != nil {
		return SessionDetail{}, err
	}
	return s.GetSession(ctx, id)
}

func (s *SessionService) AddParticipant(ctx context.Context, id, userID string) (SessionDetail, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SessionDetail{}, ErrInvalidInput
	}
	if _, err := s.sessions.GetByID(ctx, id); err != nil {
		return SessionDetail{}, notFound(err, ErrSessionNotFound)
	}
	if err := s.sessions.AddParticipant(ctx, id, userID); err != nil {
		return SessionDetail{}, err
	}
	return s.GetSession(ctx, id)
}

func (s *SessionService) RemoveParticipant(ctx context.Context, id, userID string) (SessionDetail, error) {
	if _, err := s.sessions.GetByID(ctx, id); err != nil {
		return SessionDetail{}, notFound(err, ErrSessionNotFound)
	}
	if err := s.sessions.RemoveParticipant(ctx, id, strings.TrimSpace(userID)); err != nil {
		return SessionDetail{}, err
	}
	return s.GetSession(ctx, id)
}

// AddIssue registra un item importado del tracker externo, todavia sin estimar.
func (s *SessionService) AddIssue(ctx context.Context, input AddIssueInput) (domain.Issue, error) {
	key := strings.TrimSpace(input.ExternalKey)
	title := strings.TrimSpace(input.Title)
	if key == "" || title == "" {
		return domain.Issue{}, ErrInvalidInput
	}
	if _, err := s.sessions.GetByID(ctx, input.SessionID); err != nil {
		return domain.Issue{}, notFound(err, ErrSessionNotFound)
	}

	now := s.now()
	issue := domain.Issue{
		ID:                uuid.NewString(),
		SessionID:         input.SessionID,
		ExternalKey:       key,
		ExternalURL:       strings.TrimSpace(input.ExternalURL),
		Title:             title,
		Description:       strings.TrimSpace(input.Description),
		StoryPointsBefore: input.StoryPointsBefore,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return domain.Issue{}, err
	}
	return issue, nil
}

func (s *SessionService) ListIssues(ctx context.Context, sessionID string) ([]domain.Issue, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	return s.issues.ListBySession(ctx, sessionID)
}

// GetIssue devuelve el issue con su valor final y el anterior, si los hay.
func (s *SessionService) GetIssue(ctx context.Context, id string) (domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return domain.Issue{}, notFound(err, ErrIssueNotFound)
	}
	return issue, nil
}

func (s *SessionService) DeleteIssue(ctx context.Context, id string) error {
	if err := s.issues.Delete(ctx, id); err != nil {
		return notFound(err, ErrIssueNotFound)
	}
	s.logger.Info("issue deleted", zap.String("issue_id", id))
	return nil
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
