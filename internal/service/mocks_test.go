package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"planning-poker/internal/domain"
	"planning-poker/internal/repository"
)

type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	rosters  map[string]domain.Roster
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]domain.Session),
		rosters:  make(map[string]domain.Roster),
	}
}

func (m *mockSessionRepo) Create(_ context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockSessionRepo) List(_ context.Context, status domain.SessionStatus, limit, offset int) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Session
	for _, s := range m.sessions {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockSessionRepo) UpdateStatus(_ context.Context, id string, status domain.SessionStatus, closedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Status = status
	s.ClosedAt = closedAt
	m.sessions[id] = s
	return nil
}

func (m *mockSessionRepo) UpdateDetails(_ context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[session.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Name, s.Description, s.ProjectKey = session.Name, session.Description, session.ProjectKey
	m.sessions[session.ID] = s
	return nil
}

func (m *mockSessionRepo) GetRoster(_ context.Context, sessionID string) (domain.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosters[sessionID], nil
}

func (m *mockSessionRepo) SetEstimators(_ context.Context, sessionID string, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rosters[sessionID]
	r.Estimators = append([]string(nil), userIDs...)
	m.rosters[sessionID] = r
	return nil
}

func (m *mockSessionRepo) AddParticipant(_ context.Context, sessionID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rosters[sessionID]
	for _, id := range r.Participants {
		if id == userID {
			return nil
		}
	}
	r.Participants = append(r.Participants, userID)
	m.rosters[sessionID] = r
	return nil
}

func (m *mockSessionRepo) RemoveParticipant(_ context.Context, sessionID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rosters[sessionID]
	kept := r.Participants[:0]
	for _, id := range r.Participants {
		if id != userID {
			kept = append(kept, id)
		}
	}
	r.Participants = kept
	m.rosters[sessionID] = r
	return nil
}

type mockIssueRepo struct {
	mu            sync.Mutex
	issues        map[string]domain.Issue
	finalizeCalls int
}

func newMockIssueRepo() *mockIssueRepo {
	return &mockIssueRepo{issues: make(map[string]domain.Issue)}
}

func (m *mockIssueRepo) Create(_ context.Context, issue domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[issue.ID] = issue
	return nil
}

func (m *mockIssueRepo) GetByID(_ context.Context, id string) (domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return domain.Issue{}, pgx.ErrNoRows
	}
	return issue, nil
}

func (m *mockIssueRepo) ListBySession(_ context.Context, sessionID string) ([]domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Issue
	for _, issue := range m.issues {
		if issue.SessionID == sessionID {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockIssueRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.issues, id)
	return nil
}

func (m *mockIssueRepo) Finalize(_ context.Context, id string, points int, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalizeCalls++
	issue, ok := m.issues[id]
	if !ok {
		return false, nil
	}
	if issue.IsEstimated && issue.StoryPoints != nil && *issue.StoryPoints == points {
		return false, nil
	}
	if issue.StoryPoints != nil {
		prev := *issue.StoryPoints
		issue.StoryPointsBefore = &prev
	}
	p := points
	issue.StoryPoints = &p
	issue.IsEstimated = true
	issue.UpdatedAt = at
	m.issues[id] = issue
	return true, nil
}

type mockEstimateRepo struct {
	mu    sync.Mutex
	votes []domain.Vote
}

func (m *mockEstimateRepo) Upsert(_ context.Context, vote domain.Vote) (domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.votes {
		if v.IssueID == vote.IssueID && v.UserID == vote.UserID {
			v.Estimate = vote.Estimate
			v.UpdatedAt = vote.UpdatedAt
			m.votes[i] = v
			return v, nil
		}
	}
	m.votes = append(m.votes, vote)
	return vote, nil
}

func (m *mockEstimateRepo) ListByIssue(_ context.Context, issueID string) ([]domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Vote
	for _, v := range m.votes {
		if v.IssueID == issueID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockEstimateRepo) List(_ context.Context, filter repository.EstimateFilter) ([]domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Vote
	for _, v := range m.votes {
		if filter.SessionID != "" && v.SessionID != filter.SessionID {
			continue
		}
		if filter.IssueID != "" && v.IssueID != filter.IssueID {
			continue
		}
		if filter.UserID != "" && v.UserID != filter.UserID {
			continue
		}
		out = append(out, v)
	}
	if filter.NewestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockEstimateRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.votes)
}

type recordingPublisher struct {
	mu       sync.Mutex
	verdicts []domain.Verdict
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, verdict domain.Verdict) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verdicts = append(p.verdicts, verdict)
	return p.err
}
