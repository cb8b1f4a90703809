package domain

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionPaused SessionStatus = "paused"
	SessionClosed SessionStatus = "closed"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionActive, SessionPaused, SessionClosed:
		return true
	}
	return false
}

type Session struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	ProjectKey  string        `json:"project_key,omitempty"`
	Status      SessionStatus `json:"status"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
}

// Roster agrupa a los usuarios esperados en una sesion.
type Roster struct {
	Estimators   []string `json:"estimators"`
	Participants []string `json:"participants"`
}

// Voters devuelve la lista que habilita a votar: estimadores si hay, si no participantes.
func (r Roster) Voters() []string {
	if len(r.Estimators) > 0 {
		return r.Estimators
	}
	return r.Participants
}

// CanVote indica si userID puede votar. Sin roster cualquiera puede.
func (r Roster) CanVote(userID string) bool {
	voters := r.Voters()
	if len(voters) == 0 {
		return true
	}
	for _, id := range voters {
		if id == userID {
			return true
		}
	}
	return false
}

// Counted descarta los votos de usuarios que ya no estan en el roster.
// Sin roster definido todos los votos cuentan.
func (r Roster) Counted(votes []Vote) []Vote {
	if len(r.Voters()) == 0 {
		return votes
	}
	out := make([]Vote, 0, len(votes))
	for _, v := range votes {
		if r.CanVote(v.UserID) {
			out = append(out, v)
		}
	}
	return out
}

// Size es la cantidad de votos necesarios para completar un issue.
// Sin roster se degrada a la cantidad de votantes distintos ya vistos.
func (r Roster) Size(votes []Vote) int {
	if voters := r.Voters(); len(voters) > 0 {
		return len(voters)
	}
	seen := make(map[string]struct{}, len(votes))
	for _, v := range votes {
		seen[v.UserID] = struct{}{}
	}
	return len(seen)
}
