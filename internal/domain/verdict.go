package domain

type VerdictStatus string

const (
	VerdictIncomplete VerdictStatus = "INCOMPLETE"
	VerdictConflict   VerdictStatus = "CONFLICT"
	VerdictConsensus  VerdictStatus = "CONSENSUS"
)

// Verdict es el resultado calculado para el conjunto de votos actual de un issue.
// MinPoints, MaxPoints, Spread y AvgPoints solo tienen sentido con VoteCount > 0.
type Verdict struct {
	IssueID     string        `json:"issue_id"`
	Status      VerdictStatus `json:"status"`
	FinalPoints *int          `json:"final_points,omitempty"`
	RosterSize  int           `json:"roster_size"`
	TotalVotes  int           `json:"total_votes"`
	JokerCount  int           `json:"joker_count"`
	VoteCount   int           `json:"vote_count"`
	MinPoints   int           `json:"min_points"`
	MaxPoints   int           `json:"max_points"`
	Spread      int           `json:"spread"`
	AvgPoints   float64       `json:"avg_points"`
}

func (v Verdict) IsConsensus() bool {
	return v.Status == VerdictConsensus && v.FinalPoints != nil
}

// EstimateSummary agrega el veredicto y las cartas de cada usuario.
type EstimateSummary struct {
	Verdict
	Estimates map[string]Estimate `json:"estimates"`
}

// Conflict describe un issue con dispersion alta para el panel de administracion.
type Conflict struct {
	IssueID     string `json:"issue_id"`
	SessionID   string `json:"session_id"`
	ExternalKey string `json:"external_key"`
	Title       string `json:"title"`
	MinPoints   int    `json:"min_points"`
	MaxPoints   int    `json:"max_points"`
	Spread      int    `json:"spread"`
	VoteCount   int    `json:"estimates_count"`
}

type Stats struct {
	TotalSessions   int `json:"total_sessions"`
	TotalIssues     int `json:"total_issues"`
	EstimatedIssues int `json:"estimated_issues"`
	TotalEstimates  int `json:"total_estimates"`
	DistinctVoters  int `json:"distinct_voters"`
}

// UserStats resume la actividad de un usuario en todas las sesiones.
type UserStats struct {
	UserID               string `json:"user_id"`
	TotalEstimates       int    `json:"total_estimates"`
	ParticipatedSessions int    `json:"participated_sessions"`
}
