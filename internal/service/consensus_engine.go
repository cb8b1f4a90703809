package service

import (
	"errors"
	"fmt"

	"planning-poker/internal/domain"
)

// DefaultMaxSpread es la dispersion maxima (max - min) que todavia cuenta como consenso.
const DefaultMaxSpread = 2

// ErrPointOffScale indica un voto sustantivo fuera de la escala. Es un error del
// llamador: la admision de votos debe rechazarlo antes de llegar al motor.
var ErrPointOffScale = errors.New("estimate point not on scale")

// ConsensusEngine decide si los votos de un issue alcanzan consenso.
// No guarda estado: evaluar dos veces el mismo conjunto da el mismo veredicto.
type ConsensusEngine struct {
	scale     domain.PointScale
	maxSpread int
}

func NewConsensusEngine(scale domain.PointScale, maxSpread int) ConsensusEngine {
	if len(scale) == 0 {
		scale = domain.DefaultPointScale
	}
	if maxSpread < 0 {
		maxSpread = DefaultMaxSpread
	}
	return ConsensusEngine{scale: scale, maxSpread: maxSpread}
}

func (e ConsensusEngine) Scale() domain.PointScale {
	return e.scale
}

// Evaluate calcula el veredicto para los votos actuales de un issue.
// Los comodines solo cuentan para completar el roster; nunca entran en la dispersion,
// la media ni el redondeo.
func (e ConsensusEngine) Evaluate(issueID string, votes []domain.Vote, rosterSize int) (domain.Verdict, error) {
	verdict := domain.Verdict{
		IssueID:    issueID,
		RosterSize: rosterSize,
		TotalVotes: len(votes),
	}

	var points []int
	for _, v := range votes {
		p, ok := v.Estimate.Points()
		if !ok {
			verdict.JokerCount++
			continue
		}
		if !e.scale.Contains(p) {
			return domain.Verdict{}, fmt.Errorf("%w: user %s voted %d on issue %s", ErrPointOffScale, v.UserID, p, issueID)
		}
		points = append(points, p)
	}
	verdict.VoteCount = len(points)

	sum := 0
	if len(points) > 0 {
		verdict.MinPoints, verdict.MaxPoints = points[0], points[0]
		for _, p := range points {
			sum += p
			if p < verdict.MinPoints {
				verdict.MinPoints = p
			}
			if p > verdict.MaxPoints {
				verdict.MaxPoints = p
			}
		}
		verdict.Spread = verdict.MaxPoints - verdict.MinPoints
		verdict.AvgPoints = float64(sum) / float64(len(points))
	}

	switch {
	case len(votes) < rosterSize:
		verdict.Status = domain.VerdictIncomplete
	case len(points) == 0:
		verdict.Status = domain.VerdictConflict
	case verdict.Spread > e.maxSpread:
		verdict.Status = domain.VerdictConflict
	default:
		final := e.scale.Nearest(sum, len(points))
		verdict.Status = domain.VerdictConsensus
		verdict.FinalPoints = &final
	}
	return verdict, nil
}
