package domain

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Estimate es una carta jugada: o bien un valor de puntos o bien un comodin (abstencion).
// El valor cero no existe: un comodin no lleva puntos.
type Estimate struct {
	points int
	joker  bool
}

var ErrInvalidEstimate = errors.New("invalid estimate")

// Points crea una estimacion sustantiva.
func Points(n int) Estimate {
	return Estimate{points: n}
}

// Joker crea una abstencion.
func Joker() Estimate {
	return Estimate{joker: true}
}

func (e Estimate) IsJoker() bool {
	return e.joker
}

// Points devuelve los puntos y false si la estimacion es un comodin.
func (e Estimate) Points() (int, bool) {
	if e.joker {
		return 0, false
	}
	return e.points, true
}

func (e Estimate) String() string {
	if e.joker {
		return "J"
	}
	return strconv.Itoa(e.points)
}

type estimateJSON struct {
	Points *int `json:"points,omitempty"`
	Joker  bool `json:"joker,omitempty"`
}

func (e Estimate) MarshalJSON() ([]byte, error) {
	if e.joker {
		return json.Marshal(estimateJSON{Joker: true})
	}
	p := e.points
	return json.Marshal(estimateJSON{Points: &p})
}

func (e *Estimate) UnmarshalJSON(data []byte) error {
	var raw estimateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Joker && raw.Points != nil:
		return ErrInvalidEstimate
	case raw.Joker:
		*e = Joker()
	case raw.Points != nil:
		*e = Points(*raw.Points)
	default:
		return ErrInvalidEstimate
	}
	return nil
}

// Vote es la estimacion vigente de un usuario para un issue.
type Vote struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	IssueID   string    `json:"issue_id"`
	UserID    string    `json:"user_id"`
	Estimate  Estimate  `json:"estimate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
