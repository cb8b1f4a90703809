package domain

import "time"

// Issue es un item estimable importado desde el tracker externo.
type Issue struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	ExternalKey       string    `json:"external_key"`
	ExternalURL       string    `json:"external_url,omitempty"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	StoryPoints       *int      `json:"story_points"`
	StoryPointsBefore *int      `json:"story_points_before,omitempty"`
	IsEstimated       bool      `json:"is_estimated"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
