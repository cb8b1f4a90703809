package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"planning-poker/internal/domain"
)

// VerdictPublisher entrega veredictos al fan-out de la sesion.
type VerdictPublisher interface {
	Publish(ctx context.Context, sessionID string, verdict domain.Verdict) error
}

type noopVerdictPublisher struct{}

func NewNoopVerdictPublisher() VerdictPublisher {
	return noopVerdictPublisher{}
}

func (noopVerdictPublisher) Publish(context.Context, string, domain.Verdict) error {
	return nil
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type redisVerdictPublisher struct {
	client redisPublisher
}

// VerdictEvent es el mensaje publicado en el canal de la sesion.
type VerdictEvent struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	Verdict   domain.Verdict `json:"verdict"`
	SentAt    time.Time      `json:"sent_at"`
}

func NewRedisVerdictPublisher(client *redis.Client) VerdictPublisher {
	if client == nil {
		return nil
	}
	return &redisVerdictPublisher{client: client}
}

// SessionChannel devuelve el canal pub/sub de una sesion.
func SessionChannel(sessionID string) string {
	return "poker:session:" + sessionID + ":verdicts"
}

func (p *redisVerdictPublisher) Publish(ctx context.Context, sessionID string, verdict domain.Verdict) error {
	payload, err := json.Marshal(VerdictEvent{
		Type:      "verdict",
		SessionID: sessionID,
		Verdict:   verdict,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return p.client.Publish(ctx, SessionChannel(sessionID), payload).Err()
}
