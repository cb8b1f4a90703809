package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrItemBusy indica que no se pudo tomar el lock del issue a tiempo.
var ErrItemBusy = errors.New("issue is busy")

// ItemLocker serializa admision, evaluacion y finalizacion por issue.
type ItemLocker interface {
	Lock(ctx context.Context, issueID string) (unlock func(), err error)
}

type itemSlot struct {
	ch   chan struct{}
	refs int
}

type memoryItemLocker struct {
	mu    sync.Mutex
	slots map[string]*itemSlot
}

// NewMemoryItemLocker crea un lock por issue valido dentro de un solo proceso.
func NewMemoryItemLocker() ItemLocker {
	return &memoryItemLocker{slots: make(map[string]*itemSlot)}
}

func (l *memoryItemLocker) Lock(ctx context.Context, issueID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[issueID]
	if !ok {
		slot = &itemSlot{ch: make(chan struct{}, 1)}
		l.slots[issueID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(issueID, slot)
			})
		}, nil
	case <-ctx.Done():
		l.release(issueID, slot)
		return nil, ErrItemBusy
	}
}

func (l *memoryItemLocker) release(issueID string, slot *itemSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, issueID)
	}
}

const redisUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisItemLocker struct {
	logger *zap.Logger
	client redisLockClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// NewRedisItemLocker crea un lock por issue compartido entre instancias.
// El ttl acota cuanto puede quedar tomado si el dueño muere.
func NewRedisItemLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) ItemLocker {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &redisItemLocker{
		logger: logger,
		client: client,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		prefix: "poker:lock:issue:",
	}
}

func (l *redisItemLocker) Lock(ctx context.Context, issueID string) (func(), error) {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return nil, ErrItemBusy
	}
	key := l.prefix + issueID
	token := uuid.NewString()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.ttl)
		defer cancel()
	}

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if acquired {
			return func() { l.release(key, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrItemBusy
		case <-time.After(l.retry):
		}
	}
}

// release borra la clave solo si todavia guarda nuestro token.
func (l *redisItemLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	deleted, err := l.client.Eval(ctx, redisUnlockScript, []string{key}, token).Int64()
	if err != nil {
		l.logger.Warn("item lock release failed", zap.String("key", key), zap.Error(err))
		return
	}
	if deleted == 0 {
		l.logger.Warn("item lock expired before release", zap.String("key", key), zap.Duration("ttl", l.ttl))
	}
}
