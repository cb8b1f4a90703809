package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryItemLocker_SerializesSameIssue(t *testing.T) {
	locker := NewMemoryItemLocker()

	unlock, err := locker.Lock(context.Background(), "i1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "i1"); !errors.Is(err, ErrItemBusy) {
		t.Fatalf("expected ErrItemBusy while held, got %v", err)
	}

	other, err := locker.Lock(context.Background(), "i2")
	if err != nil {
		t.Fatalf("expected independent issue to lock, got %v", err)
	}
	other()

	unlock()
	unlock()
	again, err := locker.Lock(context.Background(), "i1")
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	again()

	mem := locker.(*memoryItemLocker)
	if len(mem.slots) != 0 {
		t.Fatalf("expected slots to be released, got %d", len(mem.slots))
	}
}

func TestMemoryItemLocker_MutualExclusion(t *testing.T) {
	locker := NewMemoryItemLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "i1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
}

type mockRedisLockClient struct {
	mu        sync.Mutex
	held      map[string]string
	setNXErr  error
	evalErr   error
	lastTTL   time.Duration
	evalCalls int
}

func newMockRedisLockClient() *mockRedisLockClient {
	return &mockRedisLockClient{held: make(map[string]string)}
}

func (m *mockRedisLockClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewBoolCmd(ctx)
	if m.setNXErr != nil {
		cmd.SetErr(m.setNXErr)
		return cmd
	}
	m.lastTTL = expiration
	if _, ok := m.held[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	m.held[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (m *mockRedisLockClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evalCalls++
	cmd := redis.NewCmd(ctx)
	if m.evalErr != nil {
		cmd.SetErr(m.evalErr)
		return cmd
	}
	if script == redisUnlockScript && m.held[keys[0]] == args[0] {
		delete(m.held, keys[0])
		cmd.SetVal(int64(1))
		return cmd
	}
	cmd.SetVal(int64(0))
	return cmd
}

func TestRedisItemLocker(t *testing.T) {
	t.Run("acquire and release", func(t *testing.T) {
		client := newMockRedisLockClient()
		l := &redisItemLocker{logger: zap.NewNop(), client: client, ttl: time.Second, retry: time.Millisecond, prefix: "poker:lock:issue:"}

		unlock, err := l.Lock(context.Background(), "i1")
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		if _, ok := client.held["poker:lock:issue:i1"]; !ok {
			t.Fatalf("expected key to be held, got %+v", client.held)
		}
		if client.lastTTL != time.Second {
			t.Fatalf("expected ttl 1s, got %v", client.lastTTL)
		}
		unlock()
		if len(client.held) != 0 {
			t.Fatalf("expected key released")
		}
	})

	t.Run("busy until deadline", func(t *testing.T) {
		client := newMockRedisLockClient()
		client.held["poker:lock:issue:i1"] = "someone-else"
		l := &redisItemLocker{logger: zap.NewNop(), client: client, ttl: time.Second, retry: time.Millisecond, prefix: "poker:lock:issue:"}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := l.Lock(ctx, "i1"); !errors.Is(err, ErrItemBusy) {
			t.Fatalf("expected ErrItemBusy, got %v", err)
		}
		if client.held["poker:lock:issue:i1"] != "someone-else" {
			t.Fatalf("foreign lock must not be touched")
		}
	})

	t.Run("redis error surfaces", func(t *testing.T) {
		client := newMockRedisLockClient()
		client.setNXErr = errors.New("redis down")
		l := &redisItemLocker{logger: zap.NewNop(), client: client, ttl: time.Second, retry: time.Millisecond, prefix: "poker:lock:issue:"}

		_, err := l.Lock(context.Background(), "i1")
		if err == nil || errors.Is(err, ErrItemBusy) {
			t.Fatalf("expected redis error, got %v", err)
		}
	})

	t.Run("empty issue rejected", func(t *testing.T) {
		l := &redisItemLocker{logger: zap.NewNop(), client: newMockRedisLockClient(), ttl: time.Second, retry: time.Millisecond}
		if _, err := l.Lock(context.Background(), "  "); !errors.Is(err, ErrItemBusy) {
			t.Fatalf("expected ErrItemBusy, got %v", err)
		}
	})
}

func TestRedisItemLocker_LogsFailedRelease(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	client := newMockRedisLockClient()
	l := &redisItemLocker{logger: zap.New(core), client: client, ttl: time.Second, retry: time.Millisecond, prefix: "poker:lock:issue:"}

	unlock, err := l.Lock(context.Background(), "i1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	client.evalErr = errors.New("connection reset")
	unlock()
	if n := logs.FilterMessage("item lock release failed").Len(); n != 1 {
		t.Fatalf("expected release failure to be logged once, got %d", n)
	}

	client.evalErr = nil
	unlock, err = l.Lock(context.Background(), "i2")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	client.mu.Lock()
	client.held["poker:lock:issue:i2"] = "another-owner"
	client.mu.Unlock()
	unlock()
	if n := logs.FilterMessage("item lock expired before release").Len(); n != 1 {
		t.Fatalf("expected expired lock to be logged once, got %d", n)
	}
	if client.held["poker:lock:issue:i2"] != "another-owner" {
		t.Fatalf("release must not delete a lock owned by someone else")
	}
}

func TestNewRedisItemLocker_NilClient(t *testing.T) {
	if NewRedisItemLocker(nil, time.Second, zap.NewNop()) != nil {
		t.Fatalf("expected nil locker without client")
	}
}
