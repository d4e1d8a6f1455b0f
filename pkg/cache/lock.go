package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrLockBusy = errors.New("system busy, please try again later (lock)")

// Locker serializes work on a key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type RedisLocker struct {
	client     *RedisClient
	ttl        time.Duration
	retries    int
	retryDelay time.Duration
}

func NewRedisLocker(client *RedisClient, ttl time.Duration, retries int, retryDelay time.Duration) *RedisLocker {
	if retries < 1 {
		retries = 1
	}
	return &RedisLocker{
		client:     client,
		ttl:        ttl,
		retries:    retries,
		retryDelay: retryDelay,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()

	for i := 0; i < l.retries; i++ {
		ok, err := l.client.AcquireLock(ctx, key, token, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Release even if the caller's ctx was cancelled.
				_ = l.client.ReleaseLock(context.Background(), key, token)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}

	return nil, ErrLockBusy
}

// MemoryLocker is a keyed mutex for single-process deployments and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyLock)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.unref(key, kl)
		})
	}, nil
}

func (l *MemoryLocker) unref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
