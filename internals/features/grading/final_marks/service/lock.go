package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"examcell_backend/internals/features/grading/final_marks/model"
)

// keyedLocker serializes generations that touch the same (institution, session, course).
// Keys are always taken in sorted order.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

// refLock is a one-slot semaphore so waiters can give up on ctx.
type refLock struct {
	sem  chan struct{}
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: map[string]*refLock{}}
}

func generationLockKeys(scope model.Scope, courseIDs []uuid.UUID) []string {
	keys := make([]string, 0, len(courseIDs))
	for _, id := range courseIDs {
		keys = append(keys, scope.InstitutionID.String()+"|"+scope.ExaminationSessionID.String()+"|"+id.String())
	}
	sort.Strings(keys)
	return keys
}

// Lock blocks until every key is held and returns the release func.
// When ctx ends first, keys already taken are released and ctx.Err() is returned.
func (l *keyedLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	held := make([]string, 0, len(keys))
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}
	for _, k := range keys {
		if err := l.acquire(ctx, k); err != nil {
			unlock()
			return nil, err
		}
		held = append(held, k)
	}
	return unlock, nil
}

func (l *keyedLocker) ref(key string) *refLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl, ok := l.locks[key]
	if !ok {
		rl = &refLock{sem: make(chan struct{}, 1)}
		l.locks[key] = rl
	}
	rl.refs++
	return rl
}

func (l *keyedLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl := l.locks[key]
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *keyedLocker) acquire(ctx context.Context, key string) error {
	rl := l.ref(key)
	select {
	case rl.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key)
		return ctx.Err()
	}
}

func (l *keyedLocker) release(key string) {
	l.mu.Lock()
	rl := l.locks[key]
	l.mu.Unlock()

	<-rl.sem
	l.unref(key)
}
