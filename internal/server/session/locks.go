package session

import (
	"context"
	"sync"
)

// roomLocks hands out one exclusive, context-aware lock per room id.
// Entries are reference counted and dropped when nobody holds or waits on them.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	sem  chan struct{}
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// acquire blocks until the room is free or ctx is done.
func (l *roomLocks) acquire(ctx context.Context, roomID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[roomID]
	if !ok {
		lk = &roomLock{sem: make(chan struct{}, 1)}
		l.locks[roomID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lk.sem
				l.release(roomID, lk)
			})
		}, nil
	case <-ctx.Done():
		l.release(roomID, lk)
		return nil, ctx.Err()
	}
}

func (l *roomLocks) release(roomID string, lk *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, roomID)
	}
}

// size is the number of rooms with a holder or waiter.
func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
