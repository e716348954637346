package lending

import (
	"context"
	"sync"
	"time"
)

// equipmentLocks serializes capacity-changing operations per equipment id.
// Each id gets one lock, created lazily and never removed; operations on
// different ids never block each other.
type equipmentLocks struct {
	mu    sync.Mutex
	locks map[int64]chan struct{}
}

func newEquipmentLocks() *equipmentLocks {
	return &equipmentLocks{locks: make(map[int64]chan struct{})}
}

func (l *equipmentLocks) lockFor(id int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[id] = ch
	}
	return ch
}

// Acquire waits at most wait for the equipment's lock. Timeout surfaces as
// ErrLockTimeout, a transient error the caller may retry.
func (l *equipmentLocks) Acquire(ctx context.Context, id int64, wait time.Duration) error {
	ch := l.lockFor(id)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *equipmentLocks) Release(id int64) {
	<-l.lockFor(id)
}
