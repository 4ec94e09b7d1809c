// Package sessionlock serialises mutations of a single session.
package sessionlock

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"sync"
	"time"

	"ludo-arena/internal/game"

	"golang.org/x/sync/semaphore"
)

var (
	lockWaitTimeouts = expvar.NewInt("sessionlock_wait_timeouts")
	lockCount        = expvar.NewInt("sessionlock_registered")
)

// Registry hands out one exclusive lock per session id. Locks for different
// ids never contend. Locks are not reentrant.
type Registry struct {
	timeout time.Duration
	locks   sync.Map // session id -> *semaphore.Weighted
}

// New returns a registry whose Acquire gives up after timeout. A zero timeout
// waits for as long as the caller's context allows.
func New(timeout time.Duration) *Registry {
	return &Registry{timeout: timeout}
}

func (r *Registry) lockFor(id string) *semaphore.Weighted {
	if v, ok := r.locks.Load(id); ok {
		return v.(*semaphore.Weighted)
	}
	v, loaded := r.locks.LoadOrStore(id, semaphore.NewWeighted(1))
	if !loaded {
		lockCount.Add(1)
	}
	return v.(*semaphore.Weighted)
}

// Acquire blocks until the lock for id is held and returns its release func.
// Release is idempotent. It fails with game.ErrLockUnavailable when the
// registry timeout passes first, or with the context error on cancellation.
func (r *Registry) Acquire(ctx context.Context, id string) (func(), error) {
	waitCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	for {
		sem := r.lockFor(id)
		if err := sem.Acquire(waitCtx, 1); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				lockWaitTimeouts.Add(1)
				return nil, fmt.Errorf("%w: session %s", game.ErrLockUnavailable, id)
			}
			return nil, err
		}
		// Forget may have dropped this semaphore while we waited on it.
		if cur, ok := r.locks.Load(id); !ok || cur != sem {
			sem.Release(1)
			continue
		}
		var once sync.Once
		return func() { once.Do(func() { sem.Release(1) }) }, nil
	}
}

// With runs fn while holding the lock for id. The lock is released however fn
// returns, including by panic.
func (r *Registry) With(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	release, err := r.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Forget drops the lock for a session that no longer exists. It reports false
// and keeps the lock when someone holds it. A caller that was already waiting
// on a forgotten lock retries on the fresh one, so one id never has two
// holders.
func (r *Registry) Forget(id string) bool {
	v, ok := r.locks.Load(id)
	if !ok {
		return true
	}
	sem := v.(*semaphore.Weighted)
	if !sem.TryAcquire(1) {
		return false
	}
	if r.locks.CompareAndDelete(id, sem) {
		lockCount.Add(-1)
	}
	sem.Release(1)
	return true
}

// Len reports how many session locks are registered.
func (r *Registry) Len() int {
	n := 0
	r.locks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
