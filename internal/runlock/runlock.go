// Package runlock prevents two pipeline runs for the same user from
// overlapping.
package runlock

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked is returned when a run for the user is already in progress.
var ErrLocked = errors.New("a run is already in progress for this user")

// Locker grants at most one holder per key.
type Locker interface {
	// Acquire returns a release func on success or ErrLocked when the key is held.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Local is an in-process Locker.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal returns an empty Local locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
