// Package keylock serializes work per string key. Different keys never block
// each other and entries are dropped once no goroutine holds or waits on them.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// Locks is a set of per-key mutexes. The zero value is ready to use.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New creates an empty lock set
func New() *Locks {
	return &Locks{locks: make(map[string]*entry)}
}

func (l *Locks) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*entry)
	}
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locks) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Lock blocks until key is held or ctx is done. The returned func releases
// the key and must be called exactly once.
func (l *Locks) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquire(key)
	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

// Len reports how many keys are currently held or awaited
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
