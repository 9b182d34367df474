// Package lock provides per-table locking so that events reaching a table
// from the player connection and from the wheel timer are applied one at a
// time.
package lock

import (
	"sync"
)

// TableLock hands out one mutex per table id.
type TableLock struct {
	locks sync.Map // map[string]*sync.Mutex
	pool  sync.Pool
}

// NewTableLock creates a new TableLock instance.
func NewTableLock() *TableLock {
	return &TableLock{
		pool: sync.Pool{
			New: func() any {
				return &sync.Mutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for the given table id.
func (tl *TableLock) getLock(tableID string) *sync.Mutex {
	if v, ok := tl.locks.Load(tableID); ok {
		return v.(*sync.Mutex)
	}

	newLock := tl.pool.Get().(*sync.Mutex)

	// Another goroutine may have stored a mutex first. The loser was never
	// visible to anyone else, so it can be reused.
	actual, loaded := tl.locks.LoadOrStore(tableID, newLock)
	if loaded {
		tl.pool.Put(newLock)
	}
	return actual.(*sync.Mutex)
}

// Lock acquires the lock for a table.
func (tl *TableLock) Lock(tableID string) {
	tl.getLock(tableID).Lock()
}

// Unlock releases the lock for a table. Unlocking a table that was never
// locked is a no-op.
func (tl *TableLock) Unlock(tableID string) {
	if v, ok := tl.locks.Load(tableID); ok {
		v.(*sync.Mutex).Unlock()
	}
}

// WithLock executes fn while holding the table's lock. It blocks until the
// lock is free and always releases the mutex it acquired, even if the table
// is forgotten in the meantime.
func (tl *TableLock) WithLock(tableID string, fn func() error) error {
	mu := tl.getLock(tableID)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// Forget drops the mutex of a closed table. Goroutines already holding or
// waiting in WithLock keep the old mutex; later callers get a fresh one.
// The dropped mutex is not pooled because it may still be in use.
func (tl *TableLock) Forget(tableID string) {
	tl.locks.Delete(tableID)
}
