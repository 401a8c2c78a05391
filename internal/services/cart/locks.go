package cart

import "sync"

// userLocks serializes cart mutations per user. The lock map only grows; the
// number of distinct users per process lifetime is assumed manageable.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// Lock acquires the lock for one user and returns the release function.
func (l *userLocks) Lock(userID int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*sync.Mutex)
	}
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
