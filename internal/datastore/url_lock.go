package datastore

import "sync"

// urlLocks hands out one mutex per URL so concurrent saves of the same page
// cannot race on the version counter. Entries are freed when the last holder
// releases them.
type urlLocks struct {
	mu    sync.Mutex
	locks map[string]*urlLock
}

type urlLock struct {
	sync.Mutex
	refs int
}

func newURLLocks() *urlLocks {
	return &urlLocks{locks: make(map[string]*urlLock)}
}

// Lock blocks until url is free and returns the matching unlock function.
func (l *urlLocks) Lock(url string) func() {
	l.mu.Lock()
	lock, ok := l.locks[url]
	if !ok {
		lock = &urlLock{}
		l.locks[url] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, url)
		}
		l.mu.Unlock()
	}
}

func (l *urlLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
