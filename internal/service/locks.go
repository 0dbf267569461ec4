package service

import "sync"

// URLLocks hands out one mutex per product URL so that concurrent writers for
// the same product are serialized. Every component that appends to a product's
// history must share the same URLLocks instance, otherwise the per-product
// timestamp ordering is not protected. Writes for different products never
// contend.
type URLLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewURLLocks() *URLLocks {
	return &URLLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *URLLocks) forURL(url string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[url]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[url] = lock
	}
	return lock
}
