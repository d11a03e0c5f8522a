package services

import (
	"sort"
	"sync"
)

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// keyLocker hands out per-key mutexes. Keys are always acquired in sorted
// order so two callers locking overlapping sets cannot deadlock. An entry
// lives only while some caller holds or waits on it.
type keyLocker struct {
	mu      sync.Mutex
	locks   map[string]*keyLock
	enabled bool
}

func newKeyLocker(enabled bool) *keyLocker {
	return &keyLocker{locks: make(map[string]*keyLock), enabled: enabled}
}

func (l *keyLocker) lockKeys(keys ...string) func() {
	if !l.enabled || len(keys) == 0 {
		return func() {}
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	sorted = dedupSorted(sorted)

	l.mu.Lock()
	acquired := make([]*keyLock, 0, len(sorted))
	for _, k := range sorted {
		kl := l.locks[k]
		if kl == nil {
			kl = &keyLock{}
			l.locks[k] = kl
		}
		kl.refs++
		acquired = append(acquired, kl)
	}
	l.mu.Unlock()

	for _, kl := range acquired {
		kl.mu.Lock()
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].mu.Unlock()
		}
		l.mu.Lock()
		for i, k := range sorted {
			if acquired[i].refs--; acquired[i].refs == 0 {
				delete(l.locks, k)
			}
		}
		l.mu.Unlock()
	}
}

func (l *keyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func dedupSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(out) == 0 || out[len(out)-1] != k {
			out = append(out, k)
		}
	}
	return out
}
