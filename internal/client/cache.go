package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

// Query keys. They mirror the collection endpoints they are fetched from.
const (
	KeyTasks = "/api/tasks"
	KeyTeams = "/api/teams"
	KeyStats = "/api/stats"
)

var ErrUnknownQuery = errors.New("client: unknown query key")

// Fetcher loads the current server value for one query key.
type Fetcher func(ctx context.Context) (interface{}, error)

type entry struct {
	value     interface{}
	err       error
	stale     bool
	loaded    bool
	seq       uint64 // sequence of the write that produced value
	staleSeq  uint64 // writes older than this are still stale
	updatedAt time.Time
}

// QueryCache holds the last known value per query key. Every write carries a
// sequence number taken when it started; a write older than the stored one
// is discarded, so a slow refetch never replaces newer state.
type QueryCache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	fetchers  map[string]Fetcher
	seq       uint64
	listeners []func(key string)
	logger    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewQueryCache(log *logger.Logger) *QueryCache {
	ctx, cancel := context.WithCancel(context.Background())
	return &QueryCache{
		entries:  make(map[string]*entry),
		fetchers: make(map[string]Fetcher),
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *QueryCache) Register(key string, fetch Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchers[key] = fetch
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = &entry{stale: true}
	}
}

// Keys returns every registered key.
func (c *QueryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.fetchers))
	for k := range c.fetchers {
		keys = append(keys, k)
	}
	return keys
}

// OnChange registers fn to run after a key's stored value changes.
func (c *QueryCache) OnChange(fn func(key string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Get returns the cached value, fetching it first when missing or stale.
func (c *QueryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return nil, ErrUnknownQuery
	}
	if e.loaded && !e.stale {
		value := e.value
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()
	return c.fetch(ctx, key)
}

// Peek returns the stored value without fetching.
func (c *QueryCache) Peek(key string) (value interface{}, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key]
	if !found || !e.loaded {
		return nil, true, false
	}
	return e.value, e.stale, true
}

// Set stores an optimistic local value.
func (c *QueryCache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.seq++
	stored := c.storeLocked(key, c.seq, value, nil)
	c.mu.Unlock()
	if stored {
		c.notify(key)
	}
}

// Invalidate marks keys stale and refetches them in the background.
func (c *QueryCache) Invalidate(keys ...string) {
	for _, key := range keys {
		c.mu.Lock()
		e, ok := c.entries[key]
		if ok {
			c.seq++
			e.staleSeq = c.seq
			e.stale = true
		}
		c.mu.Unlock()
		if !ok {
			continue
		}

		c.wg.Add(1)
		go func(key string) {
			defer c.wg.Done()
			if _, err := c.fetch(c.ctx, key); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Warnw("client_refetch_failed", "key", key, "error", err)
			}
		}(key)
	}
}

// InvalidateAll invalidates every registered key.
func (c *QueryCache) InvalidateAll() {
	c.Invalidate(c.Keys()...)
}

// Close stops background refetches and waits for them.
func (c *QueryCache) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *QueryCache) fetch(ctx context.Context, key string) (interface{}, error) {
	c.mu.Lock()
	fetcher, ok := c.fetchers[key]
	if !ok {
		c.mu.Unlock()
		return nil, ErrUnknownQuery
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	value, err := fetcher(ctx)

	c.mu.Lock()
	stored := c.storeLocked(key, seq, value, err)
	current := c.entries[key].value
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !stored {
		c.logger.Debugw("client_fetch_discarded", "key", key, "seq", seq)
		return current, nil
	}
	c.notify(key)
	return value, nil
}

// storeLocked applies a write unless a newer one is already stored. A failed
// fetch only records the error.
func (c *QueryCache) storeLocked(key string, seq uint64, value interface{}, err error) bool {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	if seq < e.seq {
		return false
	}
	if err != nil {
		e.err = err
		return false
	}
	e.value = value
	e.err = nil
	e.seq = seq
	e.loaded = true
	e.stale = seq < e.staleSeq
	e.updatedAt = time.Now()
	return true
}

func (c *QueryCache) notify(key string) {
	c.mu.Lock()
	listeners := append([]func(string){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(key)
	}
}
