// Package cache provides the in-process TTL caches used for user lookups
// and navigation sequences, plus a manager that sweeps them.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"billed/internal/log"
)

// Cache is the read/write surface shared by every cache in the package.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Sweeper is a cache the Manager can clean and measure.
type Sweeper interface {
	CleanExpired() int
	Size() int
}

// Manager periodically drops expired entries from its registered caches.
type Manager struct {
	mu     sync.Mutex
	caches map[string]Sweeper
	logger *log.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		caches: make(map[string]Sweeper),
		logger: logger.WithComponent(log.ComponentCache),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds c under name, replacing any cache previously registered with it.
func (m *Manager) Register(name string, c Sweeper) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// Sizes reports the entry count of every registered cache.
func (m *Manager) Sizes() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.caches))
	for name, c := range m.caches {
		out[name] = c.Size()
	}
	return out
}

// Sweep cleans every cache once and returns the number of entries removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	m.mu.Unlock()
	sort.Strings(names)

	total := 0
	for _, name := range names {
		m.mu.Lock()
		c := m.caches[name]
		m.mu.Unlock()
		if n := c.CleanExpired(); n > 0 {
			m.logger.Debug("Expired cache entries removed", "cache", name, log.FieldCount, n)
			total += n
		}
	}
	return total
}

// Run sweeps every interval until ctx is done or Stop is called.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		}
	}
}

// Stop ends Run and waits for it to return. Safe to call more than once,
// but only after Run has been started.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}
