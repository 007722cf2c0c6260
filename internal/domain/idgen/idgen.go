// Package idgen hands out numeric identifiers that stay close to wall-clock
// milliseconds but never repeat within a process.
package idgen

import (
	"sync"
	"time"
)

// Generator produces strictly increasing ids. The zero value is not usable; use New.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// New returns a generator seeded from the system clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock is used by tests to pin the clock.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns max(now in ms, previous id + 1).
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// NextUnused returns the next id for which taken reports false.
func (g *Generator) NextUnused(taken func(int64) bool) int64 {
	for {
		id := g.Next()
		if taken == nil || !taken(id) {
			return id
		}
	}
}

// Observe makes sure future ids are greater than id. Stores call it with the
// ids found on load so a restarted process never reissues one.
func (g *Generator) Observe(id int64) {
	g.mu.Lock()
	if id > g.last {
		g.last = id
	}
	g.mu.Unlock()
}
