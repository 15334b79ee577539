package common

import (
	"sync"
	"time"
)

// CooldownGuard tracks the last action time per (scope, key) pair and answers
// whether an action is allowed again. State lives in memory only; a process
// restart clears every cooldown, which is acceptable for soft UX protection.
//
// The guard is owned by the composition root and injected into whichever
// trigger surfaces need it. No package-level state.
type CooldownGuard struct {
	mu      sync.Mutex
	entries map[string]entry
	nowFunc func() time.Time
}

type entry struct {
	acquiredAt time.Time
	cooldown   time.Duration
}

// NewCooldownGuard creates an empty guard.
func NewCooldownGuard() *CooldownGuard {
	return &CooldownGuard{
		entries: make(map[string]entry),
		nowFunc: time.Now,
	}
}

// TryAcquire reports whether an action identified by (scope, key) is allowed
// now. When allowed it records the timestamp, so the next call within cooldown
// returns false. Entries expire lazily on the next check.
func (g *CooldownGuard) TryAcquire(scope, key string, cooldown time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowFunc()
	id := scope + "\x00" + key

	if e, ok := g.entries[id]; ok && now.Sub(e.acquiredAt) < e.cooldown {
		return false
	}

	g.entries[id] = entry{acquiredAt: now, cooldown: cooldown}

	// Opportunistic sweep so stale keys from other scopes cannot pile up.
	if len(g.entries) > 64 {
		for id, e := range g.entries {
			if now.Sub(e.acquiredAt) >= e.cooldown {
				delete(g.entries, id)
			}
		}
	}
	return true
}

// Remaining returns how long until (scope, key) may fire again; zero when it
// is allowed right now.
func (g *CooldownGuard) Remaining(scope, key string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[scope+"\x00"+key]
	if !ok {
		return 0
	}
	left := e.cooldown - g.nowFunc().Sub(e.acquiredAt)
	if left < 0 {
		return 0
	}
	return left
}
