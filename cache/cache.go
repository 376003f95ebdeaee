// Package cache is a signature-keyed store of query results, tagged for
// batch invalidation and patchable for optimistic updates.
//
// A signature is a deterministic key derived from an operation name and its
// arguments; a tag is a coarse label used to invalidate every related query
// after a mutation. Patches are synchronous: a reader never observes a
// half-applied patch, and every patch returns the inverse operation so a
// failed mutation can restore the exact prior state.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Signature identifies one cached result.
type Signature string

// NewSignature derives a deterministic signature from an operation name and
// its arguments. Arguments are JSON-encoded, so two calls with equal
// arguments always collide on the same entry.
func NewSignature(op string, args ...any) Signature {
	if len(args) == 0 {
		return Signature(op)
	}
	var b strings.Builder
	b.WriteString(op)
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			// Unencodable arguments still need a stable key.
			raw = []byte(fmt.Sprintf("%#v", a))
		}
		b.WriteByte('|')
		b.Write(raw)
	}
	return Signature(b.String())
}

// Result is a cached value together with its freshness.
type Result struct {
	Value any
	Stale bool // set by Invalidate; the next read should re-run the backing call
}

// Undo restores the state captured before a Patch was applied.
type Undo func()

// Watcher is notified after any change to a signature it subscribed to.
type Watcher func(sig Signature)

type entry struct {
	value any
	tags  map[string]bool
	stale bool
}

// Cache is the entity cache. Safe for concurrent use; all operations are
// atomic with respect to each other. Entries are never silently dropped:
// only Invalidate marks them stale and only Forget removes them, so a
// pending rollback always has a coherent prior state to restore.
type Cache struct {
	mu       sync.Mutex
	entries  map[Signature]*entry
	watchers map[Signature][]Watcher
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries:  make(map[Signature]*entry),
		watchers: make(map[Signature][]Watcher),
	}
}

// Lookup returns the cached result for sig, or ok=false on a miss.
func (c *Cache) Lookup(sig Signature) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sig]
	if !ok {
		return Result{}, false
	}
	return Result{Value: e.value, Stale: e.stale}, true
}

// Put stores a fresh result for sig carrying the given tags, replacing any
// previous entry.
func (c *Cache) Put(sig Signature, value any, tags ...string) {
	c.mu.Lock()
	e := &entry{value: value, tags: make(map[string]bool, len(tags))}
	for _, t := range tags {
		e.tags[t] = true
	}
	c.entries[sig] = e
	watchers := c.watchersLocked(sig)
	c.mu.Unlock()

	notify(watchers, sig)
}

// Invalidate marks every entry carrying any of the given tags as stale. The
// value stays readable until the next refetch overwrites it.
func (c *Cache) Invalidate(tags ...string) {
	c.mu.Lock()
	var touched []Signature
	for sig, e := range c.entries {
		for _, t := range tags {
			if e.tags[t] && !e.stale {
				e.stale = true
				touched = append(touched, sig)
				break
			}
		}
	}
	all := make(map[Signature][]Watcher, len(touched))
	for _, sig := range touched {
		all[sig] = c.watchersLocked(sig)
	}
	c.mu.Unlock()

	for sig, watchers := range all {
		notify(watchers, sig)
	}
}

// Patch applies an in-place transformation to the entry at sig and returns
// the inverse operation. The mutator receives the current value (or nil on
// a miss) and returns the speculative replacement; it must not mutate the
// value it receives, so the captured snapshot stays intact for the undo.
//
// Patch is synchronous: the new value is visible to readers as soon as Patch
// returns, and the returned Undo restores the exact pre-patch state,
// including a prior miss.
func (c *Cache) Patch(sig Signature, mutate func(old any) any) Undo {
	c.mu.Lock()
	prev, existed := c.entries[sig]

	var old any
	tags := make(map[string]bool)
	if existed {
		old = prev.value
		for t := range prev.tags {
			tags[t] = true
		}
		prev.value = mutate(old)
	} else {
		c.entries[sig] = &entry{value: mutate(nil), tags: tags}
	}
	watchers := c.watchersLocked(sig)
	c.mu.Unlock()

	notify(watchers, sig)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			if existed {
				if e, ok := c.entries[sig]; ok {
					e.value = old
				} else {
					c.entries[sig] = &entry{value: old, tags: tags}
				}
			} else {
				delete(c.entries, sig)
			}
			ws := c.watchersLocked(sig)
			c.mu.Unlock()
			notify(ws, sig)
		})
	}
}

// Forget removes the entry at sig entirely. Used when a query is torn down,
// never as a side effect of another operation.
func (c *Cache) Forget(sig Signature) {
	c.mu.Lock()
	delete(c.entries, sig)
	watchers := c.watchersLocked(sig)
	c.mu.Unlock()
	notify(watchers, sig)
}

// Watch subscribes to changes of sig. The returned function cancels the
// subscription.
func (c *Cache) Watch(sig Signature, w Watcher) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers[sig] = append(c.watchers[sig], w)
	i := len(c.watchers[sig]) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		ws := c.watchers[sig]
		if i < len(ws) {
			ws[i] = nil
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) watchersLocked(sig Signature) []Watcher {
	ws := c.watchers[sig]
	out := make([]Watcher, 0, len(ws))
	for _, w := range ws {
		if w != nil {
			out = append(out, w)
		}
	}
	return out
}

func notify(watchers []Watcher, sig Signature) {
	for _, w := range watchers {
		w(sig)
	}
}
