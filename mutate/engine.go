// Package mutate applies speculative ("optimistic") updates to the entity
// cache before the backing store confirms a write, reconciling the cache on
// success and rolling it back exactly on failure.
//
// The engine never retries anything itself: resiliency policy lives entirely
// in the fault package's retry queue, which keeps speculative-state concerns
// separate from retry concerns.
package mutate

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kasaledger/kasa/cache"
	"github.com/kasaledger/kasa/fault"
)

// tempPrefix marks locally assigned placeholder identifiers awaiting
// reconciliation with the store-assigned identity.
const tempPrefix = "tmp-"

// TempID returns a placeholder identifier for an optimistically created
// record.
func TempID() string { return tempPrefix + uuid.NewString() }

// IsTempID reports whether id is a placeholder awaiting reconciliation.
func IsTempID(id string) bool { return strings.HasPrefix(id, tempPrefix) }

// Patch is one speculative cache update: the signature it touches and the
// transformation to apply. The transformation must not mutate the value it
// receives; it returns a replacement, leaving the snapshot intact for
// rollback.
type Patch struct {
	Sig   cache.Signature
	Apply func(old any) any
}

// Mutation describes one write operation.
type Mutation struct {
	// Request identifies the operation for the error log and the retry
	// queue (name keys the replay handler, class the exclusion list).
	Request fault.Request

	// Patches are applied synchronously before Commit runs. Each mutation
	// owns its captured snapshots; two concurrent mutations roll back
	// independently even when they touch overlapping signatures.
	Patches []Patch

	// Tags are invalidated after a successful commit so dependent queries
	// refresh on their next read.
	Tags []string

	// Commit performs the underlying collaborator call.
	Commit func(ctx context.Context) (any, error)

	// Reconcile, when set, maps the authoritative commit result to the
	// patches replacing the speculative placeholders. It must be
	// idempotent: applying the same result twice leaves the cache
	// identical to applying it once.
	Reconcile func(result any) []Patch
}

// Engine coordinates optimistic mutations over one cache.
type Engine struct {
	cache *cache.Cache
	log   *fault.Log
	queue *fault.Queue
}

// New creates an engine. queue may be nil when retrying is not wanted.
func New(c *cache.Cache, log *fault.Log, queue *fault.Queue) *Engine {
	return &Engine{cache: c, log: log, queue: queue}
}

// Do runs one mutation: it applies the speculative patches, invokes Commit,
// and either reconciles the cache with the authoritative result or rolls the
// patches back in reverse order and reports the failure.
//
// Do blocks until the commit resolves; callers wanting fire-and-forget
// semantics run it on their own goroutine. The error returned is the raw
// commit error; its classified record is available from the fault log.
func (e *Engine) Do(ctx context.Context, m Mutation) (any, error) {
	undos := make([]cache.Undo, 0, len(m.Patches))
	for _, p := range m.Patches {
		undos = append(undos, e.cache.Patch(p.Sig, p.Apply))
	}

	result, err := m.Commit(ctx)
	if err != nil {
		// Restore the pre-patch snapshots exactly, newest first.
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
		e.log.Report(err)
		if e.queue != nil {
			e.queue.Enqueue(m.Request, err)
		}
		return nil, err
	}

	if m.Reconcile != nil {
		for _, p := range m.Reconcile(result) {
			e.cache.Patch(p.Sig, p.Apply)
		}
	}
	e.cache.Invalidate(m.Tags...)
	return result, nil
}
