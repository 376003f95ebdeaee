// Package progress tracks concurrently running long operations: their
// progress, cancellation, and the aggregate completion and ETA an
// application surfaces in its status bar.
package progress

import (
	"sort"
	"sync"
	"time"
)

// Status is the lifecycle state of a tracked operation.
type Status string

const (
	Loading Status = "loading"
	Success Status = "success"
	Error   Status = "error"
)

// Grace windows during which a finished operation stays visible so the user
// sees a brief confirmation before it is evicted.
const (
	successGrace = 3 * time.Second
	errorGrace   = 5 * time.Second
)

// Operation is one tracked unit of long-running work.
type Operation struct {
	ID                string
	Name              string
	Progress          float64 // clamped to [0, 100]
	Status            Status
	Message           string
	StartTime         time.Time
	EstimatedDuration time.Duration // static fallback when progress is unknown
	Indeterminate     bool          // excluded from aggregate progress
}

// Options configures Start.
type Options struct {
	Message           string
	EstimatedDuration time.Duration
	Indeterminate     bool
}

// Tracker keeps the live set of operations. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	ops      map[string]*Operation
	evicts   map[string]func() bool // pending eviction cancellers, keyed by op id
	loading  int
	onchange func()

	now   func() time.Time
	after func(time.Duration, func()) func() bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		ops:    make(map[string]*Operation),
		evicts: make(map[string]func() bool),
		now:    time.Now,
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

// OnChange installs a callback invoked after every state change.
func (t *Tracker) OnChange(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onchange = fn
}

// Start registers an operation and increments the global loading count.
// Reusing the id of a finished operation cancels its pending eviction so the
// stale timer cannot remove the new operation.
func (t *Tracker) Start(id, name string, opts Options) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelEvictionLocked(id)
	if prev, ok := t.ops[id]; !ok || prev.Status != Loading {
		t.loading++
	}
	t.ops[id] = &Operation{
		ID:                id,
		Name:              name,
		Status:            Loading,
		Message:           opts.Message,
		StartTime:         t.now(),
		EstimatedDuration: opts.EstimatedDuration,
		Indeterminate:     opts.Indeterminate,
	}
	t.notifyLocked()
}

// Update mutates the progress and/or message of a loading operation.
// Progress is clamped to [0, 100]. Updates to finished or unknown
// operations are dropped.
func (t *Tracker) Update(id string, progress *float64, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[id]
	if !ok || op.Status != Loading {
		return
	}
	if progress != nil {
		op.Progress = clamp(*progress)
	}
	if message != "" {
		op.Message = message
	}
	t.notifyLocked()
}

// Complete marks a loading operation successful. It is a no-op when the
// operation is not currently loading, so the loading count is decremented
// exactly once however often it is called.
func (t *Tracker) Complete(id, message string) { t.finish(id, Success, message, successGrace) }

// Fail marks a loading operation failed, with a longer confirmation window.
func (t *Tracker) Fail(id, message string) { t.finish(id, Error, message, errorGrace) }

func (t *Tracker) finish(id string, status Status, message string, grace time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[id]
	if !ok || op.Status != Loading {
		return // idempotent terminal transition
	}
	op.Status = status
	op.Progress = 100
	if message != "" {
		op.Message = message
	}
	t.loading--
	t.evicts[id] = t.after(grace, func() { t.evict(id) })
	t.notifyLocked()
}

// Cancel removes an operation immediately, whatever its state. The caller
// must treat the eventual result of an already-issued call as ignorable.
func (t *Tracker) Cancel(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[id]
	if !ok {
		return
	}
	if op.Status == Loading {
		t.loading--
	}
	t.cancelEvictionLocked(id)
	delete(t.ops, id)
	t.notifyLocked()
}

// evict is the deferred removal of a finished operation.
func (t *Tracker) evict(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[id]
	if !ok || op.Status == Loading {
		return // the id was reused; leave the new operation alone
	}
	delete(t.ops, id)
	delete(t.evicts, id)
	t.notifyLocked()
}

func (t *Tracker) cancelEvictionLocked(id string) {
	if stop, ok := t.evicts[id]; ok {
		stop()
		delete(t.evicts, id)
	}
}

// Get returns a snapshot of one operation.
func (t *Tracker) Get(id string) (Operation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[id]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// Operations returns a snapshot of all live operations, oldest first.
func (t *Tracker) Operations() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Operation, 0, len(t.ops))
	for _, op := range t.ops {
		out = append(out, *op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// LoadingCount returns the number of operations currently loading.
func (t *Tracker) LoadingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// GlobalLoading reports whether any operation is still loading.
func (t *Tracker) GlobalLoading() bool { return t.LoadingCount() > 0 }

// AggregateProgress is the mean progress of the determinate loading
// operations, or 100 when none are active.
func (t *Tracker) AggregateProgress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum float64
	var n int
	for _, op := range t.ops {
		if op.Status != Loading || op.Indeterminate {
			continue
		}
		sum += op.Progress
		n++
	}
	if n == 0 {
		return 100
	}
	return sum / float64(n)
}

// ETA estimates the time remaining for one operation: extrapolated from
// elapsed time and progress when progress is known, falling back to the
// static estimate otherwise.
func (t *Tracker) ETA(id string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[id]
	if !ok || op.Status != Loading {
		return 0, false
	}
	return t.etaLocked(op)
}

func (t *Tracker) etaLocked(op *Operation) (time.Duration, bool) {
	elapsed := t.now().Sub(op.StartTime)
	if op.Progress > 0 {
		total := time.Duration(float64(elapsed) / (op.Progress / 100))
		return total - elapsed, true
	}
	if op.EstimatedDuration > 0 {
		return op.EstimatedDuration, true
	}
	return 0, false
}

// AggregateETA is the sum of the ETAs of the loading operations that have
// one; ok is false when none has an estimate.
func (t *Tracker) AggregateETA() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum time.Duration
	var any bool
	for _, op := range t.ops {
		if op.Status != Loading {
			continue
		}
		if eta, ok := t.etaLocked(op); ok {
			sum += eta
			any = true
		}
	}
	return sum, any
}

func (t *Tracker) notifyLocked() {
	if t.onchange != nil {
		go t.onchange()
	}
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
