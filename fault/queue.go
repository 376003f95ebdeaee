package fault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRetries is the retry budget of a ticket unless the request says otherwise.
const DefaultMaxRetries = 3

// backoffBase is the delay before the first retry; it doubles on every attempt.
const backoffBase = time.Second

// Request identifies a failed operation that may be re-issued later.
// Name keys the replay handler (e.g. "entry.create"); Class groups
// operations for the static retry exclusion list (e.g. "delete", "auth").
type Request struct {
	ID      string
	Name    string
	Class   string
	Payload any
}

// Handler re-issues a request of a given name. Registered once per request
// type; a request without a handler sits in the queue until exhaustion.
type Handler func(ctx context.Context, req Request) error

// Ticket is the bookkeeping for one retryable failure.
type Ticket struct {
	ID          string
	Request     Request
	RetryCount  int
	MaxRetries  int
	NextRetryAt time.Time
	Err         error
}

// Queue schedules bounded, exponentially backed-off retries.
//
// Operation classes on the exclusion list are never enqueued, even when their
// failure is classified retryable: re-issuing an irreversible delete or an
// authentication exchange is worse than failing loudly.
type Queue struct {
	mu       sync.Mutex
	tickets  []*Ticket
	handlers map[string]Handler
	excluded map[string]bool

	log      *Log
	onchange func()
	logger   *slog.Logger
	now      func() time.Time
}

// NewQueue creates an empty retry queue reporting terminal failures to log.
func NewQueue(log *Log) *Queue {
	return &Queue{
		handlers: make(map[string]Handler),
		excluded: map[string]bool{"delete": true, "auth": true},
		log:      log,
		logger:   slog.Default().With("component", "retry"),
		now:      time.Now,
	}
}

// Exclude adds operation classes to the static exclusion list.
func (q *Queue) Exclude(classes ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range classes {
		q.excluded[c] = true
	}
}

// Register installs the replay handler for a request name.
func (q *Queue) Register(name string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

// OnChange installs a callback invoked after every queue state change.
func (q *Queue) OnChange(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onchange = fn
}

// Enqueue creates a ticket for a failed request. It reports false when the
// request's class is excluded from retrying, or when cause classifies as
// non-retryable. The first attempt is scheduled one second out.
func (q *Queue) Enqueue(req Request, cause error) (*Ticket, bool) {
	if !Classify(cause).Retryable {
		return nil, false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.excluded[req.Class] {
		return nil, false
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	t := &Ticket{
		ID:          uuid.NewString(),
		Request:     req,
		MaxRetries:  DefaultMaxRetries,
		NextRetryAt: q.now().Add(backoffBase), // 1s * 2^0
		Err:         cause,
	}
	q.tickets = append(q.tickets, t)
	q.notifyLocked()
	return t, true
}

// Cancel removes a ticket. The cancellation is cooperative: an attempt
// already in flight is not aborted, its eventual result is simply ignored.
func (q *Queue) Cancel(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(id)
	q.notifyLocked()
}

// Tickets returns a snapshot of the pending tickets.
func (q *Queue) Tickets() []Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Ticket, 0, len(q.tickets))
	for _, t := range q.tickets {
		out = append(out, *t)
	}
	return out
}

// Len returns the number of pending tickets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tickets)
}

// Tick scans the queue once, re-issuing every due ticket. A ticket over its
// retry budget is removed and converted into a terminal, non-retryable
// record so the failure reaches a stable user-visible state.
func (q *Queue) Tick(ctx context.Context) {
	for _, due := range q.collectDue() {
		if due.exhausted {
			q.logger.Warn("retry exhausted", "request", due.req.Name, "retries", due.retryCount)
			q.log.Add(Record{
				Message:   fmt.Sprintf("%s: %v: exceeded max retries (%d)", due.req.Name, due.err, due.retryCount),
				Kind:      Classify(due.err).Kind,
				Retryable: false,
			})
			continue
		}
		handler := due.handler
		if handler == nil {
			q.logger.Warn("no replay handler registered", "request", due.req.Name)
			continue
		}
		if err := handler(ctx, due.req); err != nil {
			q.logger.Info("retry failed", "request", due.req.Name, "attempt", due.retryCount, "err", err)
			q.fail(due.ticketID, err)
			continue
		}
		q.logger.Info("retry succeeded", "request", due.req.Name, "attempt", due.retryCount)
		q.settle(due.ticketID)
	}
}

// Run drives the queue at a fixed cadence until ctx is cancelled. The scan
// is skipped while the queue is empty.
func (q *Queue) Run(ctx context.Context, cadence time.Duration) {
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if q.Len() > 0 {
				q.Tick(ctx)
			}
		}
	}
}

type dueTicket struct {
	ticketID   string
	req        Request
	err        error
	retryCount int
	exhausted  bool
	handler    Handler
}

// collectDue advances the state of every due ticket under the lock and
// returns what must be done outside of it (handlers must not run locked).
func (q *Queue) collectDue() []dueTicket {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var due []dueTicket
	kept := q.tickets[:0]
	changed := false
	for _, t := range q.tickets {
		if t.NextRetryAt.After(now) {
			kept = append(kept, t)
			continue
		}
		changed = true
		if t.RetryCount >= t.MaxRetries {
			due = append(due, dueTicket{ticketID: t.ID, req: t.Request, err: t.Err, retryCount: t.RetryCount, exhausted: true})
			continue // drop the ticket
		}
		t.RetryCount++
		t.NextRetryAt = now.Add(backoffBase << uint(t.RetryCount)) // 1s * 2^count
		due = append(due, dueTicket{ticketID: t.ID, req: t.Request, err: t.Err, retryCount: t.RetryCount, handler: q.handlers[t.Request.Name]})
		kept = append(kept, t)
	}
	q.tickets = kept
	if changed {
		q.notifyLocked()
	}
	return due
}

// settle removes a ticket whose retry succeeded.
func (q *Queue) settle(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(id)
	q.notifyLocked()
}

// fail records the latest error on a still-pending ticket.
func (q *Queue) fail(id string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tickets {
		if t.ID == id {
			t.Err = err
			return
		}
	}
}

func (q *Queue) removeLocked(id string) {
	out := q.tickets[:0]
	for _, t := range q.tickets {
		if t.ID != id {
			out = append(out, t)
		}
	}
	q.tickets = out
}

func (q *Queue) notifyLocked() {
	if q.onchange != nil {
		go q.onchange()
	}
}
