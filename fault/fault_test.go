package fault

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Class
	}{
		{"connection refused", syscall.ECONNREFUSED, Class{Kind: Runtime, Retryable: true}},
		{"wrapped connection reset", fmt.Errorf("saving: %w", syscall.ECONNRESET), Class{Kind: Runtime, Retryable: true}},
		{"timeout", context.DeadlineExceeded, Class{Kind: Runtime, Retryable: true}},
		{"field validation", &FieldError{Field: "amount", Message: "must be positive"}, Class{Kind: Validation, Retryable: false, Field: "amount"}},
		{"business rule", &BusinessError{Message: "category in use"}, Class{Kind: Business, Retryable: false}},
		{"server error", &StatusError{Code: 503}, Class{Kind: Runtime, Retryable: true}},
		{"too many requests", &StatusError{Code: 429}, Class{Kind: Runtime, Retryable: true}},
		{"client error", &StatusError{Code: 404}, Class{Kind: Validation, Retryable: false}},
		{"unclassified", errors.New("boom"), Class{Kind: Runtime, Retryable: true}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestLog_Bounded(t *testing.T) {
	l := NewLog()
	for i := 0; i < 25; i++ {
		l.Add(Record{Message: fmt.Sprintf("e%d", i), Kind: Runtime})
	}
	records := l.Records()
	require.Len(t, records, 10)
	// the 10 most recent are retained, oldest first.
	assert.Equal(t, "e15", records[0].Message)
	assert.Equal(t, "e24", records[9].Message)
}

func TestLog_ValidationReplacesSameField(t *testing.T) {
	l := NewLog()
	l.Add(Record{Message: "A", Kind: Validation, Field: "amount"})
	l.Add(Record{Message: "B", Kind: Validation, Field: "amount"})

	records := l.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "B", records[0].Message)

	r, ok := l.FieldError("amount")
	require.True(t, ok)
	assert.Equal(t, "B", r.Message)
}

func TestLog_GlobalSlot(t *testing.T) {
	l := NewLog()

	l.Report(&FieldError{Field: "payee", Message: "too long"})
	_, ok := l.GlobalError()
	assert.False(t, ok, "validation errors never set the global slot")

	last, ok := l.LastError()
	require.True(t, ok)
	assert.Equal(t, Validation, last.Kind)

	l.Report(errors.New("disk on fire"))
	g, ok := l.GlobalError()
	require.True(t, ok)
	assert.Equal(t, Runtime, g.Kind)
	assert.True(t, g.Retryable)

	l.ClearGlobal()
	_, ok = l.GlobalError()
	assert.False(t, ok)
}

func TestLog_Dismiss(t *testing.T) {
	l := NewLog()
	r := l.Report(errors.New("transient"))
	l.Dismiss(r.ID)
	assert.Empty(t, l.Records())
	_, ok := l.GlobalError()
	assert.False(t, ok)
}

// fakeQueue returns a queue whose clock is under test control.
func fakeQueue(t *testing.T) (*Queue, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	q := NewQueue(NewLog())
	q.now = func() time.Time { return now }
	return q, &now
}

func TestQueue_ExcludedClasses(t *testing.T) {
	q, _ := fakeQueue(t)

	_, ok := q.Enqueue(Request{Name: "entry.delete", Class: "delete"}, errors.New("boom"))
	assert.False(t, ok, "irreversible deletes are never retried")

	_, ok = q.Enqueue(Request{Name: "login", Class: "auth"}, errors.New("boom"))
	assert.False(t, ok, "authentication is never retried")

	_, ok = q.Enqueue(Request{Name: "entry.create", Class: "write"}, errors.New("boom"))
	assert.True(t, ok)
}

func TestQueue_NonRetryableNotEnqueued(t *testing.T) {
	q, _ := fakeQueue(t)
	_, ok := q.Enqueue(Request{Name: "entry.create"}, &BusinessError{Message: "nope"})
	assert.False(t, ok)
}

func TestQueue_BackoffMonotonicity(t *testing.T) {
	q, now := fakeQueue(t)
	ticket, ok := q.Enqueue(Request{Name: "entry.create"}, errors.New("boom"))
	require.True(t, ok)

	// first attempt is one second out.
	assert.Equal(t, now.Add(1*time.Second), ticket.NextRetryAt)

	q.Register("entry.create", func(ctx context.Context, req Request) error {
		return errors.New("still failing")
	})

	prev := ticket.NextRetryAt
	for attempt := 1; attempt <= DefaultMaxRetries; attempt++ {
		*now = prev.Add(time.Millisecond)
		q.Tick(context.Background())

		tickets := q.Tickets()
		require.Len(t, tickets, 1)
		got := tickets[0]
		assert.Equal(t, attempt, got.RetryCount)
		// 1000ms * 2^retryCount from the increment time.
		want := now.Add(time.Second << uint(attempt))
		assert.Equal(t, want, got.NextRetryAt)
		assert.True(t, got.NextRetryAt.After(prev), "nextRetryAt must strictly increase")
		prev = got.NextRetryAt
	}
}

func TestQueue_Exhaustion(t *testing.T) {
	log := NewLog()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	q := NewQueue(log)
	q.now = func() time.Time { return now }

	ticket, ok := q.Enqueue(Request{Name: "entry.create"}, errors.New("disk full"))
	require.True(t, ok)
	ticket.MaxRetries = 1

	// First pass: one retry is spent (no handler registered, ticket stays).
	now = now.Add(1100 * time.Millisecond)
	q.Tick(context.Background())
	require.Equal(t, 1, q.Len())

	// Second pass: budget exceeded, ticket removed, terminal record added.
	now = now.Add(3 * time.Second)
	q.Tick(context.Background())
	assert.Zero(t, q.Len())

	records := log.Records()
	require.Len(t, records, 1)
	assert.False(t, records[0].Retryable)
	assert.Contains(t, records[0].Message, "exceeded max retries")
}

func TestQueue_ReplaySuccessSettles(t *testing.T) {
	q, now := fakeQueue(t)
	var replayed []string
	q.Register("entry.update", func(ctx context.Context, req Request) error {
		replayed = append(replayed, req.Name)
		return nil
	})

	_, ok := q.Enqueue(Request{Name: "entry.update", Payload: "e-1"}, errors.New("boom"))
	require.True(t, ok)

	*now = now.Add(2 * time.Second)
	q.Tick(context.Background())

	assert.Equal(t, []string{"entry.update"}, replayed)
	assert.Zero(t, q.Len(), "a successful replay destroys the ticket")
}

func TestQueue_Cancel(t *testing.T) {
	q, _ := fakeQueue(t)
	ticket, ok := q.Enqueue(Request{Name: "entry.create"}, errors.New("boom"))
	require.True(t, ok)
	q.Cancel(ticket.ID)
	assert.Zero(t, q.Len())
}
