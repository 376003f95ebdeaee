// Package notify keeps the short-lived, capacity-bounded user-facing
// messages produced by long operations and failure handling.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxNotifications bounds the store; the oldest notification is evicted
// first, independently of expiry.
const maxNotifications = 20

// Kind is the tone of a notification.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// Notification is one ephemeral user-facing message.
type Notification struct {
	ID         string
	Message    string
	Kind       Kind
	Duration   time.Duration // zero means no expiry
	Persistent bool          // survives every sweep
	Timestamp  time.Time
}

// Options configures Push.
type Options struct {
	Duration   time.Duration
	Persistent bool
}

// Store is the bounded notification list. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	list     []Notification
	onchange func()
	now      func() time.Time
}

// NewStore creates an empty notification store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// OnChange installs a callback invoked after every state change.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onchange = fn
}

// Push appends a notification, evicting the oldest once over capacity, and
// returns its id.
func (s *Store) Push(message string, kind Kind, opts Options) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := Notification{
		ID:         uuid.NewString(),
		Message:    message,
		Kind:       kind,
		Duration:   opts.Duration,
		Persistent: opts.Persistent,
		Timestamp:  s.now(),
	}
	s.list = append(s.list, n)
	if len(s.list) > maxNotifications {
		s.list = s.list[len(s.list)-maxNotifications:]
	}
	s.notifyLocked()
	return n.ID
}

// Dismiss removes the notification with the given id.
func (s *Store) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.list[:0]
	for _, n := range s.list {
		if n.ID != id {
			out = append(out, n)
		}
	}
	s.list = out
	s.notifyLocked()
}

// SweepExpired drops every non-persistent notification whose duration has
// elapsed. It is a pure filter, meant to be driven by a periodic timer.
func (s *Store) SweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := s.list[:0]
	changed := false
	for _, n := range s.list {
		if !n.Persistent && n.Duration > 0 && now.Sub(n.Timestamp) >= n.Duration {
			changed = true
			continue
		}
		out = append(out, n)
	}
	s.list = out
	if changed {
		s.notifyLocked()
	}
}

// Run sweeps at a fixed cadence until ctx is cancelled.
func (s *Store) Run(ctx context.Context, cadence time.Duration) {
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpired()
		}
	}
}

// Notifications returns a snapshot, oldest first.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.list))
	copy(out, s.list)
	return out
}

func (s *Store) notifyLocked() {
	if s.onchange != nil {
		go s.onchange()
	}
}
