// Package session assembles the data layer of a tracker: one cache, one
// fault log, one retry queue, one progress tracker, and one notification
// store, all bound to a single backing repository.
//
// Reads go through the cache; writes go through the optimistic mutation
// engine, so callers observe their change immediately and the session
// reconciles or rolls back once the repository answers.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/cache"
	"github.com/kasaledger/kasa/date"
	"github.com/kasaledger/kasa/fault"
	"github.com/kasaledger/kasa/mutate"
	"github.com/kasaledger/kasa/notify"
	"github.com/kasaledger/kasa/progress"
	"github.com/kasaledger/kasa/store"
)

// tagEntries labels every cached query derived from the entry list, so one
// invalidation after a write refreshes them all.
const tagEntries = "entries"

// successNotice is how long a success notification stays up before the sweep
// removes it.
const successNotice = 4 * time.Second

// Session is the live data layer over one repository.
type Session struct {
	repo   store.Repository
	cache  *cache.Cache
	engine *mutate.Engine
	logger *slog.Logger

	// Errors holds the recent classified failures.
	Errors *fault.Log
	// Retries schedules replays of failed retryable writes.
	Retries *fault.Queue
	// Progress tracks long-running operations.
	Progress *progress.Tracker
	// Notifications holds the short-lived user-facing messages.
	Notifications *notify.Store
}

// New wires a session over the given repository and registers the replay
// handlers for retryable writes.
func New(repo store.Repository) *Session {
	log := fault.NewLog()
	queue := fault.NewQueue(log)
	c := cache.New()
	s := &Session{
		repo:          repo,
		cache:         c,
		engine:        mutate.New(c, log, queue),
		logger:        slog.Default().With("component", "session"),
		Errors:        log,
		Retries:       queue,
		Progress:      progress.NewTracker(),
		Notifications: notify.NewStore(),
	}
	queue.Register("entry.create", s.replayCreate)
	queue.Register("entry.update", s.replayUpdate)
	return s
}

// Run drives the periodic workers (retry queue, notification sweep) until
// ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	go s.Retries.Run(ctx, time.Second)
	s.Notifications.Run(ctx, time.Second)
}

// Close releases the backing repository.
func (s *Session) Close() error { return s.repo.Close() }

func sigEntry(id string) cache.Signature { return cache.NewSignature("entry", id) }

func sigEntries(f store.Filter) cache.Signature { return cache.NewSignature("entries", f) }

// Entries returns the entries matching the filter, from the cache when a
// fresh result is available.
func (s *Session) Entries(ctx context.Context, f store.Filter) ([]kasa.Entry, error) {
	sig := sigEntries(f)
	if r, ok := s.cache.Lookup(sig); ok && !r.Stale {
		if list, ok := r.Value.([]kasa.Entry); ok {
			return list, nil
		}
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		s.Errors.Report(err)
		return nil, err
	}
	s.cache.Put(sig, list, tagEntries)
	return list, nil
}

// Entry returns one entry by id, from the cache when possible.
func (s *Session) Entry(ctx context.Context, id string) (kasa.Entry, error) {
	sig := sigEntry(id)
	if r, ok := s.cache.Lookup(sig); ok && !r.Stale {
		if e, ok := r.Value.(kasa.Entry); ok {
			return e, nil
		}
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		s.Errors.Report(err)
		return kasa.Entry{}, err
	}
	s.cache.Put(sig, e, tagEntries)
	return e, nil
}

// Summary aggregates the month of 'on' into a MonthSummary.
func (s *Session) Summary(ctx context.Context, on kasa.Date, currency string) (kasa.MonthSummary, error) {
	entries, err := s.Entries(ctx, store.Filter{From: on.StartOf(date.Monthly), To: on.EndOf(date.Monthly)})
	if err != nil {
		return kasa.MonthSummary{}, err
	}
	return kasa.Summarize(entries, on, currency), nil
}

// BudgetStats computes the burn statistics of one budget for the month of 'on'.
func (s *Session) BudgetStats(ctx context.Context, b kasa.Budget, on kasa.Date) (kasa.BudgetStats, error) {
	entries, err := s.Entries(ctx, store.Filter{Category: b.Category, From: on.StartOf(date.Monthly), To: on.EndOf(date.Monthly)})
	if err != nil {
		return kasa.BudgetStats{}, err
	}
	return b.Stats(entries, on), nil
}

// WatchEntries subscribes to changes of the cached query for f. The returned
// function cancels the subscription.
func (s *Session) WatchEntries(f store.Filter, fn func()) (cancel func()) {
	return s.cache.Watch(sigEntries(f), func(cache.Signature) { fn() })
}

// CreateEntry validates and writes a new entry. The entry appears in cached
// queries immediately under a placeholder id; the placeholder is replaced by
// the store-assigned id once the write lands, or the cache is rolled back if
// it fails.
func (s *Session) CreateEntry(ctx context.Context, e kasa.Entry) (kasa.Entry, error) {
	e, err := kasa.ValidateEntry(e)
	if err != nil {
		s.reportEach(err)
		return kasa.Entry{}, err
	}
	e.ID = mutate.TempID()

	result, err := s.engine.Do(ctx, mutate.Mutation{
		Request: fault.Request{Name: "entry.create", Class: "create", Payload: e},
		Patches: []mutate.Patch{
			{Sig: sigEntry(e.ID), Apply: func(any) any { return e }},
			{Sig: sigEntries(store.Filter{}), Apply: appendEntry(e)},
		},
		Tags: []string{tagEntries},
		Commit: func(ctx context.Context) (any, error) {
			created, err := s.repo.Create(ctx, e)
			if err != nil {
				return nil, err
			}
			return created, nil
		},
		Reconcile: func(result any) []mutate.Patch {
			created := result.(kasa.Entry)
			return []mutate.Patch{
				{Sig: sigEntry(created.ID), Apply: func(any) any { return created }},
				{Sig: sigEntries(store.Filter{}), Apply: replaceEntry(e.ID, created)},
			}
		},
	})
	if err != nil {
		s.Notifications.Push(fmt.Sprintf("could not save entry: %v", err), notify.Error, notify.Options{Persistent: true})
		return kasa.Entry{}, err
	}
	created := result.(kasa.Entry)
	s.cache.Forget(sigEntry(e.ID))
	s.Notifications.Push("entry saved", notify.Success, notify.Options{Duration: successNotice})
	return created, nil
}

// UpdateEntry writes a modified entry, applying the change to cached queries
// before the repository confirms it.
func (s *Session) UpdateEntry(ctx context.Context, e kasa.Entry) (kasa.Entry, error) {
	e, err := kasa.ValidateEntry(e)
	if err != nil {
		s.reportEach(err)
		return kasa.Entry{}, err
	}

	result, err := s.engine.Do(ctx, mutate.Mutation{
		Request: fault.Request{Name: "entry.update", Class: "update", Payload: e},
		Patches: []mutate.Patch{
			{Sig: sigEntry(e.ID), Apply: func(any) any { return e }},
			{Sig: sigEntries(store.Filter{}), Apply: replaceEntry(e.ID, e)},
		},
		Tags: []string{tagEntries},
		Commit: func(ctx context.Context) (any, error) {
			return s.repo.Update(ctx, e)
		},
	})
	if err != nil {
		s.Notifications.Push(fmt.Sprintf("could not update entry: %v", err), notify.Error, notify.Options{Persistent: true})
		return kasa.Entry{}, err
	}
	s.Notifications.Push("entry updated", notify.Success, notify.Options{Duration: successNotice})
	return result.(kasa.Entry), nil
}

// DeleteEntry removes an entry. Deletes are never retried: their class is on
// the queue's exclusion list, so a failed delete rolls back and surfaces.
func (s *Session) DeleteEntry(ctx context.Context, id string) error {
	_, err := s.engine.Do(ctx, mutate.Mutation{
		Request: fault.Request{Name: "entry.delete", Class: "delete", Payload: id},
		Patches: []mutate.Patch{
			{Sig: sigEntries(store.Filter{}), Apply: removeEntry(id)},
		},
		Tags: []string{tagEntries},
		Commit: func(ctx context.Context) (any, error) {
			return nil, s.repo.Delete(ctx, id)
		},
	})
	if err != nil {
		s.Notifications.Push(fmt.Sprintf("could not delete entry: %v", err), notify.Error, notify.Options{Persistent: true})
		return err
	}
	s.cache.Forget(sigEntry(id))
	s.Notifications.Push("entry deleted", notify.Success, notify.Options{Duration: successNotice})
	return nil
}

// reportEach records every error of a joined validation failure on its own,
// so each offending field keeps its own record.
func (s *Session) reportEach(err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			s.Errors.Report(e)
		}
		return
	}
	s.Errors.Report(err)
}

// replayCreate re-issues a failed create from the retry queue.
func (s *Session) replayCreate(ctx context.Context, req fault.Request) error {
	e, ok := req.Payload.(kasa.Entry)
	if !ok {
		return fmt.Errorf("entry.create replay: unexpected payload %T", req.Payload)
	}
	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return err
	}
	s.cache.Put(sigEntry(created.ID), created, tagEntries)
	s.cache.Invalidate(tagEntries)
	s.Notifications.Push("entry saved after retry", notify.Success, notify.Options{Duration: successNotice})
	return nil
}

// replayUpdate re-issues a failed update from the retry queue. Last writer
// wins: the replayed payload overwrites whatever landed in between.
func (s *Session) replayUpdate(ctx context.Context, req fault.Request) error {
	e, ok := req.Payload.(kasa.Entry)
	if !ok {
		return fmt.Errorf("entry.update replay: unexpected payload %T", req.Payload)
	}
	updated, err := s.repo.Update(ctx, e)
	if err != nil {
		return err
	}
	s.cache.Put(sigEntry(updated.ID), updated, tagEntries)
	s.cache.Invalidate(tagEntries)
	s.Notifications.Push("entry updated after retry", notify.Success, notify.Options{Duration: successNotice})
	return nil
}

// Import reads a JSONL stream and creates every entry, reporting determinate
// progress along the way.
func (s *Session) Import(ctx context.Context, r io.Reader) (int, error) {
	const op = "import"
	entries, err := kasa.DecodeEntries(r)
	if err != nil {
		s.Errors.Report(err)
		return 0, err
	}
	s.Progress.Start(op, "importing entries", progress.Options{Message: fmt.Sprintf("0/%d", len(entries))})
	for i, e := range entries {
		if _, err := s.repo.Create(ctx, e); err != nil {
			s.Progress.Fail(op, fmt.Sprintf("failed at entry %d/%d", i+1, len(entries)))
			s.Errors.Report(err)
			return i, err
		}
		p := float64(i+1) / float64(len(entries)) * 100
		s.Progress.Update(op, &p, fmt.Sprintf("%d/%d", i+1, len(entries)))
	}
	s.cache.Invalidate(tagEntries)
	s.Progress.Complete(op, fmt.Sprintf("imported %d entries", len(entries)))
	s.logger.Info("import done", "entries", len(entries))
	return len(entries), nil
}

// Export writes the entries matching the filter as JSONL.
func (s *Session) Export(ctx context.Context, w io.Writer, f store.Filter) error {
	entries, err := s.Entries(ctx, f)
	if err != nil {
		return err
	}
	return kasa.EncodeEntries(w, entries)
}

// appendEntry returns a patch transformation adding e to a cached entry list.
func appendEntry(e kasa.Entry) func(old any) any {
	return func(old any) any {
		prev, _ := old.([]kasa.Entry)
		out := make([]kasa.Entry, 0, len(prev)+1)
		out = append(out, prev...)
		out = append(out, e)
		kasa.SortEntries(out)
		return out
	}
}

// replaceEntry returns a transformation swapping the entry with the given id
// for its replacement. Applying it twice is harmless: once the replacement is
// in place the id no longer matches and the list is returned unchanged.
func replaceEntry(id string, replacement kasa.Entry) func(old any) any {
	return func(old any) any {
		prev, _ := old.([]kasa.Entry)
		out := make([]kasa.Entry, len(prev))
		copy(out, prev)
		for i, e := range out {
			if e.ID == id {
				out[i] = replacement
			}
		}
		return out
	}
}

// removeEntry returns a transformation dropping the entry with the given id.
func removeEntry(id string) func(old any) any {
	return func(old any) any {
		prev, _ := old.([]kasa.Entry)
		out := make([]kasa.Entry, 0, len(prev))
		for _, e := range prev {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out
	}
}
