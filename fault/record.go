package fault

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxRecords bounds the error log; the oldest record is evicted first.
const maxRecords = 10

// Record is one classified failure, suitable for display.
type Record struct {
	ID        string
	Message   string
	Kind      Kind
	Field     string
	Retryable bool
	Timestamp time.Time
}

// Log is a bounded, ordered list of error records. It additionally tracks
// the most recent record of any kind (LastError) and the most recent
// storage/runtime record (GlobalError), which an application surfaces as a
// global banner. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	records []Record
	global  *Record
	last    *Record

	now func() time.Time
}

// NewLog creates an empty error log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Report classifies err, appends the resulting record and returns it.
func (l *Log) Report(err error) Record {
	c := Classify(err)
	return l.Add(Record{
		Message:   err.Error(),
		Kind:      c.Kind,
		Field:     c.Field,
		Retryable: c.Retryable,
	})
}

// Add appends a record, assigning it an id and a timestamp if missing.
// A field-tagged validation record replaces any live record for the same
// field, so at most one validation error per field is retained. The log
// is capped at 10 records, oldest evicted first. Validation records never
// touch the global error slot.
func (l *Log) Add(r Record) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = l.now()
	}

	if r.Field != "" {
		l.records = deleteByField(l.records, r.Field)
	}
	l.records = append(l.records, r)
	if len(l.records) > maxRecords {
		l.records = l.records[len(l.records)-maxRecords:]
	}

	l.last = &r
	if r.Kind == Storage || r.Kind == Runtime {
		g := r
		l.global = &g
	}
	return r
}

func deleteByField(records []Record, field string) []Record {
	out := records[:0]
	for _, r := range records {
		if r.Field != field {
			out = append(out, r)
		}
	}
	return out
}

// Records returns a snapshot of the live records, oldest first.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// FieldError returns the live validation record for the given field, if any.
func (l *Log) FieldError(field string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Field == field && l.records[i].Kind == Validation {
			return l.records[i], true
		}
	}
	return Record{}, false
}

// GlobalError returns the most recent storage/runtime record, or false when
// the global slot is clear.
func (l *Log) GlobalError() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.global == nil {
		return Record{}, false
	}
	return *l.global, true
}

// LastError returns the most recent record of any kind.
func (l *Log) LastError() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return Record{}, false
	}
	return *l.last, true
}

// Dismiss removes the record with the given id, clearing the global/last
// slots if they pointed at it.
func (l *Log) Dismiss(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.records[:0]
	for _, r := range l.records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	l.records = out
	if l.global != nil && l.global.ID == id {
		l.global = nil
	}
	if l.last != nil && l.last.ID == id {
		l.last = nil
	}
}

// ClearGlobal empties the global error slot without touching the records.
func (l *Log) ClearGlobal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.global = nil
}
