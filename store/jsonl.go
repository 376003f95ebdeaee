package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/fault"
	"github.com/kasaledger/kasa/mutate"
)

// JSONL is a Repository over one human-readable, version-controllable JSONL
// ledger file (one entry per line). The whole book is kept in memory;
// creates append a single line, updates and deletes rewrite the file in
// canonical order.
type JSONL struct {
	mu      sync.Mutex
	path    string
	entries []kasa.Entry
}

// OpenJSONL opens (or creates) the ledger file at path.
func OpenJSONL(path string) (*JSONL, error) {
	s := &JSONL{path: path}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil // an empty book
	}
	if err != nil {
		return nil, storageErr(fmt.Sprintf("could not open ledger file %q", path), err)
	}
	defer f.Close()

	entries, err := kasa.DecodeEntries(f)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("could not decode ledger file %q", path), err)
	}
	s.entries = entries
	return s, nil
}

// Create appends the entry, assigning the authoritative id in place of any
// placeholder.
func (s *JSONL) Create(ctx context.Context, e kasa.Entry) (kasa.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" || mutate.IsTempID(e.ID) {
		e.ID = uuid.NewString()
	}
	for _, existing := range s.entries {
		if existing.ID == e.ID {
			return kasa.Entry{}, &Error{Message: fmt.Sprintf("entry %q already exists", e.ID), Kind: fault.Storage, Retryable: false}
		}
	}
	if err := s.append(e); err != nil {
		return kasa.Entry{}, err
	}
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *JSONL) Get(ctx context.Context, id string) (kasa.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return kasa.Entry{}, notFoundErr(id)
}

func (s *JSONL) Update(ctx context.Context, e kasa.Entry) (kasa.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.entries {
		if existing.ID == e.ID {
			prev := s.entries[i]
			s.entries[i] = e
			if err := s.rewrite(); err != nil {
				s.entries[i] = prev
				return kasa.Entry{}, err
			}
			return e, nil
		}
	}
	return kasa.Entry{}, notFoundErr(e.ID)
}

func (s *JSONL) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.entries {
		if existing.ID == id {
			prev := s.entries
			s.entries = append(append([]kasa.Entry{}, s.entries[:i]...), s.entries[i+1:]...)
			if err := s.rewrite(); err != nil {
				s.entries = prev
				return err
			}
			return nil
		}
	}
	return notFoundErr(id)
}

func (s *JSONL) List(ctx context.Context, f Filter) ([]kasa.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []kasa.Entry
	for _, e := range s.entries {
		ok, err := f.Matches(e)
		if err != nil {
			return nil, storageErr("could not apply filter", err)
		}
		if ok {
			out = append(out, e)
		}
	}
	kasa.SortEntries(out)
	return out, nil
}

// Close is a no-op: every write already reached the file.
func (s *JSONL) Close() error { return nil }

// append writes one entry at the end of the ledger file.
func (s *JSONL) append(e kasa.Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return storageErr(fmt.Sprintf("could not create ledger directory for %q", s.path), err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return storageErr(fmt.Sprintf("could not open ledger file %q", s.path), err)
	}
	defer f.Close()
	if err := kasa.EncodeEntry(f, e); err != nil {
		return storageErr(fmt.Sprintf("could not append to ledger file %q", s.path), err)
	}
	return nil
}

// rewrite persists the whole book in canonical (chronological) order.
func (s *JSONL) rewrite() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return storageErr(fmt.Sprintf("could not create ledger directory for %q", s.path), err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return storageErr(fmt.Sprintf("could not rewrite ledger file %q", s.path), err)
	}
	defer f.Close()
	if err := kasa.EncodeEntries(f, s.entries); err != nil {
		return storageErr(fmt.Sprintf("could not rewrite ledger file %q", s.path), err)
	}
	return nil
}
