package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
)

// MemoryStore keeps everything in process. Stored brackets are private
// copies that are replaced, never edited.
type MemoryStore struct {
	mu      sync.RWMutex
	current map[string]*Record
	history map[string][]HistoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		current: make(map[string]*Record),
		history: make(map[string][]HistoryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, eventID string, b *bracket.Bracket) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.put(eventID, b)
	s.snapshot(eventID, rec.Version, b)
	return copyRecord(rec), nil
}

func (s *MemoryStore) Save(_ context.Context, eventID string, b *bracket.Bracket) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyRecord(s.put(eventID, b)), nil
}

func (s *MemoryStore) Get(_ context.Context, eventID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.current[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: event %q", bracket.ErrNotFound, eventID)
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) Reset(_ context.Context, eventID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.current[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: event %q", bracket.ErrNotFound, eventID)
	}

	cleared, err := bracket.Reset(cur.Bracket)
	if err != nil {
		return nil, err
	}

	s.snapshot(eventID, cur.Version, cur.Bracket)
	return copyRecord(s.put(eventID, cleared)), nil
}

func (s *MemoryStore) History(_ context.Context, eventID string) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[eventID]
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: event %q", bracket.ErrNotFound, eventID)
	}

	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		e.Bracket = e.Bracket.Clone()
		out[i] = e
	}
	return out, nil
}

func (s *MemoryStore) put(eventID string, b *bracket.Bracket) *Record {
	version := 1
	if prev, ok := s.current[eventID]; ok {
		version = prev.Version + 1
	}
	rec := &Record{EventID: eventID, Version: version, UpdatedAt: s.now(), Bracket: b.Clone()}
	s.current[eventID] = rec
	return rec
}

func (s *MemoryStore) snapshot(eventID string, version int, b *bracket.Bracket) {
	s.history[eventID] = append(s.history[eventID], HistoryEntry{
		Version:   version,
		CreatedAt: s.now(),
		Status:    b.Status,
		Bracket:   b.Clone(),
	})
}

func copyRecord(r *Record) *Record {
	out := *r
	out.Bracket = r.Bracket.Clone()
	return &out
}
