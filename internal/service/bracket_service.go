package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/metrics"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
)

// BracketService runs every mutating operation as a read-modify-write cycle
// under a per-event lock. Different events never wait on each other.
type BracketService struct {
	store   store.Store
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*eventLock
}

// eventLock is dropped from the map once nobody holds or waits for it.
type eventLock struct {
	mu   sync.Mutex
	refs int
}

func NewBracketService(s store.Store, m *metrics.Metrics) *BracketService {
	return &BracketService{store: s, metrics: m, locks: make(map[string]*eventLock)}
}

func (s *BracketService) lock(eventID string) func() {
	s.mu.Lock()
	l, ok := s.locks[eventID]
	if !ok {
		l = &eventLock{}
		s.locks[eventID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, eventID)
		}
		s.mu.Unlock()
	}
}

// Generate builds a fresh bracket for the event, replacing any previous one.
func (s *BracketService) Generate(ctx context.Context, eventID string, req bracket.GenerateRequest) (rec *store.Record, err error) {
	defer s.observe("generate", time.Now(), &err)
	defer s.lock(eventID)()

	b, err := bracket.Generate(req)
	if err != nil {
		return nil, err
	}

	rec, err = s.store.Create(ctx, eventID, b)
	if err != nil {
		return nil, err
	}

	total, _ := b.Counts()
	slog.Info("bracket generated",
		"event_id", eventID,
		"format", b.Type,
		"entrants", len(b.Entrants),
		"matches", total,
		"version", rec.Version,
	)
	return rec, nil
}

func (s *BracketService) ReportResult(ctx context.Context, eventID string, res bracket.Result) (rec *store.Record, err error) {
	defer s.observe("report_result", time.Now(), &err)
	defer s.lock(eventID)()

	cur, err := s.store.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	next, err := bracket.UpdateMatchResult(cur.Bracket, res)
	if err != nil {
		return nil, err
	}

	rec, err = s.store.Save(ctx, eventID, next)
	if err != nil {
		return nil, err
	}

	slog.Info("match result reported",
		"event_id", eventID,
		"match_id", res.MatchID,
		"winner", res.Winner,
		"score", []int{res.Score1, res.Score2},
		"status", next.Status,
		"version", rec.Version,
	)
	return rec, nil
}

func (s *BracketService) StartMatch(ctx context.Context, eventID, matchID string) (rec *store.Record, err error) {
	defer s.observe("start_match", time.Now(), &err)
	defer s.lock(eventID)()

	cur, err := s.store.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	next, err := bracket.StartMatch(cur.Bracket, matchID)
	if err != nil {
		return nil, err
	}

	rec, err = s.store.Save(ctx, eventID, next)
	if err != nil {
		return nil, err
	}

	slog.Info("match started", "event_id", eventID, "match_id", matchID, "version", rec.Version)
	return rec, nil
}

// ResetBracket clears every result. The bracket as it was before the reset
// is kept in history.
func (s *BracketService) ResetBracket(ctx context.Context, eventID string) (rec *store.Record, err error) {
	defer s.observe("reset", time.Now(), &err)
	defer s.lock(eventID)()

	rec, err = s.store.Reset(ctx, eventID)
	if err != nil {
		return nil, err
	}

	slog.Info("bracket reset", "event_id", eventID, "version", rec.Version)
	return rec, nil
}

func (s *BracketService) observe(operation string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(operation, start, *err)
}
