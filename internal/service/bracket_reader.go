package service

import (
	"context"
	"slices"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/AdamBeresnev/bracket-engine/internal/utils"
)

type BracketView struct {
	EventID      string           `json:"event_id"`
	Version      int              `json:"version"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Bracket      *bracket.Bracket `json:"bracket"`
	ReadyMatches []string         `json:"ready_matches"`
	NextMatchID  *string          `json:"next_match_id"`
}

type HistoryEntry struct {
	Version          int              `json:"version"`
	CreatedAt        time.Time        `json:"created_at"`
	Status           bracket.Status   `json:"status"`
	MatchCount       int              `json:"match_count"`
	CompletedMatches int              `json:"completed_matches"`
	BracketSnapshot  *bracket.Bracket `json:"bracket_snapshot"`
}

type HistoryOrder int

const (
	NewestFirst HistoryOrder = iota
	OldestFirst
)

// BracketReader is the read path. It takes no locks and never writes.
type BracketReader struct {
	store store.Store
}

func NewBracketReader(s store.Store) *BracketReader {
	return &BracketReader{store: s}
}

func (r *BracketReader) Current(ctx context.Context, eventID string) (*BracketView, error) {
	rec, err := r.store.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return NewBracketView(rec), nil
}

func NewBracketView(rec *store.Record) *BracketView {
	view := &BracketView{
		EventID:      rec.EventID,
		Version:      rec.Version,
		UpdatedAt:    rec.UpdatedAt,
		Bracket:      rec.Bracket,
		ReadyMatches: []string{},
	}
	for _, m := range rec.Bracket.ReadyMatches() {
		view.ReadyMatches = append(view.ReadyMatches, m.ID)
	}
	if len(view.ReadyMatches) > 0 {
		view.NextMatchID = utils.Ptr(view.ReadyMatches[0])
	}
	return view
}

func (r *BracketReader) History(ctx context.Context, eventID string, order HistoryOrder) ([]HistoryEntry, error) {
	snapshots, err := r.store.History(ctx, eventID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(snapshots))
	for _, snap := range snapshots {
		total, completed := snap.Bracket.Counts()
		entries = append(entries, HistoryEntry{
			Version:          snap.Version,
			CreatedAt:        snap.CreatedAt,
			Status:           snap.Status,
			MatchCount:       total,
			CompletedMatches: completed,
			BracketSnapshot:  snap.Bracket,
		})
	}

	if order == NewestFirst {
		slices.Reverse(entries)
	}
	return entries, nil
}
