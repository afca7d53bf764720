package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
)

// Record is the current bracket of one event.
type Record struct {
	EventID   string
	Version   int
	UpdatedAt time.Time
	Bracket   *bracket.Bracket
}

// HistoryEntry is a read-only snapshot. Version is the bracket version the
// snapshot was taken from.
type HistoryEntry struct {
	Version   int
	CreatedAt time.Time
	Status    bracket.Status
	Bracket   *bracket.Bracket
}

// Store persists one bracket per event plus its history. Writes are
// last-writer-wins; callers serialize read-modify-write cycles themselves.
type Store interface {
	// Create replaces the event's bracket and snapshots it into history.
	Create(ctx context.Context, eventID string, b *bracket.Bracket) (*Record, error)
	Save(ctx context.Context, eventID string, b *bracket.Bracket) (*Record, error)
	Get(ctx context.Context, eventID string) (*Record, error)
	// Reset snapshots the current bracket into history and replaces it with
	// a cleared copy.
	Reset(ctx context.Context, eventID string) (*Record, error)
	// History is ordered oldest first.
	History(ctx context.Context, eventID string) ([]HistoryEntry, error)
}
