package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/jmoiron/sqlx"
)

const (
	getBracketQuery    = "SELECT * FROM brackets WHERE event_id = ?"
	upsertBracketQuery = `
		INSERT INTO brackets (event_id, version, format, status, data, updated_at)
		VALUES (?, 1, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			version = brackets.version + 1,
			format = excluded.format,
			status = excluded.status,
			data = excluded.data,
			updated_at = excluded.updated_at
		RETURNING version
	`
	insertSnapshotQuery = `
		INSERT INTO bracket_history (event_id, version, status, snapshot, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	listHistoryQuery = "SELECT * FROM bracket_history WHERE event_id = ? ORDER BY id ASC"
)

type bracketRow struct {
	EventID   string    `db:"event_id"`
	Version   int       `db:"version"`
	Format    string    `db:"format"`
	Status    string    `db:"status"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

type historyRow struct {
	ID        int64     `db:"id"`
	EventID   string    `db:"event_id"`
	Version   int       `db:"version"`
	Status    string    `db:"status"`
	Snapshot  string    `db:"snapshot"`
	CreatedAt time.Time `db:"created_at"`
}

// BracketStore keeps brackets as JSON documents in sqlite. Every write is a
// single transaction, so readers see either the old or the new version.
type BracketStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewBracketStore(db *sqlx.DB) *BracketStore {
	return &BracketStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *BracketStore) Create(ctx context.Context, eventID string, b *bracket.Bracket) (*Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := s.upsertTx(ctx, tx, eventID, b)
	if err != nil {
		return nil, err
	}
	if err := s.snapshotTx(ctx, tx, eventID, rec.Version, b); err != nil {
		return nil, err
	}
	return rec, tx.Commit()
}

func (s *BracketStore) Save(ctx context.Context, eventID string, b *bracket.Bracket) (*Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := s.upsertTx(ctx, tx, eventID, b)
	if err != nil {
		return nil, err
	}
	return rec, tx.Commit()
}

func (s *BracketStore) Get(ctx context.Context, eventID string) (*Record, error) {
	var row bracketRow
	err := s.db.GetContext(ctx, &row, getBracketQuery, eventID)
	if err != nil {
		return nil, notFound(err, eventID)
	}
	return row.record()
}

func (s *BracketStore) Reset(ctx context.Context, eventID string) (*Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var row bracketRow
	if err := tx.GetContext(ctx, &row, getBracketQuery, eventID); err != nil {
		return nil, notFound(err, eventID)
	}
	current, err := row.record()
	if err != nil {
		return nil, err
	}

	cleared, err := bracket.Reset(current.Bracket)
	if err != nil {
		return nil, err
	}

	if err := s.snapshotTx(ctx, tx, eventID, current.Version, current.Bracket); err != nil {
		return nil, err
	}
	rec, err := s.upsertTx(ctx, tx, eventID, cleared)
	if err != nil {
		return nil, err
	}
	return rec, tx.Commit()
}

func (s *BracketStore) History(ctx context.Context, eventID string) ([]HistoryEntry, error) {
	var rows []historyRow
	err := s.db.SelectContext(ctx, &rows, listHistoryQuery, eventID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: event %q", bracket.ErrNotFound, eventID)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		var b bracket.Bracket
		if err := json.Unmarshal([]byte(row.Snapshot), &b); err != nil {
			return nil, fmt.Errorf("failed to decode history %d: %w", row.ID, err)
		}
		entries = append(entries, HistoryEntry{
			Version:   row.Version,
			CreatedAt: row.CreatedAt,
			Status:    bracket.Status(row.Status),
			Bracket:   &b,
		})
	}
	return entries, nil
}

func (s *BracketStore) upsertTx(ctx context.Context, tx *sqlx.Tx, eventID string, b *bracket.Bracket) (*Record, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket: %w", err)
	}

	now := s.now()
	var version int
	err = tx.GetContext(ctx, &version, upsertBracketQuery, eventID, b.Type, b.Status, string(data), now)
	if err != nil {
		return nil, fmt.Errorf("failed to save bracket: %w", err)
	}

	return &Record{EventID: eventID, Version: version, UpdatedAt: now, Bracket: b.Clone()}, nil
}

func (s *BracketStore) snapshotTx(ctx context.Context, tx *sqlx.Tx, eventID string, version int, b *bracket.Bracket) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx, insertSnapshotQuery, eventID, version, b.Status, string(data), s.now())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *bracketRow) record() (*Record, error) {
	var b bracket.Bracket
	if err := json.Unmarshal([]byte(r.Data), &b); err != nil {
		return nil, fmt.Errorf("failed to decode bracket for event %q: %w", r.EventID, err)
	}
	return &Record{EventID: r.EventID, Version: r.Version, UpdatedAt: r.UpdatedAt, Bracket: &b}, nil
}

func notFound(err error, eventID string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: event %q", bracket.ErrNotFound, eventID)
	}
	return err
}
