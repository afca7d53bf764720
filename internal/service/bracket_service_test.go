package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/db"
	"github.com/AdamBeresnev/bracket-engine/internal/metrics"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")
	return database
}

func newServices(t *testing.T, s store.Store) (*BracketService, *BracketReader) {
	t.Helper()
	return NewBracketService(s, metrics.New()), NewBracketReader(s)
}

func backends(t *testing.T) map[string]store.Store {
	return map[string]store.Store{
		"sqlite": store.NewBracketStore(setupTestDB(t)),
		"memory": store.NewMemoryStore(),
	}
}

func teams(n int) []bracket.Entrant {
	out := make([]bracket.Entrant, n)
	for i := range out {
		out[i] = bracket.Entrant{ID: fmt.Sprintf("team-%d", i+1), Name: fmt.Sprintf("Team %d", i+1)}
	}
	return out
}

func TestReportResultAdvancesWinner(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc, reader := newServices(t, s)

			rec, err := svc.Generate(ctx, "cup", bracket.GenerateRequest{
				Format:   bracket.SingleElimination,
				Entrants: teams(4),
			})
			require.NoError(t, err)
			assert.Equal(t, 1, rec.Version)

			rec, err = svc.ReportResult(ctx, "cup", bracket.Result{MatchID: "R1M1", Winner: 1, Score1: 2, Score2: 0})
			require.NoError(t, err)
			assert.Equal(t, 2, rec.Version)

			view, err := reader.Current(ctx, "cup")
			require.NoError(t, err)
			assert.Equal(t, 2, view.Version)
			assert.Equal(t, bracket.BracketOngoing, view.Bracket.Status)
			assert.Equal(t, []string{"R1M2"}, view.ReadyMatches)
			require.NotNil(t, view.NextMatchID)
			assert.Equal(t, "R1M2", *view.NextMatchID)

			final, ok := view.Bracket.FindMatch("R2M1")
			require.True(t, ok)
			require.NotNil(t, final.Team1)
			assert.Equal(t, "team-1", final.Team1.ID)
			assert.Nil(t, final.Team2)
		})
	}
}

func TestFailedReportLeavesBracketUntouched(t *testing.T) {
	ctx := context.Background()
	svc, reader := newServices(t, store.NewMemoryStore())

	_, err := svc.Generate(ctx, "cup", bracket.GenerateRequest{Format: bracket.SingleElimination, Entrants: teams(4)})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		eventID  string
		result   bracket.Result
		expected error
	}{
		{
			name:     "unknown event",
			eventID:  "nope",
			result:   bracket.Result{MatchID: "R1M1", Winner: 1, Score1: 1, Score2: 0},
			expected: bracket.ErrNotFound,
		},
		{
			name:     "unknown match",
			eventID:  "cup",
			result:   bracket.Result{MatchID: "R7M1", Winner: 1, Score1: 1, Score2: 0},
			expected: bracket.ErrNotFound,
		},
		{
			name:     "tie",
			eventID:  "cup",
			result:   bracket.Result{MatchID: "R1M1", Winner: 1, Score1: 2, Score2: 2},
			expected: bracket.ErrInconsistentResult,
		},
		{
			name:     "final not ready",
			eventID:  "cup",
			result:   bracket.Result{MatchID: "R2M1", Winner: 1, Score1: 1, Score2: 0},
			expected: bracket.ErrMatchNotReady,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ReportResult(ctx, tc.eventID, tc.result)
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	view, err := reader.Current(ctx, "cup")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Version)
	assert.Equal(t, bracket.BracketPending, view.Bracket.Status)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, reader := newServices(t, store.NewMemoryStore())

	_, err := svc.Generate(ctx, "cup", bracket.GenerateRequest{Format: bracket.SingleElimination, Entrants: teams(1)})
	assert.ErrorIs(t, err, bracket.ErrInsufficientEntrants)

	_, err = svc.Generate(ctx, "cup", bracket.GenerateRequest{Format: "round_robin", Entrants: teams(4)})
	assert.ErrorIs(t, err, bracket.ErrUnsupportedFormat)

	_, err = reader.Current(ctx, "cup")
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

func TestConcurrentReportsAreSerialized(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc, reader := newServices(t, s)

			_, err := svc.Generate(ctx, "cup", bracket.GenerateRequest{Format: bracket.SingleElimination, Entrants: teams(16)})
			require.NoError(t, err)

			view, err := reader.Current(ctx, "cup")
			require.NoError(t, err)
			require.Len(t, view.ReadyMatches, 8)

			var wg sync.WaitGroup
			errs := make(chan error, len(view.ReadyMatches))
			for _, id := range view.ReadyMatches {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					_, err := svc.ReportResult(ctx, "cup", bracket.Result{MatchID: id, Winner: 1, Score1: 1, Score2: 0})
					errs <- err
				}(id)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			view, err = reader.Current(ctx, "cup")
			require.NoError(t, err)
			assert.Equal(t, 9, view.Version)

			_, completed := view.Bracket.Counts()
			assert.Equal(t, 8, completed)
			assert.Len(t, view.ReadyMatches, 4)
			assert.Empty(t, svc.locks)
		})
	}
}

func TestStartMatch(t *testing.T) {
	ctx := context.Background()
	svc, reader := newServices(t, store.NewMemoryStore())

	_, err := svc.Generate(ctx, "cup", bracket.GenerateRequest{Format: bracket.SingleElimination, Entrants: teams(4)})
	require.NoError(t, err)

	rec, err := svc.StartMatch(ctx, "cup", "R1M2")
	require.NoError(t, err)
	m, ok := rec.Bracket.FindMatch("R1M2")
	require.True(t, ok)
	assert.Equal(t, bracket.MatchLive, m.Status)

	_, err = svc.StartMatch(ctx, "cup", "R2M1")
	assert.ErrorIs(t, err, bracket.ErrMatchNotReady)

	// a live match can still be reported
	_, err = svc.ReportResult(ctx, "cup", bracket.Result{MatchID: "R1M2", Winner: 2, Score1: 0, Score2: 3})
	require.NoError(t, err)

	view, err := reader.Current(ctx, "cup")
	require.NoError(t, err)
	m, ok = view.Bracket.FindMatch("R1M2")
	require.True(t, ok)
	assert.Equal(t, bracket.MatchCompleted, m.Status)
}

func TestResetAndHistory(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc, reader := newServices(t, s)

			_, err := svc.Generate(ctx, "cup", bracket.GenerateRequest{
				Format:   bracket.DoubleElimination,
				Entrants: teams(4),
			})
			require.NoError(t, err)

			for _, res := range []bracket.Result{
				{MatchID: "WR1M1", Winner: 1, Score1: 2, Score2: 0},
				{MatchID: "WR1M2", Winner: 1, Score1: 2, Score2: 1},
			} {
				_, err = svc.ReportResult(ctx, "cup", res)
				require.NoError(t, err)
			}

			rec, err := svc.ResetBracket(ctx, "cup")
			require.NoError(t, err)
			assert.Equal(t, 4, rec.Version)
			assert.Equal(t, bracket.BracketPending, rec.Bracket.Status)
			total, completed := rec.Bracket.Counts()
			assert.Equal(t, 0, completed)

			history, err := reader.History(ctx, "cup", NewestFirst)
			require.NoError(t, err)
			require.Len(t, history, 2)

			assert.Equal(t, 3, history[0].Version)
			assert.Equal(t, bracket.BracketOngoing, history[0].Status)
			assert.Equal(t, total, history[0].MatchCount)
			assert.Equal(t, 2, history[0].CompletedMatches)

			assert.Equal(t, 1, history[1].Version)
			assert.Equal(t, bracket.BracketPending, history[1].Status)
			assert.Equal(t, 0, history[1].CompletedMatches)

			oldest, err := reader.History(ctx, "cup", OldestFirst)
			require.NoError(t, err)
			assert.Equal(t, []int{1, 3}, []int{oldest[0].Version, oldest[1].Version})
		})
	}
}

func TestReadsDoNotMutateStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc, reader := newServices(t, s)

	_, err := svc.Generate(ctx, "cup", bracket.GenerateRequest{Format: bracket.SingleElimination, Entrants: teams(4)})
	require.NoError(t, err)

	view, err := reader.Current(ctx, "cup")
	require.NoError(t, err)
	view.Bracket.Status = bracket.BracketCompleted
	view.Bracket.Rounds[0].Matches[0].Finished = true

	again, err := reader.Current(ctx, "cup")
	require.NoError(t, err)
	assert.Equal(t, bracket.BracketPending, again.Bracket.Status)
	assert.False(t, again.Bracket.Rounds[0].Matches[0].Finished)
	assert.Equal(t, 1, again.Version)
}

func TestEventLocksAreReleased(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t, store.NewMemoryStore())

	for i := 0; i < 50; i++ {
		eventID := fmt.Sprintf("qualifier-%d", i)
		_, err := svc.Generate(ctx, eventID, bracket.GenerateRequest{Format: bracket.SingleElimination, Entrants: teams(4)})
		require.NoError(t, err)
		_, err = svc.ReportResult(ctx, eventID, bracket.Result{MatchID: "R1M1", Winner: 1, Score1: 1, Score2: 0})
		require.NoError(t, err)
	}
	_, err := svc.ResetBracket(ctx, "qualifier-0")
	require.NoError(t, err)

	// failed operations release their lock too
	_, err = svc.StartMatch(ctx, "unknown", "R1M1")
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}

func TestEventLockIsSharedWhileHeld(t *testing.T) {
	svc, _ := newServices(t, store.NewMemoryStore())

	unlock := svc.lock("cup")
	acquired := make(chan struct{})
	go func() {
		release := svc.lock("cup")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second writer entered while the first held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second writer never acquired the lock")
	}

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.locks) == 0
	}, time.Second, 5*time.Millisecond)
}
