package bracket

import "fmt"

type Result struct {
	MatchID string `json:"match_id"`
	Winner  int    `json:"winner"`
	Score1  int    `json:"score1"`
	Score2  int    `json:"score2"`
}

func (r Result) validate() error {
	if r.Winner != 1 && r.Winner != 2 {
		return fmt.Errorf("%w: match %q: winner must be 1 or 2, got %d", ErrInconsistentResult, r.MatchID, r.Winner)
	}
	if r.Score1 < 0 || r.Score2 < 0 {
		return fmt.Errorf("%w: match %q: negative score %d-%d", ErrInconsistentResult, r.MatchID, r.Score1, r.Score2)
	}
	if r.Score1 == r.Score2 {
		return fmt.Errorf("%w: match %q: tied score %d-%d", ErrInconsistentResult, r.MatchID, r.Score1, r.Score2)
	}
	expected := 1
	if r.Score2 > r.Score1 {
		expected = 2
	}
	if r.Winner != expected {
		return fmt.Errorf("%w: match %q: winner %d but score %d-%d says winner %d",
			ErrInconsistentResult, r.MatchID, r.Winner, r.Score1, r.Score2, expected)
	}
	return nil
}

// UpdateMatchResult applies a reported result and returns the new bracket.
// b is never modified; every check runs before anything is written.
func UpdateMatchResult(b *Bracket, res Result) (*Bracket, error) {
	current, ok := b.FindMatch(res.MatchID)
	if !ok {
		return nil, fmt.Errorf("%w: match %q", ErrNotFound, res.MatchID)
	}
	if current.Finished {
		return nil, fmt.Errorf("%w: match %q", ErrAlreadyCompleted, res.MatchID)
	}
	if current.Team1 == nil || current.Team2 == nil {
		return nil, fmt.Errorf("%w: match %q is waiting for an opponent", ErrMatchNotReady, res.MatchID)
	}
	if err := res.validate(); err != nil {
		return nil, err
	}

	next := b.Clone()
	m, _ := next.FindMatch(res.MatchID)

	m.Team1Score = res.Score1
	m.Team2Score = res.Score2
	m.Status = MatchCompleted
	m.Finished = true
	m.Winner = res.Winner

	if next.Double != nil && m == &next.Double.GrandFinal && next.Options.GrandFinalReset &&
		next.Double.GrandFinalReset == nil && res.Winner == 2 {
		openGrandFinalReset(next.Double, m)
	}

	if err := route(next, m.WinnerSlot, m.WinnerTeam()); err != nil {
		return nil, err
	}
	if err := route(next, m.LoserSlot, m.LoserTeam()); err != nil {
		return nil, err
	}
	if err := resolveByes(next); err != nil {
		return nil, err
	}

	next.Status = next.nextStatus()
	return next, nil
}

// openGrandFinalReset creates the deciding second grand final after the
// lower bracket champion took the first one. Both finalists then have one
// loss; the upper champion keeps slot 1.
func openGrandFinalReset(ds *DoubleStage, first *Match) {
	ds.GrandFinalReset = &Match{
		ID:       grandFinalResetID,
		Round:    first.Round + 1,
		Segment:  GrandFinalSegment,
		Position: 1,
		Status:   MatchUpcoming,
	}
	first.WinnerSlot = &MatchRef{MatchID: grandFinalResetID, Slot: 2}
	first.LoserSlot = &MatchRef{MatchID: grandFinalResetID, Slot: 1}
}

// StartMatch marks a ready match as live. Starting a live match again is a
// no-op.
func StartMatch(b *Bracket, matchID string) (*Bracket, error) {
	current, ok := b.FindMatch(matchID)
	if !ok {
		return nil, fmt.Errorf("%w: match %q", ErrNotFound, matchID)
	}
	if current.Finished {
		return nil, fmt.Errorf("%w: match %q", ErrAlreadyCompleted, matchID)
	}
	if current.Team1 == nil || current.Team2 == nil {
		return nil, fmt.Errorf("%w: match %q is waiting for an opponent", ErrMatchNotReady, matchID)
	}

	next := b.Clone()
	m, _ := next.FindMatch(matchID)
	m.Status = MatchLive
	return next, nil
}

// Reset rebuilds the bracket from its seeded entrants: every result is
// cleared and the same seeds land in the same slots with the same ids.
func Reset(b *Bracket) (*Bracket, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	fresh, err := Build(b.PlayoffFormat(), b.Entrants, b.Options)
	if err != nil {
		return nil, err
	}
	if b.Type == SwissPlusPlayoff {
		fresh.Type = SwissPlusPlayoff
		fresh.Options = b.Options
		fresh.Swiss = b.Swiss.clone()
	}
	return fresh, nil
}
