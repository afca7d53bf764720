package bracket

import "fmt"

type slotState int

const (
	slotPending slotState = iota
	slotFilled
	// Empty and nothing will ever be routed into it
	slotDead
)

// feederIndex maps each destination slot to the match that routes into it.
func feederIndex(b *Bracket) map[MatchRef]*Match {
	feeders := make(map[MatchRef]*Match)
	for _, m := range b.Matches() {
		if m.WinnerSlot != nil {
			feeders[*m.WinnerSlot] = m
		}
		if m.LoserSlot != nil {
			feeders[*m.LoserSlot] = m
		}
	}
	return feeders
}

func stateOf(m *Match, slot int, feeders map[MatchRef]*Match) slotState {
	if m.Team(slot) != nil {
		return slotFilled
	}
	feeder, ok := feeders[MatchRef{MatchID: m.ID, Slot: slot}]
	if !ok || feeder.Finished {
		return slotDead
	}
	return slotPending
}

// route writes team into the referenced slot. A nil ref or team is a no-op.
func route(b *Bracket, ref *MatchRef, team *Entrant) error {
	if ref == nil || team == nil {
		return nil
	}
	dest, ok := b.FindMatch(ref.MatchID)
	if !ok {
		return fmt.Errorf("%w: routing target match %q", ErrNotFound, ref.MatchID)
	}
	if ref.Slot != 1 && ref.Slot != 2 {
		return fmt.Errorf("%w: routing target %q has slot %d", ErrInconsistentResult, ref.MatchID, ref.Slot)
	}
	dest.setTeam(ref.Slot, team.clone())
	return nil
}

// resolveByes completes every open match whose slots are all settled but
// which has fewer than two teams. A lone team advances as a bye, an empty
// match is void and routes nothing. Runs until nothing changes, since a
// resolved bye can settle slots further down the bracket.
func resolveByes(b *Bracket) error {
	for changed := true; changed; {
		changed = false
		feeders := feederIndex(b)
		for _, m := range b.Matches() {
			if m.Finished {
				continue
			}
			s1, s2 := stateOf(m, 1, feeders), stateOf(m, 2, feeders)
			if s1 == slotPending || s2 == slotPending || (s1 == slotFilled && s2 == slotFilled) {
				continue
			}

			m.Finished = true
			m.Status = MatchCompleted
			m.IsBye = true
			switch {
			case s1 == slotFilled:
				m.Winner = 1
			case s2 == slotFilled:
				m.Winner = 2
			}
			if err := route(b, m.WinnerSlot, m.WinnerTeam()); err != nil {
				return err
			}
			changed = true
		}
	}
	return nil
}
