package bracket

import (
	"fmt"
	"math/bits"
	"sort"
)

const (
	grandFinalID      = "GF1"
	grandFinalResetID = "GF2"
	thirdPlaceID      = "TP1"
)

type GenerateRequest struct {
	Format   Format      `json:"format"`
	Entrants []Entrant   `json:"entrants"`
	Options  Options     `json:"options"`
	Swiss    *SwissInput `json:"swiss,omitempty"`
}

// Generate seeds the entrants and builds the initial bracket. Byes are
// already resolved in the returned bracket.
func Generate(req GenerateRequest) (*Bracket, error) {
	switch req.Format {
	case SingleElimination, DoubleElimination:
		seeded, err := Seed(req.Entrants, req.Options.SeedingMode)
		if err != nil {
			return nil, err
		}
		return Build(req.Format, seeded, req.Options)
	case SwissPlusPlayoff:
		return generateSwissPlayoff(req)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
}

// Build wires an elimination bracket for entrants that already carry their
// seeds. Seed 1 takes the first bracket slot.
func Build(format Format, entrants []Entrant, opts Options) (*Bracket, error) {
	if format != SingleElimination && format != DoubleElimination {
		return nil, fmt.Errorf("%w: cannot build playoff as %q", ErrUnsupportedFormat, format)
	}
	if len(entrants) < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInsufficientEntrants, len(entrants))
	}

	seeded := make([]Entrant, len(entrants))
	for i := range entrants {
		seeded[i] = *entrants[i].clone()
	}
	sort.SliceStable(seeded, func(i, j int) bool {
		return seeded[i].Seed < seeded[j].Seed
	})

	switch format {
	case SingleElimination:
		opts.GrandFinalReset = false
	case DoubleElimination:
		opts.ThirdPlaceMatch = false
	}

	b := &Bracket{
		Type:     format,
		Status:   BracketPending,
		Options:  opts,
		Entrants: seeded,
	}

	bracketSize := calcBracketSize(len(seeded))
	totalRounds := bits.TrailingZeros(uint(bracketSize))

	switch format {
	case SingleElimination:
		b.Rounds = buildWinnerRounds("", totalRounds, func(r int) string {
			return singleRoundName(r, totalRounds)
		})
		if opts.ThirdPlaceMatch && totalRounds >= 2 {
			b.ThirdPlace = buildThirdPlace(b.Rounds[totalRounds-2], totalRounds)
		}
	case DoubleElimination:
		b.Rounds = buildWinnerRounds("W", totalRounds, func(r int) string {
			if r == totalRounds {
				return "Upper Final"
			}
			return fmt.Sprintf("Upper Round %d", r)
		})
		b.Double = buildLowerBracket(b.Rounds)
	}

	placeEntrants(b.Rounds[0].Matches, seeded, bracketSize)

	if err := resolveByes(b); err != nil {
		return nil, err
	}
	return b, nil
}

func matchID(prefix string, round, position int) string {
	return fmt.Sprintf("%sR%dM%d", prefix, round, position)
}

func singleRoundName(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinals"
	case 2:
		return "Quarterfinals"
	}
	return fmt.Sprintf("Round of %d", 1<<(totalRounds-round+1))
}

// buildWinnerRounds creates empty shells for every round. The winner of
// position p moves to position (p+1)/2 of the next round, odd positions
// into slot 1 and even ones into slot 2.
func buildWinnerRounds(prefix string, totalRounds int, name func(round int) string) []Round {
	rounds := make([]Round, 0, totalRounds)
	for r := 1; r <= totalRounds; r++ {
		matchesInRound := 1 << (totalRounds - r)
		round := Round{
			Name:        name(r),
			RoundNumber: r,
			Matches:     make([]Match, 0, matchesInRound),
		}

		for p := 1; p <= matchesInRound; p++ {
			m := Match{
				ID:       matchID(prefix, r, p),
				Round:    r,
				Segment:  UpperSegment,
				Position: p,
				Status:   MatchUpcoming,
			}
			if r < totalRounds {
				m.WinnerSlot = &MatchRef{
					MatchID: matchID(prefix, r+1, (p+1)/2),
					Slot:    2 - p%2,
				}
			}
			round.Matches = append(round.Matches, m)
		}
		rounds = append(rounds, round)
	}
	return rounds
}

func buildThirdPlace(semifinals Round, finalRound int) *Match {
	for i := range semifinals.Matches {
		semifinals.Matches[i].LoserSlot = &MatchRef{MatchID: thirdPlaceID, Slot: i + 1}
	}
	return &Match{
		ID:       thirdPlaceID,
		Round:    finalRound,
		Segment:  ThirdPlaceSegment,
		Position: 1,
		Status:   MatchUpcoming,
	}
}

// buildLowerBracket adds the losers' path for an upper bracket with R
// rounds. It has 2(R-1) rounds: odd rounds pair up survivors (round 1 pairs
// the upper round 1 losers), even rounds take the losers dropping from
// upper round k+1 against the previous lower round's winners.
func buildLowerBracket(upper []Round) *DoubleStage {
	totalUpper := len(upper)
	totalLower := 2 * (totalUpper - 1)

	ds := &DoubleStage{
		GrandFinal: Match{
			ID:       grandFinalID,
			Round:    max(totalUpper, totalLower) + 1,
			Segment:  GrandFinalSegment,
			Position: 1,
			Status:   MatchUpcoming,
		},
	}

	upperFinal := &upper[totalUpper-1].Matches[0]
	upperFinal.WinnerSlot = &MatchRef{MatchID: grandFinalID, Slot: 1}
	if totalLower == 0 {
		// Two entrants: the upper final loser goes straight to the grand final
		upperFinal.LoserSlot = &MatchRef{MatchID: grandFinalID, Slot: 2}
		return ds
	}

	ds.LowerBracket = make([]Round, totalLower)
	for lr := 1; lr <= totalLower; lr++ {
		count := len(upper[(lr+1)/2].Matches)
		name := fmt.Sprintf("Lower Round %d", lr)
		if lr == totalLower {
			name = "Lower Final"
		}
		round := Round{Name: name, RoundNumber: lr, Matches: make([]Match, count)}
		for p := 1; p <= count; p++ {
			m := Match{
				ID:       matchID("L", lr, p),
				Round:    lr,
				Segment:  LowerSegment,
				Position: p,
				Status:   MatchUpcoming,
			}
			switch {
			case lr == totalLower:
				m.WinnerSlot = &MatchRef{MatchID: grandFinalID, Slot: 2}
			case lr%2 == 1:
				m.WinnerSlot = &MatchRef{MatchID: matchID("L", lr+1, p), Slot: 1}
			default:
				m.WinnerSlot = &MatchRef{MatchID: matchID("L", lr+1, (p+1)/2), Slot: 2 - p%2}
			}
			round.Matches[p-1] = m
		}
		ds.LowerBracket[lr-1] = round
	}

	// Upper round 1 losers face each other
	for i := range upper[0].Matches {
		upper[0].Matches[i].LoserSlot = &MatchRef{
			MatchID: matchID("L", 1, i/2+1),
			Slot:    i%2 + 1,
		}
	}

	// Later upper rounds drop into the even lower rounds
	for k := 1; k < totalUpper; k++ {
		drops := upper[k].Matches
		for j := range drops {
			drops[j].LoserSlot = &MatchRef{
				MatchID: matchID("L", 2*k, dropPosition(j, len(drops), k)+1),
				Slot:    2,
			}
		}
	}

	return ds
}

// dropPosition crosses dropped losers over so they do not meet the side of
// the bracket they just came from. Odd drop rounds are mirrored, even ones
// keep upper bracket order: the lower bracket has already folded onto the
// opposite quarter by then.
func dropPosition(j, count, dropRound int) int {
	if dropRound%2 == 1 {
		return count - 1 - j
	}
	return j
}

func placeEntrants(round1 []Match, seeded []Entrant, bracketSize int) {
	pairings := generateRound1Pairs(bracketSize)
	for i, pair := range pairings {
		if i >= len(round1) {
			break
		}
		match := &round1[i]
		if pair[0] < len(seeded) {
			match.Team1 = seeded[pair[0]].clone()
		}
		if pair[1] < len(seeded) {
			match.Team2 = seeded[pair[1]].clone()
		}
	}
}
