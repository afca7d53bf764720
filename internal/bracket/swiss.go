package bracket

import (
	"fmt"
	"sort"
)

// SwissStanding is one row of the externally computed swiss table.
type SwissStanding struct {
	Entrant  Entrant `json:"entrant"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Buchholz int     `json:"buchholz,omitempty"`
}

type SwissInput struct {
	Standings  []SwissStanding `json:"standings"`
	Qualifiers int             `json:"qualifiers"`
	// Optional record of the swiss matches already played
	Rounds []Round `json:"rounds,omitempty"`
}

type SwissStage struct {
	Standings  []SwissStanding `json:"standings"`
	Qualifiers int             `json:"qualifiers"`
	Rounds     []Round         `json:"rounds,omitempty"`
}

func (s *SwissStage) clone() *SwissStage {
	if s == nil {
		return nil
	}
	c := &SwissStage{
		Standings:  make([]SwissStanding, len(s.Standings)),
		Qualifiers: s.Qualifiers,
		Rounds:     cloneRounds(s.Rounds),
	}
	for i, st := range s.Standings {
		st.Entrant = *st.Entrant.clone()
		c.Standings[i] = st
	}
	return c
}

// RankStandings orders a swiss table by wins, then fewest losses, then
// buchholz. Equal rows keep their input order.
func RankStandings(standings []SwissStanding) []SwissStanding {
	ranked := make([]SwissStanding, len(standings))
	for i, st := range standings {
		st.Entrant = *st.Entrant.clone()
		if st.Entrant.ID == "" {
			st.Entrant.ID = entrantID(i, st.Entrant.Name)
		}
		ranked[i] = st
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return a.Buchholz > b.Buchholz
	})
	return ranked
}

func generateSwissPlayoff(req GenerateRequest) (*Bracket, error) {
	if req.Swiss == nil {
		return nil, fmt.Errorf("%w: swiss playoff needs standings", ErrInsufficientEntrants)
	}

	playoff := req.Options.PlayoffFormat
	if playoff == "" {
		playoff = SingleElimination
	}
	if playoff != SingleElimination && playoff != DoubleElimination {
		return nil, fmt.Errorf("%w: playoff format %q", ErrUnsupportedFormat, playoff)
	}

	ranked := RankStandings(req.Swiss.Standings)
	k := req.Swiss.Qualifiers
	if k < 2 {
		return nil, fmt.Errorf("%w: need at least 2 qualifiers, got %d", ErrInsufficientEntrants, k)
	}
	if k > len(ranked) {
		return nil, fmt.Errorf("%w: %d qualifiers requested from %d standings", ErrInsufficientEntrants, k, len(ranked))
	}

	qualified := make([]Entrant, k)
	for i := range qualified {
		qualified[i] = ranked[i].Entrant
	}
	// The swiss ranking is the seeding.
	seeded, err := Seed(qualified, SeedManual)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	opts.SeedingMode = SeedManual
	opts.PlayoffFormat = playoff
	b, err := Build(playoff, seeded, opts)
	if err != nil {
		return nil, err
	}

	b.Type = SwissPlusPlayoff
	b.Options.PlayoffFormat = playoff
	b.Swiss = &SwissStage{
		Standings:  ranked,
		Qualifiers: k,
		Rounds:     cloneRounds(req.Swiss.Rounds),
	}
	for r := range b.Swiss.Rounds {
		for i := range b.Swiss.Rounds[r].Matches {
			b.Swiss.Rounds[r].Matches[i].Segment = SwissSegment
		}
	}
	return b, nil
}
