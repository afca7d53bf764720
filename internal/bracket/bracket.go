package bracket

import "fmt"

type Status string

const (
	BracketPending   Status = "pending"
	BracketOngoing   Status = "ongoing"
	BracketCompleted Status = "completed"
)

type Format string

const (
	SingleElimination Format = "single_elimination"
	DoubleElimination Format = "double_elimination"
	SwissPlusPlayoff  Format = "swiss_playoff"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case SingleElimination, DoubleElimination, SwissPlusPlayoff:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

type Options struct {
	SeedingMode     SeedingMode `json:"seeding_mode,omitempty"`
	ThirdPlaceMatch bool        `json:"third_place_match,omitempty"`
	GrandFinalReset bool        `json:"grand_final_reset,omitempty"`
	// Only used by swiss_playoff, defaults to single_elimination
	PlayoffFormat Format `json:"playoff_format,omitempty"`
}

type Round struct {
	Name        string  `json:"name"`
	RoundNumber int     `json:"round_number"`
	Matches     []Match `json:"matches"`
}

// DoubleStage holds the parts of a bracket that only exist in double
// elimination.
type DoubleStage struct {
	LowerBracket    []Round `json:"lower_bracket"`
	GrandFinal      Match   `json:"grand_final"`
	GrandFinalReset *Match  `json:"grand_final_reset,omitempty"`
}

type Bracket struct {
	Type     Format    `json:"type"`
	Status   Status    `json:"status"`
	Options  Options   `json:"options"`
	Entrants []Entrant `json:"entrants"`

	// Upper bracket in double elimination, the playoff in swiss_playoff
	Rounds []Round `json:"rounds"`

	ThirdPlace *Match       `json:"third_place,omitempty"`
	Double     *DoubleStage `json:"double_elimination,omitempty"`
	Swiss      *SwissStage  `json:"swiss_stage,omitempty"`
}

// PlayoffFormat is the elimination format the rounds are wired for.
func (b *Bracket) PlayoffFormat() Format {
	if b.Type == SwissPlusPlayoff {
		if b.Options.PlayoffFormat == "" {
			return SingleElimination
		}
		return b.Options.PlayoffFormat
	}
	return b.Type
}

// Matches returns pointers to every routable match, in bracket order:
// upper rounds, third place, lower rounds, grand final and its reset.
// Swiss rounds are a record of an earlier stage and are not included.
func (b *Bracket) Matches() []*Match {
	var out []*Match
	for r := range b.Rounds {
		for i := range b.Rounds[r].Matches {
			out = append(out, &b.Rounds[r].Matches[i])
		}
	}
	if b.ThirdPlace != nil {
		out = append(out, b.ThirdPlace)
	}
	if b.Double != nil {
		for r := range b.Double.LowerBracket {
			for i := range b.Double.LowerBracket[r].Matches {
				out = append(out, &b.Double.LowerBracket[r].Matches[i])
			}
		}
		out = append(out, &b.Double.GrandFinal)
		if b.Double.GrandFinalReset != nil {
			out = append(out, b.Double.GrandFinalReset)
		}
	}
	return out
}

func (b *Bracket) FindMatch(id string) (*Match, bool) {
	for _, m := range b.Matches() {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Counts returns the number of contested matches and how many of them are
// finished. Byes are not counted.
func (b *Bracket) Counts() (total, completed int) {
	for _, m := range b.Matches() {
		if m.IsBye {
			continue
		}
		total++
		if m.Finished {
			completed++
		}
	}
	return total, completed
}

// ReadyMatches lists the matches that can be played right now.
func (b *Bracket) ReadyMatches() []*Match {
	var out []*Match
	for _, m := range b.Matches() {
		if m.Ready() {
			out = append(out, m)
		}
	}
	return out
}

// Validate checks that the format specific fields agree with Type.
func (b *Bracket) Validate() error {
	switch b.Type {
	case SingleElimination:
		if b.Double != nil || b.Swiss != nil {
			return fmt.Errorf("%w: single elimination bracket carries double or swiss stage", ErrUnsupportedFormat)
		}
	case DoubleElimination:
		if b.Double == nil {
			return fmt.Errorf("%w: double elimination bracket has no lower bracket", ErrUnsupportedFormat)
		}
		if b.Swiss != nil || b.ThirdPlace != nil {
			return fmt.Errorf("%w: double elimination bracket carries swiss stage or third place match", ErrUnsupportedFormat)
		}
	case SwissPlusPlayoff:
		if b.Swiss == nil {
			return fmt.Errorf("%w: swiss playoff bracket has no swiss stage", ErrUnsupportedFormat)
		}
		if (b.PlayoffFormat() == DoubleElimination) != (b.Double != nil) {
			return fmt.Errorf("%w: playoff format %s does not match bracket shape", ErrUnsupportedFormat, b.PlayoffFormat())
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, b.Type)
	}
	return nil
}

// Clone returns a deep copy sharing no memory with b.
func (b *Bracket) Clone() *Bracket {
	c := &Bracket{
		Type:     b.Type,
		Status:   b.Status,
		Options:  b.Options,
		Entrants: make([]Entrant, len(b.Entrants)),
		Rounds:   cloneRounds(b.Rounds),
	}
	for i := range b.Entrants {
		c.Entrants[i] = *b.Entrants[i].clone()
	}
	if b.ThirdPlace != nil {
		m := b.ThirdPlace.clone()
		c.ThirdPlace = &m
	}
	if b.Double != nil {
		c.Double = &DoubleStage{
			LowerBracket: cloneRounds(b.Double.LowerBracket),
			GrandFinal:   b.Double.GrandFinal.clone(),
		}
		if b.Double.GrandFinalReset != nil {
			m := b.Double.GrandFinalReset.clone()
			c.Double.GrandFinalReset = &m
		}
	}
	if b.Swiss != nil {
		c.Swiss = b.Swiss.clone()
	}
	return c
}

func cloneRounds(rounds []Round) []Round {
	if rounds == nil {
		return nil
	}
	out := make([]Round, len(rounds))
	for r, round := range rounds {
		out[r] = Round{Name: round.Name, RoundNumber: round.RoundNumber, Matches: make([]Match, len(round.Matches))}
		for i := range round.Matches {
			out[r].Matches[i] = round.Matches[i].clone()
		}
	}
	return out
}

// nextStatus never moves backwards: pending -> ongoing -> completed.
func (b *Bracket) nextStatus() Status {
	if b.Status == BracketCompleted {
		return BracketCompleted
	}
	allFinished, anyPlayed := true, false
	for _, m := range b.Matches() {
		if !m.Finished {
			allFinished = false
		}
		if m.Played() {
			anyPlayed = true
		}
	}
	switch {
	case allFinished && anyPlayed:
		return BracketCompleted
	case anyPlayed:
		return BracketOngoing
	}
	return b.Status
}
