package bracket

type MatchStatus string

const (
	MatchUpcoming  MatchStatus = "upcoming"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

type Segment string

const (
	UpperSegment      Segment = "upper"
	LowerSegment      Segment = "lower"
	GrandFinalSegment Segment = "grand_final"
	ThirdPlaceSegment Segment = "third_place"
	SwissSegment      Segment = "swiss"
)

// MatchRef is the exact destination slot a winner or loser is routed to.
type MatchRef struct {
	MatchID string `json:"match_id"`
	Slot    int    `json:"slot"`
}

type Match struct {
	ID string `json:"id"`

	// Position in the bracket for reconstructing the view
	Round    int     `json:"round"`
	Segment  Segment `json:"bracket_segment"`
	Position int     `json:"position"`

	Team1      *Entrant    `json:"team1"`
	Team2      *Entrant    `json:"team2"`
	Team1Score int         `json:"team1_score"`
	Team2Score int         `json:"team2_score"`
	Status     MatchStatus `json:"status"`

	WinnerSlot *MatchRef `json:"winner_slot"`
	LoserSlot  *MatchRef `json:"loser_slot"`

	Winner   int  `json:"winner,omitempty"`
	IsBye    bool `json:"is_bye,omitempty"`
	Finished bool `json:"finished"`
}

func (m *Match) Team(slot int) *Entrant {
	switch slot {
	case 1:
		return m.Team1
	case 2:
		return m.Team2
	}
	return nil
}

func (m *Match) setTeam(slot int, e *Entrant) {
	switch slot {
	case 1:
		m.Team1 = e
	case 2:
		m.Team2 = e
	}
}

// Ready reports whether both teams are known and the match is still open.
func (m *Match) Ready() bool {
	return !m.Finished && m.Team1 != nil && m.Team2 != nil
}

// Played is true for finished matches that were actually contested.
func (m *Match) Played() bool {
	return m.Finished && !m.IsBye
}

func (m *Match) IsWinner(slot int) bool {
	return m.Finished && m.Winner == slot
}

func (m *Match) IsLoser(slot int) bool {
	return m.Finished && m.Winner != 0 && m.Winner != slot
}

func (m *Match) WinnerTeam() *Entrant {
	if !m.Finished || m.Winner == 0 {
		return nil
	}
	return m.Team(m.Winner)
}

func (m *Match) LoserTeam() *Entrant {
	if !m.Finished || m.Winner == 0 {
		return nil
	}
	return m.Team(3 - m.Winner)
}

func (m *Match) clone() Match {
	c := *m
	c.Team1 = m.Team1.clone()
	c.Team2 = m.Team2.clone()
	if m.WinnerSlot != nil {
		ref := *m.WinnerSlot
		c.WinnerSlot = &ref
	}
	if m.LoserSlot != nil {
		ref := *m.LoserSlot
		c.LoserSlot = &ref
	}
	return c
}
