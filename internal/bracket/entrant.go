package bracket

// Entrant is a team placed into the bracket. Seed is assigned at generation
// time and never changes afterwards.
type Entrant struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	Logo      *string `json:"logo,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	Seed      int     `json:"seed"`
}

func (e *Entrant) clone() *Entrant {
	if e == nil {
		return nil
	}
	c := *e
	if e.Logo != nil {
		logo := *e.Logo
		c.Logo = &logo
	}
	return &c
}
