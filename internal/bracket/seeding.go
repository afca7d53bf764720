package bracket

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

type SeedingMode string

const (
	// Use input order
	SeedManual SeedingMode = "manual"
	// Rating descending, ties keep input order
	SeedRating SeedingMode = "rating"
	// Externally supplied seed ascending, ties keep input order
	SeedValue SeedingMode = "seed"
)

func ParseSeedingMode(s string) (SeedingMode, error) {
	switch m := SeedingMode(s); m {
	case "":
		return SeedManual, nil
	case SeedManual, SeedRating, SeedValue:
		return m, nil
	}
	return "", fmt.Errorf("%w: seeding mode %q", ErrUnsupportedFormat, s)
}

// Seed orders entrants and assigns seeds 1..N. The input slice is left
// untouched and the same input always gives the same output.
func Seed(entrants []Entrant, mode SeedingMode) ([]Entrant, error) {
	if len(entrants) < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInsufficientEntrants, len(entrants))
	}
	if mode == "" {
		mode = SeedManual
	}

	seeded := make([]Entrant, len(entrants))
	seen := make(map[string]struct{}, len(entrants))
	for i := range entrants {
		e := *entrants[i].clone()
		if e.ID == "" {
			e.ID = entrantID(i, e.Name)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate entrant id %q", ErrInvalidEntrant, e.ID)
		}
		seen[e.ID] = struct{}{}
		seeded[i] = e
	}

	switch mode {
	case SeedManual:
	case SeedRating:
		sort.SliceStable(seeded, func(i, j int) bool {
			return seeded[i].Rating > seeded[j].Rating
		})
	case SeedValue:
		for _, e := range seeded {
			if e.Seed < 1 {
				return nil, fmt.Errorf("%w: entrant %q has seed %d, seeds start at 1", ErrInvalidEntrant, e.ID, e.Seed)
			}
		}
		sort.SliceStable(seeded, func(i, j int) bool {
			return seeded[i].Seed < seeded[j].Seed
		})
	default:
		return nil, fmt.Errorf("%w: seeding mode %q", ErrUnsupportedFormat, mode)
	}

	for i := range seeded {
		seeded[i].Seed = i + 1
	}
	return seeded, nil
}

// entrantID derives a stable id for entrants the registry sent without one,
// so seeding the same input twice yields the same bracket.
func entrantID(index int, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d:%s", index, name))).String()
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}
	size := 1
	for size < count {
		size <<= 1
	}
	return size
}

// generateRound1Pairs returns zero based seed indexes for each first round
// match, so that seed 1 and seed 2 can only meet in the final.
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}
