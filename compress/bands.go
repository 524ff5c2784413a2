package compress

import (
	"fmt"

	"github.com/benhall-io/squish/types"
)

// Band maps a contiguous range of turn positions to a compression
// level. Positions run 0-100 over the conversation; the interval is
// half-open, [Start, End).
//
// Bands are supplied by the caller and need not be contiguous or
// exhaustive. When bands overlap, the first matching band in list
// order wins. That tie-break is a documented policy of this engine,
// not an accident of implementation, and is covered by tests.
type Band struct {
	Start float64
	End   float64
	Level types.Level
}

// TurnBand is the band assignment for one turn. Band is nil when no
// band matched the turn's position.
type TurnBand struct {
	TurnIndex int
	Band      *Band
}

// ValidateBands checks every band for a well-formed interval and a
// known level.
func ValidateBands(bands []Band) error {
	for i, b := range bands {
		if b.Start < 0 || b.Start > 100 || b.End < 0 || b.End > 100 {
			return fmt.Errorf("%w: band %d range [%g,%g) outside [0,100]", ErrInvalidBand, i, b.Start, b.End)
		}
		if b.Start >= b.End {
			return fmt.Errorf("%w: band %d has empty range [%g,%g)", ErrInvalidBand, i, b.Start, b.End)
		}
		if !b.Level.Valid() {
			return fmt.Errorf("%w: band %d has unknown level %q", ErrInvalidBand, i, b.Level)
		}
	}
	return nil
}

// MapBands assigns each of turnCount turns a band or none, by relative
// position. A turn at index i sits at position i/turnCount*100; the
// first band in list order whose half-open interval contains that
// position wins. Pure function, fully deterministic.
func MapBands(turnCount int, bands []Band) []TurnBand {
	mapping := make([]TurnBand, 0, turnCount)
	for i := 0; i < turnCount; i++ {
		position := float64(i) / float64(turnCount) * 100
		entry := TurnBand{TurnIndex: i}
		for j := range bands {
			if bands[j].Start <= position && position < bands[j].End {
				entry.Band = &bands[j]
				break
			}
		}
		mapping = append(mapping, entry)
	}
	return mapping
}
