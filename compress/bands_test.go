package compress

import (
	"errors"
	"testing"

	"github.com/benhall-io/squish/types"
)

func TestMapBands(t *testing.T) {
	heavy := Band{Start: 0, End: 50, Level: types.LevelHeavy}
	regular := Band{Start: 50, End: 75, Level: types.LevelRegular}

	tests := []struct {
		name      string
		turnCount int
		bands     []Band
		want      []types.Level // "" means no band
	}{
		{
			name:      "four turns two bands",
			turnCount: 4,
			bands:     []Band{heavy, regular},
			// positions 0, 25, 50, 75
			want: []types.Level{types.LevelHeavy, types.LevelHeavy, types.LevelRegular, ""},
		},
		{
			name:      "zero turns",
			turnCount: 0,
			bands:     []Band{heavy},
			want:      nil,
		},
		{
			name:      "no bands",
			turnCount: 3,
			bands:     nil,
			want:      []types.Level{"", "", ""},
		},
		{
			name:      "gap between bands",
			turnCount: 10,
			bands: []Band{
				{Start: 0, End: 20, Level: types.LevelHeavy},
				{Start: 60, End: 80, Level: types.LevelRegular},
			},
			// positions 0,10,...,90
			want: []types.Level{
				types.LevelHeavy, types.LevelHeavy, "", "", "",
				"", types.LevelRegular, types.LevelRegular, "", "",
			},
		},
		{
			name:      "adjacent bands assign each position exactly once",
			turnCount: 4,
			bands: []Band{
				{Start: 0, End: 50, Level: types.LevelHeavy},
				{Start: 50, End: 100, Level: types.LevelRegular},
			},
			want: []types.Level{types.LevelHeavy, types.LevelHeavy, types.LevelRegular, types.LevelRegular},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapBands(tt.turnCount, tt.bands)
			if len(got) != len(tt.want) {
				t.Fatalf("mapping length = %d, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.TurnIndex != i {
					t.Errorf("entry %d has TurnIndex %d", i, m.TurnIndex)
				}
				var level types.Level
				if m.Band != nil {
					level = m.Band.Level
				}
				if level != tt.want[i] {
					t.Errorf("turn %d assigned %q, want %q", i, level, tt.want[i])
				}
			}
		})
	}
}

func TestMapBands_OverlapFirstMatchWins(t *testing.T) {
	// Both bands cover position 0-50; list order decides.
	bands := []Band{
		{Start: 0, End: 100, Level: types.LevelRegular},
		{Start: 0, End: 50, Level: types.LevelHeavy},
	}

	mapping := MapBands(4, bands)
	for _, m := range mapping {
		if m.Band == nil {
			t.Fatalf("turn %d unassigned under a full-range band", m.TurnIndex)
		}
		if m.Band.Level != types.LevelRegular {
			t.Errorf("turn %d assigned %q, want first band to win", m.TurnIndex, m.Band.Level)
		}
	}
}

func TestMapBands_HalfOpenBoundary(t *testing.T) {
	// Position 50 belongs to [50,75), not [0,50).
	bands := []Band{
		{Start: 0, End: 50, Level: types.LevelHeavy},
		{Start: 50, End: 75, Level: types.LevelRegular},
	}
	mapping := MapBands(2, bands) // positions 0, 50
	if mapping[1].Band == nil || mapping[1].Band.Level != types.LevelRegular {
		t.Errorf("position 50 not assigned to the [50,75) band: %+v", mapping[1])
	}
}

func TestValidateBands(t *testing.T) {
	tests := []struct {
		name    string
		bands   []Band
		wantErr bool
	}{
		{"valid", []Band{{Start: 0, End: 50, Level: types.LevelHeavy}}, false},
		{"empty list", nil, false},
		{"start above 100", []Band{{Start: 120, End: 130, Level: types.LevelHeavy}}, true},
		{"negative start", []Band{{Start: -1, End: 50, Level: types.LevelHeavy}}, true},
		{"inverted range", []Band{{Start: 60, End: 50, Level: types.LevelHeavy}}, true},
		{"zero width", []Band{{Start: 50, End: 50, Level: types.LevelHeavy}}, true},
		{"unknown level", []Band{{Start: 0, End: 50, Level: "extreme"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBands(tt.bands)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBands() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBand) {
				t.Errorf("error %v is not ErrInvalidBand", err)
			}
		})
	}
}
