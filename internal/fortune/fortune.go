// Package fortune derives a smooth per-day luck field for the campaign.
// Imprevisto probability rises and falls in streaks rather than being flat,
// so bad months cluster the way they feel like they do at the table.
package fortune

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	baseChance = 0.25 // average chance of an imprevisto per advanced month
	swing      = 0.20 // how far the field bends the base chance either way
	dayScale   = 0.05 // noise frequency over absolute days
)

// Field produces the fortune value for any absolute day, deterministic for a
// given seed so reloading a campaign replays the same streaks.
type Field struct {
	noise opensimplex.Noise
}

// NewField creates a fortune field from a campaign seed.
func NewField(seed int64) *Field {
	return &Field{noise: opensimplex.NewNormalized(seed)}
}

// At returns the fortune value for an absolute day in [0, 1), where higher
// means unluckier.
func (f *Field) At(absDay int) float64 {
	return f.noise.Eval2(float64(absDay)*dayScale, 0)
}

// EventChance returns the imprevisto probability for a month ending on the
// given absolute day, in [baseChance-swing, baseChance+swing].
func (f *Field) EventChance(absDay int) float64 {
	return baseChance + swing*(2*f.At(absDay)-1)
}
