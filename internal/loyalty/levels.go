package loyalty

import "healthloop/internal/domain"

// LevelCalculator maps lifetime points to a points level. It never performs I/O.
type LevelCalculator struct {
	tiers   []Tier
	ceiling int64
}

func NewLevelCalculator(r Rules) *LevelCalculator {
	tiers := make([]Tier, len(r.Tiers))
	copy(tiers, r.Tiers)
	return &LevelCalculator{tiers: tiers, ceiling: r.EliteCeiling}
}

// LevelFor returns the highest tier whose threshold is <= total.
// A value exactly on a threshold belongs to the higher tier.
func (c *LevelCalculator) LevelFor(total int64) domain.PointsLevel {
	level := c.tiers[0].Level
	for _, t := range c.tiers {
		if total < t.MinPoints {
			break
		}
		level = t.Level
	}
	return level
}

// NextThreshold returns the upper bound of the level's tier. The top tier
// reports the display ceiling. Unknown levels are treated as the lowest tier.
func (c *LevelCalculator) NextThreshold(level domain.PointsLevel) int64 {
	i := c.index(level)
	if i == len(c.tiers)-1 {
		return c.ceiling
	}
	return c.tiers[i+1].MinPoints
}

// ProgressPercentage interpolates total between the tier's lower bound and
// NextThreshold, clamped to [0,100]. The top tier is always 100.
func (c *LevelCalculator) ProgressPercentage(level domain.PointsLevel, total int64) float64 {
	i := c.index(level)
	if i == len(c.tiers)-1 {
		return 100
	}

	lower := c.tiers[i].MinPoints
	upper := c.tiers[i+1].MinPoints
	pct := float64(total-lower) / float64(upper-lower) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// IsTop reports whether level is the highest tier.
func (c *LevelCalculator) IsTop(level domain.PointsLevel) bool {
	return c.tiers[len(c.tiers)-1].Level == level
}

// Tiers returns a copy of the tier table in ascending order.
func (c *LevelCalculator) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

func (c *LevelCalculator) index(level domain.PointsLevel) int {
	for i, t := range c.tiers {
		if t.Level == level {
			return i
		}
	}
	return 0
}
