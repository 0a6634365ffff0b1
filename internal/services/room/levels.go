package room

import "github.com/mcoot/roomserver/internal/dependencies/random"

// LevelCount is the length of a match's level schedule
const LevelCount = 50

// levelBand draws indices [from, to) uniformly from [lo, hi]
type levelBand struct {
	from, to int
	lo, hi   int
}

var levelBands = []levelBand{
	{from: 1, to: 3, lo: 1, hi: 5},
	{from: 3, to: 10, lo: 6, hi: 10},
	{from: 10, to: LevelCount, lo: 11, hi: 15},
}

// GenerateLevels builds a level schedule. Entry 0 is always 0.
func GenerateLevels(r random.Random) []int {
	levels := make([]int, LevelCount)
	for _, band := range levelBands {
		for i := band.from; i < band.to; i++ {
			levels[i] = random.Between(r, band.lo, band.hi)
		}
	}
	return levels
}
