package stats

import "fmt"

// FirstNBASeason is the first season played under the NBA name
const FirstNBASeason = 1950

// Seasons lists the selectable seasons, newest first
func Seasons(first, current int) []int {
	if current < first {
		return []int{}
	}
	out := make([]int, 0, current-first+1)
	for y := current; y >= first; y-- {
		out = append(out, y)
	}
	return out
}

// ValidateSeason rejects years outside [first, current]
func ValidateSeason(season, first, current int) error {
	if season < first || season > current {
		return fmt.Errorf("season %d outside %d-%d", season, first, current)
	}
	return nil
}
