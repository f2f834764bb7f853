package junctionsim

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	// greenMultipliers scale minimum green time by priority rank
	greenMultipliers = map[int]float64{
		1: 1.0,
		2: 1.25,
		3: 1.5,
		4: 1.75,
	}
)

// RankPriorities returns dense ranking [north, east, south, west] of peak lane flows, ascending.
// All-zero peaks give [1, 1, 1, 1]
func RankPriorities(peaks [4]int) [4]int {
	ranks := [4]int{1, 1, 1, 1}
	if lo.Every([]int{0}, peaks[:]) {
		return ranks
	}
	distinct := lo.Uniq(peaks[:])
	sort.Ints(distinct)
	rankOf := make(map[int]int, len(distinct))
	for i, value := range distinct {
		rankOf[value] = i + 1
	}
	for i, peak := range peaks {
		ranks[i] = rankOf[peak]
	}
	return ranks
}

// ValidatePriorities checks user supplied priorities have dense-rank shape within 1..4
func ValidatePriorities(priorities [4]int) error {
	for i, priority := range priorities {
		if _, ok := greenMultipliers[priority]; !ok {
			return errors.Wrapf(ErrInvalidPriorities, "%s priority %d is out of range 1..4", DirectionName(i), priority)
		}
	}
	distinct := lo.Uniq(priorities[:])
	for rank := 1; rank <= len(distinct); rank++ {
		if !lo.Contains(distinct, rank) {
			return errors.Wrapf(ErrInvalidPriorities, "ranks %v skip %d", priorities, rank)
		}
	}
	return nil
}

// GreenDuration returns green phase length for given priority rank
func GreenDuration(priority int, minimumGreen float64) float64 {
	multiplier, ok := greenMultipliers[priority]
	if !ok {
		multiplier = 1.0
	}
	return multiplier * minimumGreen
}
