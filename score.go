package junctionsim

import (
	"math"
)

// scoreComponent is one statistic compared against its expected distribution
type scoreComponent struct {
	mean   float64
	sd     float64
	weight float64
}

var (
	scoreMaxWait  = scoreComponent{mean: 60, sd: 15, weight: 2}
	scoreMaxQueue = scoreComponent{mean: 10, sd: 5, weight: 3}
	scoreAvgWait  = scoreComponent{mean: 30, sd: 15, weight: 6}
)

// value returns 0..100, higher for smaller statistic: share of the normal distribution above it
func (component scoreComponent) value(x float64) float64 {
	z := (x - component.mean) / component.sd
	return 100 * 0.5 * math.Erfc(z/math.Sqrt2)
}

// Score returns junction efficiency on 0..100 rounded to two decimals. Undefined maxima count as zero
func (stats *Statistics) Score() float64 {
	maxWait, maxQueue := 0.0, 0.0
	if stats.MaxWait != nil {
		maxWait = *stats.MaxWait
	}
	if stats.MaxQueue != nil {
		maxQueue = float64(*stats.MaxQueue)
	}
	weighted := scoreMaxWait.weight*scoreMaxWait.value(maxWait) +
		scoreMaxQueue.weight*scoreMaxQueue.value(maxQueue) +
		scoreAvgWait.weight*scoreAvgWait.value(stats.AvgWait)
	total := scoreMaxWait.weight + scoreMaxQueue.weight + scoreAvgWait.weight
	return math.Round(weighted/total*100) / 100
}
