package junctionsim

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func lineAsString(l orb.LineString) string {
	agg := []string{}
	for _, pt := range l {
		agg = append(agg, fmt.Sprintf("[%f, %f]", pt.X(), pt.Y()))
	}
	return "[" + strings.Join(agg, ",") + "]"
}

func TestOffset(t *testing.T) {
	line := orb.LineString{{10.0, 10.0}, {15.0, 10.0}, {18.0, 15.0}, {18.0, 20.0}, {15.0, 24.0}, {12.0, 24.0}, {10.0, 18.0}, {10.0, 15.0}, {13.0, 12.0}, {15.0, 16.0}}
	distance := 1.0

	leftL := lineAsString(offsetCurve(line, distance))
	rightL := lineAsString(offsetCurve(line, -distance))

	correctLeft := "[[10.000000, 11.000000],[14.433810, 11.000000],[17.000000, 15.276984],[17.000000, 19.666667],[14.500000, 23.000000],[12.720759, 23.000000],[11.000000, 17.837722],[11.000000, 15.414214],[12.726049, 13.688165],[14.105573, 16.447214]]"
	if leftL != correctLeft {
		t.Errorf("Left offset line should be '%s' but got '%s'", correctLeft, leftL)
	}
	correctRight := "[[10.000000, 9.000000],[15.566190, 9.000000],[19.000000, 14.723016],[19.000000, 20.333333],[15.500000, 25.000000],[11.279241, 25.000000],[9.000000, 18.162278],[9.000000, 14.585786],[13.273951, 10.311835],[15.894427, 15.552786]]"
	if rightL != correctRight {
		t.Errorf("Right offset line should be '%s' but got '%s'", correctRight, rightL)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	pt := orb.Point{37.6417350769043, 55.751849391735284}
	back := pointToSpherical(pointToEuclidean(pt))
	if math.Abs(back.Lon()-pt.Lon()) > 1e-9 || math.Abs(back.Lat()-pt.Lat()) > 1e-9 {
		t.Errorf("Point must survive projection round trip: %v, but got %v", pt, back)
	}
}

func TestApproachArm(t *testing.T) {
	centre := orb.Point{37.6, 55.75}
	testCases := []struct {
		from     orb.Point
		expected DirectionName
	}{
		{orb.Point{37.6, 55.751}, DIRECTION_NORTH},
		{orb.Point{37.601, 55.7502}, DIRECTION_EAST},
		{orb.Point{37.6001, 55.749}, DIRECTION_SOUTH},
		{orb.Point{37.599, 55.75}, DIRECTION_WEST},
	}
	for _, tc := range testCases {
		arm := approachArm(lineToEuclidean(orb.LineString{tc.from, centre}))
		if arm != tc.expected {
			t.Errorf("Approach from %v must come from %s arm, but got %s", tc.from, tc.expected, arm)
		}
	}
	if DIRECTION_NORTH.Opposite() != DIRECTION_SOUTH || DIRECTION_WEST.Opposite() != DIRECTION_EAST {
		t.Errorf("Opposite arms are wrong")
	}
}

func TestLaneGeometry(t *testing.T) {
	centre := Location{Lon: 37.6, Lat: 55.75}
	for _, name := range DirectionsOrder {
		lanes := []orb.LineString{}
		for i := 0; i < 3; i++ {
			line := laneGeometry(centre, name, i, 3)
			if len(line) != 2 {
				t.Errorf("Lane line must have %d points, but got %d", 2, len(line))
				continue
			}
			if arm := approachArm(lineToEuclidean(line)); arm != name {
				t.Errorf("Lane %d of %s must point to the junction from %s arm, but got %s", i, name, name, arm)
			}
			lanes = append(lanes, line)
		}
		// Leftmost lane is the farthest from the arm axis
		axis := lineToSpherical(armAxis(centre, name))
		if distanceToAxis(lanes[0], axis) <= distanceToAxis(lanes[2], axis) {
			t.Errorf("Lane 0 of %s must be farther from the axis than lane 2", name)
		}
	}
}

func distanceToAxis(line, axis orb.LineString) float64 {
	a, b := pointToEuclidean(line[0]), pointToEuclidean(axis[0])
	return math.Hypot(a.X()-b.X(), a.Y()-b.Y())
}
